package statestore

import (
	"sync"
	"time"

	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.DailyStateStore = (*DailyStateStore)(nil)

type dailyRecord map[driven.Phase]time.Time

// DailyStateStore is the JSON-backed daily-state store: date → phase →
// completion timestamp. Backing file: state/daily_state.json.
type DailyStateStore struct {
	mu      sync.Mutex
	path    string
	loaded  bool
	records map[string]dailyRecord
}

// NewDailyStateStore returns a store backed by path. The file is lazily
// loaded on first access.
func NewDailyStateStore(path string) *DailyStateStore {
	return &DailyStateStore{path: path}
}

func (s *DailyStateStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	raw := map[string]map[string]time.Time{}
	if err := loadJSON(s.path, &raw); err != nil {
		return err
	}
	records := make(map[string]dailyRecord, len(raw))
	for date, phases := range raw {
		rec := make(dailyRecord, len(phases))
		for phase, ts := range phases {
			rec[driven.Phase(phase)] = ts
		}
		records[date] = rec
	}
	s.records = records
	s.loaded = true
	return nil
}

func (s *DailyStateStore) save() error {
	raw := make(map[string]map[string]time.Time, len(s.records))
	for date, rec := range s.records {
		phases := make(map[string]time.Time, len(rec))
		for phase, ts := range rec {
			phases[string(phase)] = ts
		}
		raw[date] = phases
	}
	return saveJSON(s.path, raw)
}

// GetTimestamp returns the recorded completion timestamp for phase/date.
func (s *DailyStateStore) GetTimestamp(phase driven.Phase, date string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return time.Time{}, false
	}
	rec, ok := s.records[date]
	if !ok {
		return time.Time{}, false
	}
	ts, ok := rec[phase]
	return ts, ok
}

// SetTimestamp records phase/date as completed at ts and persists immediately.
func (s *DailyStateStore) SetTimestamp(phase driven.Phase, date string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if s.records == nil {
		s.records = map[string]dailyRecord{}
	}
	rec, ok := s.records[date]
	if !ok {
		rec = dailyRecord{}
		s.records[date] = rec
	}
	rec[phase] = ts
	return s.save()
}

// IsFetchStale reports true iff no fetch record exists, or the fetch
// timestamp's date is not after the target date — data captured before the
// day ended is assumed incomplete.
func (s *DailyStateStore) IsFetchStale(date string) bool {
	ts, ok := s.GetTimestamp(driven.PhaseFetch, date)
	if !ok {
		return true
	}
	fetchedDate := ts.UTC().Format("2006-01-02")
	return fetchedDate <= date
}

// IsNormalizeStale reports true iff no normalize record exists, no fetch
// record exists, or the fetch timestamp is newer than the normalize one.
func (s *DailyStateStore) IsNormalizeStale(date string) bool {
	normTS, normOK := s.GetTimestamp(driven.PhaseNormalize, date)
	fetchTS, fetchOK := s.GetTimestamp(driven.PhaseFetch, date)
	if !normOK || !fetchOK {
		return true
	}
	return fetchTS.After(normTS)
}

// IsSummarizeStale mirrors IsNormalizeStale one phase downstream.
func (s *DailyStateStore) IsSummarizeStale(date string) bool {
	sumTS, sumOK := s.GetTimestamp(driven.PhaseSummarize, date)
	normTS, normOK := s.GetTimestamp(driven.PhaseNormalize, date)
	if !sumOK || !normOK {
		return true
	}
	return normTS.After(sumTS)
}

// StaleDates filters dates to those stale for phase.
func (s *DailyStateStore) StaleDates(phase driven.Phase, dates []string) []string {
	var stale func(string) bool
	switch phase {
	case driven.PhaseFetch:
		stale = s.IsFetchStale
	case driven.PhaseNormalize:
		stale = s.IsNormalizeStale
	case driven.PhaseSummarize:
		stale = s.IsSummarizeStale
	default:
		return nil
	}
	var out []string
	for _, d := range dates {
		if stale(d) {
			out = append(out, d)
		}
	}
	return out
}
