package statestore

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.FailedDateStore = (*FailedDateStore)(nil)

// statusCodeRE pulls an HTTP status code out of an error message formatted
// as "Client error 404: ..." or "Server error 503: ...".
var statusCodeRE = regexp.MustCompile(`(?:Client error|Server error)\s+(\d{3})`)

// IsPermanentError classifies an error's text: 404,
// non-rate-limit 403, and 422 are permanent; rate-limit and 5xx and
// transport errors are retryable.
func IsPermanentError(errText string) bool {
	lower := strings.ToLower(errText)
	if strings.Contains(lower, "rate limit") {
		return false
	}
	m := statusCodeRE.FindStringSubmatch(errText)
	if m == nil {
		return false
	}
	switch m[1] {
	case "404", "403", "422":
		return true
	default:
		return false
	}
}

type failedRecord struct {
	Phase        driven.Phase `json:"phase"`
	Attempts     int          `json:"attempts"`
	LastError    string       `json:"last_error"`
	LastAttempt  time.Time    `json:"last_attempt"`
	FirstFailure time.Time    `json:"first_failure"`
	Permanent    bool         `json:"permanent"`
}

// FailedDateStore is the JSON-backed per-date failure record. Backing file:
// state/failed_dates.json.
type FailedDateStore struct {
	mu      sync.Mutex
	path    string
	loaded  bool
	records map[string]failedRecord
}

// NewFailedDateStore returns a store backed by path.
func NewFailedDateStore(path string) *FailedDateStore {
	return &FailedDateStore{path: path}
}

func (s *FailedDateStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	records := map[string]failedRecord{}
	if err := loadJSON(s.path, &records); err != nil {
		return err
	}
	s.records = records
	s.loaded = true
	return nil
}

func (s *FailedDateStore) save() error {
	return saveJSON(s.path, s.records)
}

// RecordFailure increments the attempt counter for date, records the error,
// and marks the entry permanent if requested.
func (s *FailedDateStore) RecordFailure(date string, phase driven.Phase, err error, permanent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loadErr := s.ensureLoaded(); loadErr != nil {
		return loadErr
	}
	if s.records == nil {
		s.records = map[string]failedRecord{}
	}
	now := time.Now().UTC()
	rec, ok := s.records[date]
	if !ok {
		rec = failedRecord{FirstFailure: now}
	}
	rec.Phase = phase
	rec.Attempts++
	rec.LastError = err.Error()
	rec.LastAttempt = now
	if permanent {
		rec.Permanent = true
	}
	s.records[date] = rec
	return s.save()
}

// RecordSuccess clears the failure record for date.
func (s *FailedDateStore) RecordSuccess(date string, phase driven.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if _, ok := s.records[date]; !ok {
		return nil
	}
	delete(s.records, date)
	return s.save()
}

// GetEntry returns the failure record for date, if any.
func (s *FailedDateStore) GetEntry(date string) (driven.FailedDateEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return driven.FailedDateEntry{}, false
	}
	rec, ok := s.records[date]
	if !ok {
		return driven.FailedDateEntry{}, false
	}
	return driven.FailedDateEntry{
		Phase:        rec.Phase,
		Attempts:     rec.Attempts,
		LastError:    rec.LastError,
		LastAttempt:  rec.LastAttempt,
		FirstFailure: rec.FirstFailure,
		Permanent:    rec.Permanent,
	}, true
}

// RetryableDates filters candidates to those with an entry, attempts <
// maxRetries, and not permanent.
func (s *FailedDateStore) RetryableDates(candidates []string, maxRetries int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil
	}
	var out []string
	for _, d := range candidates {
		rec, ok := s.records[d]
		if !ok {
			continue
		}
		if rec.Permanent || rec.Attempts >= maxRetries {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ExhaustedDates returns all dates where attempts >= maxRetries or the
// record is marked permanent.
func (s *FailedDateStore) ExhaustedDates(maxRetries int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil
	}
	var out []string
	for d, rec := range s.records {
		if rec.Permanent || rec.Attempts >= maxRetries {
			out = append(out, d)
		}
	}
	return out
}
