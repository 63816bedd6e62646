package driven

import (
	"time"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

// Phase identifies one of the three pipeline stages for staleness and
// checkpoint bookkeeping.
type Phase string

const (
	PhaseFetch     Phase = "fetch"
	PhaseNormalize Phase = "normalize"
	PhaseSummarize Phase = "summarize"
)

// DailyStateStore tracks, per date and per phase, the timestamp a phase last
// completed. Downstream phases are considered stale whenever their input
// phase's timestamp is newer than their own (cascade staleness).
type DailyStateStore interface {
	GetTimestamp(phase Phase, date string) (time.Time, bool)
	SetTimestamp(phase Phase, date string, ts time.Time) error
	IsFetchStale(date string) bool
	IsNormalizeStale(date string) bool
	IsSummarizeStale(date string) bool
	StaleDates(phase Phase, dates []string) []string
}

// FetchProgressStore caches the per-chunk search results of an in-progress
// range fetch so a resumed run skips redundant search calls.
type FetchProgressStore interface {
	Get(chunkKey string) (ChunkProgress, bool)
	Save(chunkKey string, progress ChunkProgress) error
	Clear(chunkKey string) error
}

// ChunkProgress is the per-chunk search cache: all PRs/commits/issues
// discovered for the chunk, bucketed by nothing in particular — bucketing by
// date happens in the fetcher once progress is loaded.
type ChunkProgress struct {
	PRs     map[string]model.PRRaw // keyed by API URL, deduplicated across search axes
	Commits []model.CommitRaw
	Issues  map[string]model.IssueRaw // keyed by API URL
}

// FailedDateEntry is the Failed-Date Store's per-date record.
type FailedDateEntry struct {
	Phase        Phase
	Attempts     int
	LastError    string
	LastAttempt  time.Time
	FirstFailure time.Time
	Permanent    bool
}

// FailedDateStore distinguishes permanent from retryable per-date failures
// and bounds the number of automatic retries.
type FailedDateStore interface {
	RecordFailure(date string, phase Phase, err error, permanent bool) error
	RecordSuccess(date string, phase Phase) error
	GetEntry(date string) (FailedDateEntry, bool)
	RetryableDates(candidates []string, maxRetries int) []string
	ExhaustedDates(maxRetries int) []string
}

// CheckpointStore holds the three monotonic catch-up markers. Update refuses
// to regress a stored date.
type CheckpointStore interface {
	Get(key string) (string, bool)
	Update(key, date string) error
}

// Checkpoint keys.
const (
	CheckpointLastFetch     = "last_fetch_date"
	CheckpointLastNormalize = "last_normalize_date"
	CheckpointLastSummarize = "last_summarize_date"
)
