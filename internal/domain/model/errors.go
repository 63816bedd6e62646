package model

import "fmt"

// FetchError wraps a search or enrich failure against the hosting API:
// transport errors, HTTP status errors, or rate-limit exhaustion.
type FetchError struct {
	Date string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Date, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NormalizeError wraps a missing or unparseable raw file.
type NormalizeError struct {
	Date string
	Err  error
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalize %s: %v", e.Date, e.Err)
}

func (e *NormalizeError) Unwrap() error { return e.Err }

// SummarizeError wraps missing summarizer input (no activities/stats, no
// downstream summaries to roll up) or an LLM failure.
type SummarizeError struct {
	Period string
	Err    error
}

func (e *SummarizeError) Error() string {
	return fmt.Sprintf("summarize %s: %v", e.Period, e.Err)
}

func (e *SummarizeError) Unwrap() error { return e.Err }

// StepFailedError is the orchestrator-level wrap carrying which phase of a
// single-date pipeline run failed.
type StepFailedError struct {
	Step  string
	Cause error
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("pipeline failed at '%s': %v", e.Step, e.Cause)
}

func (e *StepFailedError) Unwrap() error { return e.Cause }

// StorageError wraps a relational or vector sink failure. Callers must never
// propagate it — it is logged and the pipeline continues.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// BatchUnsupportedError is returned when the router is asked to submit a
// batch against a provider adapter that does not implement batch capability.
type BatchUnsupportedError struct {
	Provider string
}

func (e *BatchUnsupportedError) Error() string {
	return fmt.Sprintf("provider %q does not support batch submission", e.Provider)
}
