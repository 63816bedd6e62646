package application

import (
	"context"
	"fmt"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

// Orchestrator runs the Fetcher, Normalizer, and Summarizer as a single
// pipeline, either for one date or across a range.
type Orchestrator struct {
	fetcher    *Fetcher
	normalizer *Normalizer
	summarizer *Summarizer
}

// NewOrchestrator builds an Orchestrator over the three already-constructed
// pipeline services.
func NewOrchestrator(fetcher *Fetcher, normalizer *Normalizer, summarizer *Summarizer) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, normalizer: normalizer, summarizer: summarizer}
}

// RunDaily runs Fetch → Normalize → Daily for one date in strict order. The
// first phase to fail aborts the remaining phases and is surfaced as a
// *model.StepFailedError.
func (o *Orchestrator) RunDaily(ctx context.Context, date string, types []SourceType, progress ProgressFunc) (string, error) {
	if _, err := o.fetcher.Fetch(ctx, date, types); err != nil {
		outcome := model.DateOutcome{Date: date, Status: model.OutcomeFailed, Error: err.Error()}
		if progress != nil {
			progress(outcome)
		}
		return "", &model.StepFailedError{Step: "fetch", Cause: err}
	}

	if _, err := o.normalizer.Normalize(ctx, date, false); err != nil {
		outcome := model.DateOutcome{Date: date, Status: model.OutcomeFailed, Error: err.Error()}
		if progress != nil {
			progress(outcome)
		}
		return "", &model.StepFailedError{Step: "normalize", Cause: err}
	}

	path, err := o.summarizer.Daily(ctx, date)
	if err != nil {
		outcome := model.DateOutcome{Date: date, Status: model.OutcomeFailed, Error: err.Error()}
		if progress != nil {
			progress(outcome)
		}
		return "", &model.StepFailedError{Step: "summarize", Cause: err}
	}

	if progress != nil {
		progress(model.DateOutcome{Date: date, Status: model.OutcomeSuccess, Path: path})
	}
	return path, nil
}

// RunRange runs fetch_range, normalize_range, and daily_range in sequence
// (never interleaved), then merges their three per-date outcome lists into
// one per-date outcome per the merge rule below.
func (o *Orchestrator) RunRange(ctx context.Context, since, until string, force bool, types []SourceType, maxWorkers int, batch bool, progress ProgressFunc) ([]model.DateOutcome, error) {
	fetchOutcomes, err := o.fetcher.FetchRange(ctx, since, until, types, force, nil, maxWorkers)
	if err != nil {
		return nil, err
	}

	normalizeOutcomes, err := o.normalizer.NormalizeRange(ctx, since, until, force, false, maxWorkers, batch)
	if err != nil {
		return nil, err
	}

	summarizeOutcomes, err := o.summarizer.DailyRange(ctx, since, until, force, maxWorkers)
	if err != nil {
		return nil, err
	}

	merged := mergeOutcomes(fetchOutcomes, normalizeOutcomes, summarizeOutcomes)
	if progress != nil {
		for _, o := range merged {
			progress(o)
		}
	}
	return merged, nil
}

// mergeOutcomes combines the fetch/normalize/summarize outcome lists by
// date: failed if any phase failed, skipped if every phase was skipped,
// else success with the date's summary path.
func mergeOutcomes(fetch, normalize, summarize []model.DateOutcome) []model.DateOutcome {
	type phaseOutcome struct {
		phase string
		o     model.DateOutcome
	}
	byDate := map[string][]phaseOutcome{}
	var order []string
	seen := map[string]bool{}

	add := func(phase string, outcomes []model.DateOutcome) {
		for _, o := range outcomes {
			byDate[o.Date] = append(byDate[o.Date], phaseOutcome{phase: phase, o: o})
			if !seen[o.Date] {
				seen[o.Date] = true
				order = append(order, o.Date)
			}
		}
	}
	add("fetch", fetch)
	add("normalize", normalize)
	add("summarize", summarize)

	merged := make([]model.DateOutcome, 0, len(order))
	for _, date := range order {
		phases := byDate[date]

		var failed *phaseOutcome
		allSkipped := true
		var summaryPath string
		for i := range phases {
			p := &phases[i]
			if p.o.Status == model.OutcomeFailed && failed == nil {
				failed = p
			}
			if p.o.Status != model.OutcomeSkipped {
				allSkipped = false
			}
			if p.phase == "summarize" && p.o.Path != "" {
				summaryPath = p.o.Path
			}
		}

		switch {
		case failed != nil:
			merged = append(merged, model.DateOutcome{
				Date:   date,
				Status: model.OutcomeFailed,
				Error:  fmt.Sprintf("Pipeline failed at '%s': %s", failed.phase, failed.o.Error),
			})
		case allSkipped:
			merged = append(merged, model.DateOutcome{Date: date, Status: model.OutcomeSkipped})
		default:
			merged = append(merged, model.DateOutcome{Date: date, Status: model.OutcomeSuccess, Path: summaryPath})
		}
	}

	sortOutcomes(merged)
	return merged
}
