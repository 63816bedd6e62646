package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/filestore"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/prompt"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/statestore"
	"github.com/yongseopkim/workrecap/internal/config"
	"github.com/yongseopkim/workrecap/internal/domain/model"
)

func newTestOrchestrator(t *testing.T, client *fakeSearchClient, provider *fakeProvider) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	store := filestore.NewStore(dir)

	dailyState := statestore.NewDailyStateStore(dir + "/daily_state.json")
	failed := statestore.NewFailedDateStore(dir + "/failed_dates.json")
	checkpoint := statestore.NewCheckpointStore(dir + "/checkpoints.json")

	fetcher := NewFetcher(
		&fakePool{client: client},
		"testuser",
		store,
		dailyState,
		failed,
		statestore.NewFetchProgressStore(dir+"/fetch_progress"),
		checkpoint,
		3,
	)

	cfg := &config.ProviderConfig{
		Strategy: struct {
			Mode config.StrategyMode `toml:"mode"`
		}{Mode: config.StrategyFixed},
		Providers: map[string]config.ProviderEntry{"fake": {APIKey: "k"}},
		Tasks: map[string]config.TaskEntry{
			"daily": {Provider: "fake", Model: "base"},
		},
	}
	router := NewLLMRouter(cfg, NewUsageTracker(nil), time.Second)
	if provider != nil {
		router.providers["fake"] = provider
	}
	loader := prompt.NewLoader(dir+"/prompts", map[string]string{
		"enrich": EnrichTemplateFallback,
		"daily":  DailyTemplateFallback,
	})

	normalizer := NewNormalizer(store, "testuser", router, loader, dailyState, failed, checkpoint, nil)
	summarizer := NewSummarizer(store, router, loader, dailyState, checkpoint, nil)

	return NewOrchestrator(fetcher, normalizer, summarizer)
}

func TestOrchestrator_RunDaily_EmptyDaySucceedsWithoutEnrichmentOrSummaryLLMCall(t *testing.T) {
	client := &fakeSearchClient{}
	o := newTestOrchestrator(t, client, &fakeProvider{responses: map[string]string{}})

	var progressed []model.DateOutcome
	path, err := o.RunDaily(context.Background(), "2025-05-01", nil, func(o model.DateOutcome) {
		progressed = append(progressed, o)
	})
	require.NoError(t, err)
	require.Len(t, progressed, 1)
	assert.Equal(t, model.OutcomeSuccess, progressed[0].Status)
	assert.Equal(t, path, progressed[0].Path)
}

func TestOrchestrator_RunDaily_FetchFailureWrapsAsStepFailedError(t *testing.T) {
	client := &fakeSearchClient{} // GetPR etc all tolerant; force a fetch failure instead via a malformed date
	o := newTestOrchestrator(t, client, nil)

	_, err := o.RunDaily(context.Background(), "not-a-valid-date", nil, nil)
	require.Error(t, err)
	var stepErr *model.StepFailedError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "fetch", stepErr.Step)
}

func TestMergeOutcomes_FailedPhaseWins(t *testing.T) {
	fetch := []model.DateOutcome{{Date: "2025-05-01", Status: model.OutcomeSuccess}}
	normalize := []model.DateOutcome{{Date: "2025-05-01", Status: model.OutcomeFailed, Error: "boom"}}
	summarize := []model.DateOutcome{{Date: "2025-05-01", Status: model.OutcomeSkipped}}

	merged := mergeOutcomes(fetch, normalize, summarize)

	require.Len(t, merged, 1)
	assert.Equal(t, model.OutcomeFailed, merged[0].Status)
	assert.Equal(t, "Pipeline failed at 'normalize': boom", merged[0].Error)
}

func TestMergeOutcomes_AllSkippedStaysSkipped(t *testing.T) {
	fetch := []model.DateOutcome{{Date: "2025-05-02", Status: model.OutcomeSkipped}}
	normalize := []model.DateOutcome{{Date: "2025-05-02", Status: model.OutcomeSkipped}}
	summarize := []model.DateOutcome{{Date: "2025-05-02", Status: model.OutcomeSkipped}}

	merged := mergeOutcomes(fetch, normalize, summarize)

	require.Len(t, merged, 1)
	assert.Equal(t, model.OutcomeSkipped, merged[0].Status)
}

func TestMergeOutcomes_SuccessCarriesSummaryPath(t *testing.T) {
	fetch := []model.DateOutcome{{Date: "2025-05-03", Status: model.OutcomeSuccess}}
	normalize := []model.DateOutcome{{Date: "2025-05-03", Status: model.OutcomeSkipped}}
	summarize := []model.DateOutcome{{Date: "2025-05-03", Status: model.OutcomeSuccess, Path: "/data/summaries/2025/daily/05-03.md"}}

	merged := mergeOutcomes(fetch, normalize, summarize)

	require.Len(t, merged, 1)
	assert.Equal(t, model.OutcomeSuccess, merged[0].Status)
	assert.Equal(t, "/data/summaries/2025/daily/05-03.md", merged[0].Path)
}
