package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/filestore"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/prompt"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/statestore"
	"github.com/yongseopkim/workrecap/internal/application"
	"github.com/yongseopkim/workrecap/internal/config"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// emptySearchClient answers every call with no results, enough to exercise
// the pipeline on days with no activity.
type emptySearchClient struct{}

func (emptySearchClient) SearchIssues(ctx context.Context, query string, page, perPage int) ([]model.PRRaw, bool, error) {
	return nil, false, nil
}
func (emptySearchClient) SearchCommits(ctx context.Context, query string, page, perPage int) ([]model.CommitRaw, bool, error) {
	return nil, false, nil
}
func (emptySearchClient) GetPR(ctx context.Context, repo string, number int) (model.PRRaw, error) {
	return model.PRRaw{}, nil
}
func (emptySearchClient) GetPRFiles(ctx context.Context, repo string, number int) ([]model.PRFile, error) {
	return nil, nil
}
func (emptySearchClient) GetPRComments(ctx context.Context, repo string, number int) ([]model.PRComment, error) {
	return nil, nil
}
func (emptySearchClient) GetPRReviews(ctx context.Context, repo string, number int) ([]model.PRReview, error) {
	return nil, nil
}
func (emptySearchClient) GetCommit(ctx context.Context, repo, sha string) (model.CommitRaw, error) {
	return model.CommitRaw{}, nil
}
func (emptySearchClient) GetIssue(ctx context.Context, repo string, number int) (model.IssueRaw, error) {
	return model.IssueRaw{}, nil
}
func (emptySearchClient) GetIssueComments(ctx context.Context, repo string, number int) ([]model.PRComment, error) {
	return nil, nil
}

type singleClientPool struct{ client driven.SearchClient }

func (p singleClientPool) Acquire(ctx context.Context) (driven.SearchClient, error) { return p.client, nil }
func (p singleClientPool) Release(driven.SearchClient)                             {}

// silentProvider answers every chat call with an empty response, enough for
// the daily/weekly/monthly/yearly summaries to render without a real LLM.
type silentProvider struct{}

func (silentProvider) Name() string { return "silent" }
func (silentProvider) Chat(ctx context.Context, modelName string, system, user string, opts driven.ChatOptions) (string, model.TokenUsage, error) {
	return "# summary\n", model.TokenUsage{TotalTokens: 1, CallCount: 1}, nil
}
func (silentProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) { return nil, nil }

type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) Notify(ctx context.Context, event, message string) error {
	n.events = append(n.events, event+": "+message)
	return nil
}

func newTestScheduler(t *testing.T, notifier *fakeNotifier) *Scheduler {
	t.Helper()
	dir := t.TempDir()
	store := filestore.NewStore(dir)

	dailyState := statestore.NewDailyStateStore(dir + "/daily_state.json")
	failed := statestore.NewFailedDateStore(dir + "/failed_dates.json")
	checkpoint := statestore.NewCheckpointStore(dir + "/checkpoints.json")

	fetcher := application.NewFetcher(
		singleClientPool{client: emptySearchClient{}},
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
		Providers: map[string]config.ProviderEntry{"silent": {APIKey: "k"}},
		Tasks: map[string]config.TaskEntry{
			"daily":   {Provider: "silent", Model: "base"},
			"weekly":  {Provider: "silent", Model: "base"},
			"monthly": {Provider: "silent", Model: "base"},
			"yearly":  {Provider: "silent", Model: "base"},
		},
	}
	router := application.NewLLMRouter(cfg, application.NewUsageTracker(nil), time.Second)
	router.RegisterProvider("silent", silentProvider{})
	loader := prompt.NewLoader(dir+"/prompts", map[string]string{
		"daily":   application.DailyTemplateFallback,
		"weekly":  application.WeeklyTemplateFallback,
		"monthly": application.MonthlyTemplateFallback,
		"yearly":  application.YearlyTemplateFallback,
	})

	normalizer := application.NewNormalizer(store, "testuser", router, loader, dailyState, failed, checkpoint, nil)
	summarizer := application.NewSummarizer(store, router, loader, dailyState, checkpoint, nil)
	orchestrator := application.NewOrchestrator(fetcher, normalizer, summarizer)

	schedCfg := &config.ScheduleConfig{
		Daily:   config.DailyTrigger{Enabled: true, Hour: 3, Minute: 0},
		Weekly:  config.WeeklyTrigger{Enabled: false},
		Monthly: config.MonthlyTrigger{Enabled: false},
		Yearly:  config.YearlyTrigger{Enabled: false},
	}

	var n driven.Notifier
	if notifier != nil {
		n = notifier
	}
	return NewScheduler(schedCfg, orchestrator, summarizer, n)
}

func TestScheduler_Trigger_DailyRecordsOKEvent(t *testing.T) {
	notifier := &fakeNotifier{}
	s := newTestScheduler(t, notifier)

	err := s.Trigger(context.Background(), "daily")
	require.NoError(t, err)

	events := s.History()
	require.Len(t, events, 1)
	assert.Equal(t, EventOK, events[0].Status)
	assert.Equal(t, "daily", events[0].Job)
	assert.Len(t, notifier.events, 1)
}

func TestScheduler_Trigger_UnknownJobErrors(t *testing.T) {
	s := newTestScheduler(t, nil)
	err := s.Trigger(context.Background(), "nonexistent")
	assert.Error(t, err)
}

func TestScheduler_Status_ReflectsDisabledModeWithoutStart(t *testing.T) {
	s := newTestScheduler(t, nil)

	running, entries := s.Status()
	assert.False(t, running, "Status must answer even though Start was never called")
	require.Len(t, entries, 4)

	var daily, weekly EntryStatus
	for _, e := range entries {
		switch e.Job {
		case "daily":
			daily = e
		case "weekly":
			weekly = e
		}
	}
	assert.True(t, daily.Enabled)
	assert.False(t, weekly.Enabled)
}

func TestScheduler_Trigger_WeeklyWorksEvenWhenDisabled(t *testing.T) {
	s := newTestScheduler(t, nil)

	err := s.Trigger(context.Background(), "weekly")
	require.NoError(t, err, "disabled triggers must still respond to manual Trigger calls")

	events := s.History()
	require.Len(t, events, 1)
	assert.Equal(t, "weekly", events[0].Job)
}
