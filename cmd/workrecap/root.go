package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/filestore"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/github"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/notifier"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/prompt"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/sqlite"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/statestore"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/storagesink"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/vectorsink"
	"github.com/yongseopkim/workrecap/internal/application"
	"github.com/yongseopkim/workrecap/internal/config"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
	"github.com/yongseopkim/workrecap/internal/scheduler"
)

var (
	flagSince   string
	flagUntil   string
	flagForce   bool
	flagTypes   []string
	flagWorkers int
)

var rootCmd = &cobra.Command{
	Use:   "workrecap",
	Short: "Fetch, normalize, and summarize GitHub activity into Markdown work logs",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSince, "since", "", "range start date (YYYY-MM-DD), requires --until")
	rootCmd.PersistentFlags().StringVar(&flagUntil, "until", "", "range end date (YYYY-MM-DD), requires --since")
	rootCmd.PersistentFlags().BoolVar(&flagForce, "force", false, "reprocess dates even if not stale")
	rootCmd.PersistentFlags().StringSliceVar(&flagTypes, "type", nil, "activity types to fetch: prs, commits, issues (default: all)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "concurrent workers for range operations (default: config MaxWorkers)")

	rootCmd.AddCommand(fetchCmd, normalizeCmd, summarizeCmd, runCmd, serveCmd)
}

// app bundles every wired service a subcommand might call.
type app struct {
	cfg          *config.Config
	fetcher      *application.Fetcher
	normalizer   *application.Normalizer
	summarizer   *application.Summarizer
	orchestrator *application.Orchestrator
	checkpoint   driven.CheckpointStore
	store        *filestore.Store
	db           *sqlite.DB
	workers      int
}

// bootstrap loads configuration and wires every adapter and service a CLI
// command needs. Callers must invoke app.close() before exiting.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	providerCfg, err := config.LoadProviderConfig(cfg.ProviderConfig)
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir
	stateDir := filepath.Join(dataDir, "state")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	store := filestore.NewStore(dataDir)
	dailyState := statestore.NewDailyStateStore(filepath.Join(stateDir, "daily_state.json"))
	failed := statestore.NewFailedDateStore(filepath.Join(stateDir, "failed_dates.json"))
	progress := statestore.NewFetchProgressStore(filepath.Join(stateDir, "fetch_progress"))
	checkpoint := statestore.NewCheckpointStore(filepath.Join(stateDir, "checkpoints.json"))

	workers := cfg.MaxWorkers
	if flagWorkers > 0 {
		workers = flagWorkers
	}
	if workers < 1 {
		workers = 1
	}

	clients := make([]driven.SearchClient, 0, workers)
	for i := 0; i < workers; i++ {
		c, err := github.NewClient(cfg.GitHubToken, cfg.GitHubBaseURL, cfg.ThrottleWait, cfg.HTTPTimeout)
		if err != nil {
			return nil, fmt.Errorf("create github client: %w", err)
		}
		clients = append(clients, c)
	}
	pool := github.NewPool(clients)

	fetcher := application.NewFetcher(pool, cfg.GitHubUsername, store, dailyState, failed, progress, checkpoint, cfg.MaxRetries)

	usage := application.NewUsageTracker(nil)
	router := application.NewLLMRouter(providerCfg, usage, cfg.HTTPTimeout)
	loader := prompt.NewLoader(filepath.Join(dataDir, "prompts"), map[string]string{
		"enrich":  application.EnrichTemplateFallback,
		"daily":   application.DailyTemplateFallback,
		"weekly":  application.WeeklyTemplateFallback,
		"monthly": application.MonthlyTemplateFallback,
		"yearly":  application.YearlyTemplateFallback,
		"query":   application.QueryTemplateFallback,
	})

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	sink := storagesink.New(sqlite.NewActivitySink(db), vectorsink.NewNullSink(slog.Default()))

	normalizer := application.NewNormalizer(store, cfg.GitHubUsername, router, loader, dailyState, failed, checkpoint, sink)
	summarizer := application.NewSummarizer(store, router, loader, dailyState, checkpoint, sink)
	orchestrator := application.NewOrchestrator(fetcher, normalizer, summarizer)

	return &app{
		cfg:          cfg,
		fetcher:      fetcher,
		normalizer:   normalizer,
		summarizer:   summarizer,
		orchestrator: orchestrator,
		checkpoint:   checkpoint,
		store:        store,
		db:           db,
		workers:      workers,
	}, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}
}

// buildNotifier picks a Telegram notifier when credentials are configured,
// falling back to logging otherwise.
func buildNotifier(cfg *config.Config) driven.Notifier {
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		return notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, cfg.HTTPTimeout)
	}
	return notifier.NewLogNotifier(slog.Default())
}

func buildScheduler(cfg *config.Config, orchestrator *application.Orchestrator, summarizer *application.Summarizer) *scheduler.Scheduler {
	scheduleCfg := &config.ScheduleConfig{}
	if cfg.ScheduleConfig != "" {
		loaded, err := config.LoadScheduleConfig(cfg.ScheduleConfig)
		if err != nil {
			slog.Error("failed to load schedule config, every trigger disabled", "error", err)
		} else {
			scheduleCfg = loaded
		}
	}
	return scheduler.NewScheduler(scheduleCfg, orchestrator, summarizer, buildNotifier(cfg))
}

func sourceTypes(types []string) []application.SourceType {
	if len(types) == 0 {
		return application.AllSources
	}
	out := make([]application.SourceType, 0, len(types))
	for _, t := range types {
		out = append(out, application.SourceType(t))
	}
	return out
}

func summarizeOutcomes(outcomes []model.DateOutcome) (string, bool) {
	var success, skipped, failed int
	for _, o := range outcomes {
		switch o.Status {
		case model.OutcomeSuccess:
			success++
		case model.OutcomeSkipped:
			skipped++
		case model.OutcomeFailed:
			failed++
		}
	}
	return fmt.Sprintf("%d succeeded / %d skipped / %d failed", success, skipped, failed), failed > 0
}

// dateArgs resolves a command's date selector from its positional date
// argument and the --since/--until flags. Exactly one of (single date),
// (since+until), or neither may be set; neither falls back to a range from
// the named checkpoint to today, or to today alone when no checkpoint
// exists yet.
func dateArgs(args []string, checkpoint driven.CheckpointStore, checkpointKey string) (date, since, until string, err error) {
	var positional string
	if len(args) > 0 {
		positional = args[0]
	}

	switch {
	case positional != "" && (flagSince != "" || flagUntil != ""):
		return "", "", "", fmt.Errorf("a positional date and --since/--until are mutually exclusive")

	case positional != "":
		return positional, "", "", nil

	case flagSince != "" && flagUntil != "":
		return "", flagSince, flagUntil, nil

	case flagSince != "" || flagUntil != "":
		return "", "", "", fmt.Errorf("--since and --until must be given together")

	default:
		today := time.Now().UTC().Format("2006-01-02")
		if last, ok := checkpoint.Get(checkpointKey); ok && last != "" {
			next, err := nextDay(last)
			if err != nil {
				return "", "", "", err
			}
			if next > today {
				return today, "", "", nil
			}
			return "", next, today, nil
		}
		return today, "", "", nil
	}
}

func nextDay(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("invalid checkpoint date %q: %w", date, err)
	}
	return t.AddDate(0, 0, 1).Format("2006-01-02"), nil
}

// parseYearSuffix splits "YYYY-NN" into its two integer components, used
// by --weekly/--monthly style positional arguments.
func parseYearSuffix(s string) (int, int, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected exactly one '-' separator")
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric year: %w", err)
	}
	suffix, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric second component: %w", err)
	}
	return year, suffix, nil
}
