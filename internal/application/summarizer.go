package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/filestore"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/prompt"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// emptyDayMarker is written in place of an LLM-rendered daily summary when
// a date has no activities at all.
const emptyDayMarker = "# %s\n\n활동이 없는 날\n"

// DailyTemplateFallback, WeeklyTemplateFallback, MonthlyTemplateFallback,
// YearlyTemplateFallback, and QueryTemplateFallback are the built-in
// template bodies registered with the prompt.Loader when the corresponding
// prompts/*.md file is absent from disk.
const (
	DailyTemplateFallback = `Write a concise, first-person daily work log entry in Markdown from the
activity below. Group by repository, mention PRs/commits/issues by number,
and keep it to a few bullet points.
<!-- SPLIT -->
Date: {{.Date}}
Stats: {{.Stats}}

Activity:
{{.Activities}}`

	WeeklyTemplateFallback = `Roll the daily entries below up into one weekly summary in Markdown,
covering what shipped and any notable pattern across the days.
<!-- SPLIT -->
Year: {{.Year}} ISO week: {{.Week}}

{{.Body}}`

	MonthlyTemplateFallback = `Roll the weekly summaries below up into one monthly summary in Markdown.
<!-- SPLIT -->
Year: {{.Year}} Month: {{.Month}}

{{.Body}}`

	YearlyTemplateFallback = `Roll the monthly summaries below up into one yearly retrospective in
Markdown.
<!-- SPLIT -->
Year: {{.Year}}

{{.Body}}`

	QueryTemplateFallback = `Answer the question below using only the monthly summaries provided as
context. If the context does not contain the answer, say so.
<!-- SPLIT -->
Question: {{.Question}}

Context:
{{.Body}}`
)

// Summarizer renders the daily/weekly/monthly/yearly Markdown summary
// hierarchy from normalized activities and lower-level summaries.
type Summarizer struct {
	store      *filestore.Store
	router     *LLMRouter
	prompts    *prompt.Loader
	dailyState driven.DailyStateStore
	checkpoint driven.CheckpointStore
	sink       driven.StorageSink // best-effort, may be nil
}

// NewSummarizer builds a Summarizer. sink may be nil to skip the
// best-effort relational/vector mirror.
func NewSummarizer(
	store *filestore.Store,
	router *LLMRouter,
	prompts *prompt.Loader,
	dailyState driven.DailyStateStore,
	checkpoint driven.CheckpointStore,
	sink driven.StorageSink,
) *Summarizer {
	return &Summarizer{
		store:      store,
		router:     router,
		prompts:    prompts,
		dailyState: dailyState,
		checkpoint: checkpoint,
		sink:       sink,
	}
}

// Daily reads date's normalized activities and stats, renders prompts/daily.md,
// writes the result (or the empty-day marker when there are no activities),
// and advances the daily_state/checkpoint bookkeeping.
func (s *Summarizer) Daily(ctx context.Context, date string) (string, error) {
	activities, err := s.store.ReadActivities(date)
	if err != nil {
		return "", &model.SummarizeError{Period: date, Err: err}
	}

	var markdown string
	if len(activities) == 0 {
		markdown = fmt.Sprintf(emptyDayMarker, date)
	} else {
		stats, err := s.store.ReadStats(date)
		if err != nil {
			return "", &model.SummarizeError{Period: date, Err: err}
		}
		markdown, err = s.renderDaily(ctx, date, stats, activities)
		if err != nil {
			return "", &model.SummarizeError{Period: date, Err: err}
		}
	}

	path, err := s.store.DailySummaryPath(date)
	if err != nil {
		return "", &model.SummarizeError{Period: date, Err: err}
	}
	if err := s.store.WriteMarkdown(path, markdown); err != nil {
		return "", &model.SummarizeError{Period: date, Err: err}
	}

	if s.sink != nil {
		if err := s.sink.WriteSummary(ctx, "daily", date, markdown); err != nil {
			slog.Warn("storage sink write failed", "op", "summary", "period", "daily", "key", date, "error", err)
		}
	}

	if err := s.dailyState.SetTimestamp(driven.PhaseSummarize, date, time.Now().UTC()); err != nil {
		return "", &model.SummarizeError{Period: date, Err: err}
	}
	if err := s.checkpoint.Update(driven.CheckpointLastSummarize, date); err != nil {
		return "", &model.SummarizeError{Period: date, Err: err}
	}

	return path, nil
}

func (s *Summarizer) renderDaily(ctx context.Context, date string, stats model.DailyStats, activities []model.Activity) (string, error) {
	lines := make([]string, 0, len(activities))
	for _, a := range activities {
		summary := a.ChangeSummary
		if summary == "" {
			summary = a.AutoSummary
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s", a.Kind, summary))
	}

	data := struct {
		Date       string
		Stats      string
		Activities string
	}{
		Date:       date,
		Stats:      formatStats(stats),
		Activities: strings.Join(lines, "\n"),
	}

	system, user, err := s.prompts.RenderSplit("daily", data)
	if err != nil {
		return "", fmt.Errorf("render daily template: %w", err)
	}
	text, _, err := s.router.Chat(ctx, "daily", system, user, driven.ChatOptions{})
	if err != nil {
		return "", fmt.Errorf("daily chat: %w", err)
	}
	return text, nil
}

func formatStats(stats model.DailyStats) string {
	return fmt.Sprintf(
		"authored=%d reviewed=%d commented=%d commits=%d issues_authored=%d issues_commented=%d +%d/-%d repos=%s",
		stats.GitHub.AuthoredCount, stats.GitHub.ReviewedCount, stats.GitHub.CommentedCount,
		stats.GitHub.CommitCount, stats.GitHub.IssueAuthoredCount, stats.GitHub.IssueCommentedCount,
		stats.TotalAdditions, stats.TotalDeletions, strings.Join(stats.ReposTouched, ","),
	)
}

// Weekly collects the 7 daily summaries of the ISO week (Monday = day 1),
// joins the ones that exist with "\n\n---\n\n", and renders weekly.md.
// Errors if none of the 7 days has a daily summary.
func (s *Summarizer) Weekly(ctx context.Context, year, isoWeek int) (string, error) {
	period := fmt.Sprintf("%d-W%02d", year, isoWeek)

	var parts []string
	for _, date := range datesInISOWeek(year, isoWeek) {
		path, err := s.store.DailySummaryPath(date)
		if err != nil {
			continue
		}
		content, ok, err := s.store.ReadMarkdown(path)
		if err != nil {
			return "", &model.SummarizeError{Period: period, Err: err}
		}
		if ok {
			parts = append(parts, content)
		}
	}
	if len(parts) == 0 {
		return "", &model.SummarizeError{Period: period, Err: fmt.Errorf("no daily summaries found for ISO week %d-W%02d", year, isoWeek)}
	}

	data := struct {
		Year int
		Week int
		Body string
	}{Year: year, Week: isoWeek, Body: strings.Join(parts, "\n\n---\n\n")}

	system, user, err := s.prompts.RenderSplit("weekly", data)
	if err != nil {
		return "", &model.SummarizeError{Period: period, Err: err}
	}
	text, _, err := s.router.Chat(ctx, "weekly", system, user, driven.ChatOptions{})
	if err != nil {
		return "", &model.SummarizeError{Period: period, Err: err}
	}

	path := s.store.WeeklySummaryPath(year, isoWeek)
	if err := s.store.WriteMarkdown(path, text); err != nil {
		return "", &model.SummarizeError{Period: period, Err: err}
	}
	if s.sink != nil {
		if err := s.sink.WriteSummary(ctx, "weekly", period, text); err != nil {
			slog.Warn("storage sink write failed", "op", "summary", "period", "weekly", "key", period, "error", err)
		}
	}
	return path, nil
}

// datesInISOWeek returns the 7 calendar dates (Monday through Sunday) of
// the given ISO year/week.
func datesInISOWeek(year, isoWeek int) []string {
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := jan4.AddDate(0, 0, -(weekday-1)+(isoWeek-1)*7)

	dates := make([]string, 7)
	for i := 0; i < 7; i++ {
		dates[i] = formatISODate(monday.AddDate(0, 0, i))
	}
	return dates
}

// Monthly collects the weekly summaries for every ISO (year, week) tuple
// spanning the given calendar month and rolls them into monthly.md.
func (s *Summarizer) Monthly(ctx context.Context, year, month int) (string, error) {
	period := fmt.Sprintf("%d-%02d", year, month)

	var parts []string
	for _, pair := range isoWeeksInMonth(year, month) {
		path := s.store.WeeklySummaryPath(pair[0], pair[1])
		content, ok, err := s.store.ReadMarkdown(path)
		if err != nil {
			return "", &model.SummarizeError{Period: period, Err: err}
		}
		if ok {
			parts = append(parts, content)
		}
	}
	if len(parts) == 0 {
		return "", &model.SummarizeError{Period: period, Err: fmt.Errorf("no weekly summaries found for %s", period)}
	}

	data := struct {
		Year  int
		Month int
		Body  string
	}{Year: year, Month: month, Body: strings.Join(parts, "\n\n---\n\n")}

	system, user, err := s.prompts.RenderSplit("monthly", data)
	if err != nil {
		return "", &model.SummarizeError{Period: period, Err: err}
	}
	text, _, err := s.router.Chat(ctx, "monthly", system, user, driven.ChatOptions{})
	if err != nil {
		return "", &model.SummarizeError{Period: period, Err: err}
	}

	path := s.store.MonthlySummaryPath(year, month)
	if err := s.store.WriteMarkdown(path, text); err != nil {
		return "", &model.SummarizeError{Period: period, Err: err}
	}
	if s.sink != nil {
		if err := s.sink.WriteSummary(ctx, "monthly", period, text); err != nil {
			slog.Warn("storage sink write failed", "op", "summary", "period", "monthly", "key", period, "error", err)
		}
	}
	return path, nil
}

// Yearly collects the monthly summaries for months 1-12 that exist and
// rolls them into yearly.md.
func (s *Summarizer) Yearly(ctx context.Context, year int) (string, error) {
	period := fmt.Sprintf("%d", year)

	var parts []string
	for month := 1; month <= 12; month++ {
		path := s.store.MonthlySummaryPath(year, month)
		content, ok, err := s.store.ReadMarkdown(path)
		if err != nil {
			return "", &model.SummarizeError{Period: period, Err: err}
		}
		if ok {
			parts = append(parts, content)
		}
	}
	if len(parts) == 0 {
		return "", &model.SummarizeError{Period: period, Err: fmt.Errorf("no monthly summaries found for %d", year)}
	}

	data := struct {
		Year int
		Body string
	}{Year: year, Body: strings.Join(parts, "\n\n---\n\n")}

	system, user, err := s.prompts.RenderSplit("yearly", data)
	if err != nil {
		return "", &model.SummarizeError{Period: period, Err: err}
	}
	text, _, err := s.router.Chat(ctx, "yearly", system, user, driven.ChatOptions{})
	if err != nil {
		return "", &model.SummarizeError{Period: period, Err: err}
	}

	path := s.store.YearlySummaryPath(year)
	if err := s.store.WriteMarkdown(path, text); err != nil {
		return "", &model.SummarizeError{Period: period, Err: err}
	}
	if s.sink != nil {
		if err := s.sink.WriteSummary(ctx, "yearly", period, text); err != nil {
			slog.Warn("storage sink write failed", "op", "summary", "period", "yearly", "key", period, "error", err)
		}
	}
	return path, nil
}

// Query collects the last monthsBack monthly.md files walking backwards
// from the given reference time across year boundaries, then answers
// question using them as context.
func (s *Summarizer) Query(ctx context.Context, question string, monthsBack int, now time.Time) (string, error) {
	year, month := now.Year(), int(now.Month())

	var parts []string
	for i := 0; i < monthsBack; i++ {
		path := s.store.MonthlySummaryPath(year, month)
		content, ok, err := s.store.ReadMarkdown(path)
		if err != nil {
			return "", &model.SummarizeError{Period: "query", Err: err}
		}
		if ok {
			parts = append(parts, content)
		}
		month--
		if month == 0 {
			month = 12
			year--
		}
	}
	if len(parts) == 0 {
		return "", &model.SummarizeError{Period: "query", Err: fmt.Errorf("no monthly summaries found in the last %d months", monthsBack)}
	}

	data := struct {
		Question string
		Body     string
	}{Question: question, Body: strings.Join(parts, "\n\n---\n\n")}

	system, user, err := s.prompts.RenderSplit("query", data)
	if err != nil {
		return "", &model.SummarizeError{Period: "query", Err: err}
	}
	text, _, err := s.router.Chat(ctx, "query", system, user, driven.ChatOptions{})
	if err != nil {
		return "", &model.SummarizeError{Period: "query", Err: err}
	}
	return text, nil
}

// DailyRange summarizes every date in [since, until], skipping dates whose
// summarize phase is not stale unless force is set, mirroring Normalizer's
// range staleness and execution semantics.
func (s *Summarizer) DailyRange(ctx context.Context, since, until string, force bool, maxWorkers int) ([]model.DateOutcome, error) {
	sinceT, err := parseISODate(since)
	if err != nil {
		return nil, err
	}
	untilT, err := parseISODate(until)
	if err != nil {
		return nil, err
	}
	all := datesBetween(sinceT, untilT)

	toProcess := all
	if !force {
		toProcess = s.dailyState.StaleDates(driven.PhaseSummarize, all)
	}
	toProcessSet := map[string]bool{}
	for _, d := range toProcess {
		toProcessSet[d] = true
	}

	out := make([]model.DateOutcome, len(toProcess))
	if maxWorkers <= 1 {
		for i, date := range toProcess {
			out[i] = s.dailyOne(ctx, date)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxWorkers)
		for i, date := range toProcess {
			i, date := i, date
			g.Go(func() error {
				out[i] = s.dailyOne(gctx, date)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, d := range all {
		if !toProcessSet[d] {
			out = append(out, model.DateOutcome{Date: d, Status: model.OutcomeSkipped})
		}
	}

	sortOutcomes(out)
	return out, nil
}

func (s *Summarizer) dailyOne(ctx context.Context, date string) model.DateOutcome {
	path, err := s.Daily(ctx, date)
	if err != nil {
		return model.DateOutcome{Date: date, Status: model.OutcomeFailed, Error: err.Error()}
	}
	return model.DateOutcome{Date: date, Status: model.OutcomeSuccess, Path: path}
}
