package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yongseopkim/workrecap/internal/application"
)

const isoDateLayout = "2006-01-02"

// runDaily runs Orchestrator.RunDaily(yesterday).
func (s *Scheduler) runDaily(ctx context.Context) {
	started := time.Now().UTC()
	date := started.AddDate(0, 0, -1).Format(isoDateLayout)

	_, err := s.orchestrator.RunDaily(ctx, date, nil, nil)
	s.record(ctx, jobDaily, started, err, fmt.Sprintf("run_daily(%s)", date))
}

// runWeekly runs Summarizer.Weekly for last week's ISO year/week.
func (s *Scheduler) runWeekly(ctx context.Context) {
	started := time.Now().UTC()
	year, week := application.LastISOWeek(started)

	_, err := s.summarizer.Weekly(ctx, year, week)
	s.record(ctx, jobWeekly, started, err, fmt.Sprintf("weekly(%d, W%02d)", year, week))
}

// runMonthly cascades weekly over every ISO week overlapping last month
// (errors swallowed), then runs Summarizer.Monthly for last month.
func (s *Scheduler) runMonthly(ctx context.Context) {
	started := time.Now().UTC()
	year, month := application.LastMonth(started)

	for _, w := range application.ISOWeeksInMonth(year, month) {
		if _, err := s.summarizer.Weekly(ctx, w[0], w[1]); err != nil {
			slog.Warn("monthly cascade: weekly summary failed", "iso_year", w[0], "iso_week", w[1], "error", err)
		}
	}

	_, err := s.summarizer.Monthly(ctx, year, month)
	s.record(ctx, jobMonthly, started, err, fmt.Sprintf("monthly(%d-%02d)", year, month))
}

// runYearly cascades weekly+monthly over every month of last year (errors
// swallowed), then runs Summarizer.Yearly for last year.
func (s *Scheduler) runYearly(ctx context.Context) {
	started := time.Now().UTC()
	lastYear := started.Year() - 1

	for month := 1; month <= 12; month++ {
		for _, w := range application.ISOWeeksInMonth(lastYear, month) {
			if _, err := s.summarizer.Weekly(ctx, w[0], w[1]); err != nil {
				slog.Warn("yearly cascade: weekly summary failed", "iso_year", w[0], "iso_week", w[1], "error", err)
			}
		}
		if _, err := s.summarizer.Monthly(ctx, lastYear, month); err != nil {
			slog.Warn("yearly cascade: monthly summary failed", "year", lastYear, "month", month, "error", err)
		}
	}

	_, err := s.summarizer.Yearly(ctx, lastYear)
	s.record(ctx, jobYearly, started, err, fmt.Sprintf("yearly(%d)", lastYear))
}

// record logs the outcome, appends it to history, and sends a best-effort
// notification.
func (s *Scheduler) record(ctx context.Context, job string, started time.Time, err error, detail string) {
	event := Event{Job: job, StartedAt: started, FinishedAt: time.Now().UTC()}
	if err != nil {
		event.Status = EventError
		event.Message = err.Error()
		slog.Error("scheduler job failed", "job", job, "detail", detail, "error", err)
		s.notify(ctx, job, fmt.Sprintf("%s failed: %v", detail, err))
	} else {
		event.Status = EventOK
		event.Message = detail
		slog.Info("scheduler job completed", "job", job, "detail", detail)
		s.notify(ctx, job, fmt.Sprintf("%s completed", detail))
	}
	s.history.Record(event)
}
