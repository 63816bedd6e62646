// Package scheduler drives the Orchestrator and Summarizer on the four
// cron triggers: daily, weekly, monthly, and
// yearly. It is loss-tolerant by design — every job is best-effort,
// recording an event in its History and notifying through the configured
// driven.Notifier rather than propagating errors back to cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yongseopkim/workrecap/internal/application"
	"github.com/yongseopkim/workrecap/internal/config"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

const (
	jobDaily   = "daily"
	jobWeekly  = "weekly"
	jobMonthly = "monthly"
	jobYearly  = "yearly"
)

// Scheduler wires ScheduleConfig's four cron triggers to the Orchestrator
// and Summarizer. Status/History/Trigger answer even when Start was never
// called, answering the disabled-mode fallback below.
type Scheduler struct {
	cfg          *config.ScheduleConfig
	orchestrator *application.Orchestrator
	summarizer   *application.Summarizer
	notifier     driven.Notifier
	history      *History

	cron    *cron.Cron
	entries map[string]cron.EntryID
	running bool
}

// NewScheduler builds a Scheduler. It does not start any cron job — call
// Start to begin running enabled triggers.
func NewScheduler(cfg *config.ScheduleConfig, orchestrator *application.Orchestrator, summarizer *application.Summarizer, notifier driven.Notifier) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		summarizer:   summarizer,
		notifier:     notifier,
		history:      NewHistory(200),
		cron:         cron.New(),
		entries:      map[string]cron.EntryID{},
	}
}

// Start registers and starts every enabled trigger's cron entry.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Daily.Enabled {
		id, err := s.cron.AddFunc(s.cfg.Daily.CronSpec(), func() { s.runDaily(ctx) })
		if err != nil {
			return fmt.Errorf("register daily trigger: %w", err)
		}
		s.entries[jobDaily] = id
	}
	if s.cfg.Weekly.Enabled {
		id, err := s.cron.AddFunc(s.cfg.Weekly.CronSpec(), func() { s.runWeekly(ctx) })
		if err != nil {
			return fmt.Errorf("register weekly trigger: %w", err)
		}
		s.entries[jobWeekly] = id
	}
	if s.cfg.Monthly.Enabled {
		id, err := s.cron.AddFunc(s.cfg.Monthly.CronSpec(), func() { s.runMonthly(ctx) })
		if err != nil {
			return fmt.Errorf("register monthly trigger: %w", err)
		}
		s.entries[jobMonthly] = id
	}
	if s.cfg.Yearly.Enabled {
		id, err := s.cron.AddFunc(s.cfg.Yearly.CronSpec(), func() { s.runYearly(ctx) })
		if err != nil {
			return fmt.Errorf("register yearly trigger: %w", err)
		}
		s.entries[jobYearly] = id
	}
	s.cron.Start()
	s.running = true
	return nil
}

// Stop halts the cron loop and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.running = false
}

// EntryStatus reports one trigger's enabled/scheduled state.
type EntryStatus struct {
	Job     string     `json:"job"`
	Enabled bool       `json:"enabled"`
	Next    *time.Time `json:"next,omitempty"`
}

// Status reports whether the cron loop is running and each trigger's next
// scheduled fire time (nil if disabled). Answers regardless of whether
// Start has been called.
func (s *Scheduler) Status() (running bool, entries []EntryStatus) {
	triggers := []struct {
		name    string
		enabled bool
	}{
		{jobDaily, s.cfg.Daily.Enabled},
		{jobWeekly, s.cfg.Weekly.Enabled},
		{jobMonthly, s.cfg.Monthly.Enabled},
		{jobYearly, s.cfg.Yearly.Enabled},
	}
	for _, t := range triggers {
		es := EntryStatus{Job: t.name, Enabled: t.enabled}
		if id, ok := s.entries[t.name]; ok {
			next := s.cron.Entry(id).Next
			if !next.IsZero() {
				es.Next = &next
			}
		}
		entries = append(entries, es)
	}
	return s.running, entries
}

// History returns the recorded job events, oldest first.
func (s *Scheduler) History() []Event {
	return s.history.Snapshot()
}

// Trigger runs job ("daily", "weekly", "monthly", or "yearly")
// synchronously, regardless of whether its cron trigger is enabled —
// the disabled-mode fallback this type supports.
func (s *Scheduler) Trigger(ctx context.Context, job string) error {
	switch job {
	case jobDaily:
		s.runDaily(ctx)
	case jobWeekly:
		s.runWeekly(ctx)
	case jobMonthly:
		s.runMonthly(ctx)
	case jobYearly:
		s.runYearly(ctx)
	default:
		return fmt.Errorf("unknown scheduler job %q", job)
	}
	return nil
}

func (s *Scheduler) notify(ctx context.Context, event, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event, message); err != nil {
		slog.Warn("scheduler notification failed", "event", event, "error", err)
	}
}
