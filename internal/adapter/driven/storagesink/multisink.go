// Package storagesink composes multiple driven.StorageSink implementations
// (relational, vector, ...) behind a single port so the Normalizer and
// Summarizer can write through one best-effort mirror without knowing how
// many backends are actually configured.
package storagesink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.StorageSink = (*MultiSink)(nil)

// MultiSink fans every write out to all configured sinks. Sinks are not
// required to agree with each other; spec treats cross-sink consistency as
// explicitly out of scope, so a failure on one sink is logged and does not
// stop the others from being attempted.
type MultiSink struct {
	sinks []driven.StorageSink
}

// New composes sinks into a single StorageSink. Nil entries are dropped.
func New(sinks ...driven.StorageSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) WriteActivities(ctx context.Context, date string, activities []model.Activity) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteActivities(ctx, date, activities); err != nil {
			slog.Warn("storage sink write failed", "sink", "activities", "date", date, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) WriteStats(ctx context.Context, date string, stats model.DailyStats) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteStats(ctx, date, stats); err != nil {
			slog.Warn("storage sink write failed", "sink", "stats", "date", date, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) WriteSummary(ctx context.Context, period, key, markdown string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteSummary(ctx, period, key, markdown); err != nil {
			slog.Warn("storage sink write failed", "sink", "summary", "period", period, "key", key, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
