// Package vectorsink provides a StorageSink that degrades gracefully when no
// vector backend is configured. It satisfies the same port as the SQLite
// relational sink so callers can wire either (or both) without branching.
package vectorsink

import (
	"context"
	"log/slog"

	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.StorageSink = (*NullSink)(nil)

// NullSink logs every write at debug level and otherwise does nothing. It is
// the default vector sink until a real embedding backend is configured;
// spec explicitly allows the vector mirror to be absent, so a silent no-op
// adapter is correct here rather than an error.
type NullSink struct {
	logger *slog.Logger
}

// NewNullSink creates a NullSink. A nil logger falls back to slog.Default().
func NewNullSink(logger *slog.Logger) *NullSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &NullSink{logger: logger}
}

func (s *NullSink) WriteActivities(ctx context.Context, date string, activities []model.Activity) error {
	s.logger.Debug("vector sink not configured, skipping activity mirror", "date", date, "count", len(activities))
	return nil
}

func (s *NullSink) WriteStats(ctx context.Context, date string, stats model.DailyStats) error {
	s.logger.Debug("vector sink not configured, skipping stats mirror", "date", date)
	return nil
}

func (s *NullSink) WriteSummary(ctx context.Context, period, key, markdown string) error {
	s.logger.Debug("vector sink not configured, skipping summary mirror", "period", period, "key", key)
	return nil
}
