package driven

import (
	"context"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

// StorageSink is a best-effort, write-only mirror of pipeline output. Both
// the relational and vector implementations satisfy this port; callers must
// treat every error as a model.StorageError to be logged, never propagated.
type StorageSink interface {
	WriteActivities(ctx context.Context, date string, activities []model.Activity) error
	WriteStats(ctx context.Context, date string, stats model.DailyStats) error
	WriteSummary(ctx context.Context, period, key, markdown string) error
}

// Notifier delivers best-effort scheduler event notifications (Telegram or
// log). A failure to notify is logged and never blocks the scheduler.
type Notifier interface {
	Notify(ctx context.Context, event string, message string) error
}
