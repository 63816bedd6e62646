package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StorageSink = (*ActivitySink)(nil)

// ActivitySink is the SQLite implementation of the StorageSink port: a
// best-effort relational mirror of the activities, daily stats, and
// summaries the Normalizer/Summarizer already persist to the filesystem.
// Every indexed column is duplicated from the JSON payload so callers can
// query without deserializing, but the payload itself remains the source
// of truth for any field this mirror doesn't break out.
type ActivitySink struct {
	db *DB
}

// NewActivitySink creates an ActivitySink backed by the given DB.
func NewActivitySink(db *DB) *ActivitySink {
	return &ActivitySink{db: db}
}

// WriteActivities replaces date's activity rows with activities.
func (s *ActivitySink) WriteActivities(ctx context.Context, date string, activities []model.Activity) error {
	tx, err := s.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activities tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE date = ?`, date); err != nil {
		return fmt.Errorf("clear activities for %s: %w", date, err)
	}

	const insert = `
		INSERT INTO activities (
			date, source, kind, external_id, timestamp, repo, title, url,
			auto_summary, body, additions, deletions, change_summary, intent, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, source, kind, external_id, repo) DO UPDATE SET
			timestamp = excluded.timestamp,
			title = excluded.title,
			url = excluded.url,
			auto_summary = excluded.auto_summary,
			body = excluded.body,
			additions = excluded.additions,
			deletions = excluded.deletions,
			change_summary = excluded.change_summary,
			intent = excluded.intent,
			payload = excluded.payload
	`

	for _, a := range activities {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal activity %s#%d: %w", a.Repo, a.ExternalID, err)
		}
		_, err = tx.ExecContext(ctx, insert,
			a.Date, a.Source, string(a.Kind), a.ExternalID, a.Timestamp.UTC().Format(time.RFC3339),
			a.Repo, a.Title, a.URL, a.AutoSummary, a.Body, a.Additions, a.Deletions,
			a.ChangeSummary, a.Intent, string(payload),
		)
		if err != nil {
			return fmt.Errorf("insert activity %s#%d: %w", a.Repo, a.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activities tx: %w", err)
	}
	return nil
}

// WriteStats upserts date's DailyStats as a JSON payload.
func (s *ActivitySink) WriteStats(ctx context.Context, date string, stats model.DailyStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal daily stats %s: %w", date, err)
	}

	const query = `
		INSERT INTO daily_stats (date, payload) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET payload = excluded.payload
	`
	if _, err := s.db.Writer.ExecContext(ctx, query, date, string(payload)); err != nil {
		return fmt.Errorf("upsert daily stats %s: %w", date, err)
	}
	return nil
}

// WriteSummary upserts a rendered Markdown summary keyed by (period, key) —
// e.g. period="daily", key="2025-04-01", or period="weekly", key="2025-W10".
func (s *ActivitySink) WriteSummary(ctx context.Context, period, key, markdown string) error {
	const query = `
		INSERT INTO summaries (period, key, markdown, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(period, key) DO UPDATE SET markdown = excluded.markdown, updated_at = excluded.updated_at
	`
	if _, err := s.db.Writer.ExecContext(ctx, query, period, key, markdown, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upsert summary %s/%s: %w", period, key, err)
	}
	return nil
}
