package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

func makeActivity(date string, number int) model.Activity {
	ts, _ := time.Parse("2006-01-02", date)
	return model.Activity{
		Date:        date,
		Source:      "github",
		Kind:        model.KindPRAuthored,
		ExternalID:  number,
		Timestamp:   ts,
		Repo:        "octocat/hello-world",
		Title:       "Add README",
		URL:         "https://github.com/octocat/hello-world/pull/1",
		AutoSummary: "opened PR #1",
		Additions:   10,
		Deletions:   2,
	}
}

func TestActivitySink_WriteActivities_InsertsAndReplaces(t *testing.T) {
	db := setupTestDB(t)
	sink := NewActivitySink(db)
	ctx := context.Background()

	require.NoError(t, sink.WriteActivities(ctx, "2026-04-01", []model.Activity{
		makeActivity("2026-04-01", 1),
		makeActivity("2026-04-01", 2),
	}))

	var count int
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities WHERE date = ?`, "2026-04-01").Scan(&count))
	assert.Equal(t, 2, count)

	// Re-writing the date replaces the prior rows rather than appending.
	require.NoError(t, sink.WriteActivities(ctx, "2026-04-01", []model.Activity{
		makeActivity("2026-04-01", 3),
	}))
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities WHERE date = ?`, "2026-04-01").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestActivitySink_WriteStats_Upserts(t *testing.T) {
	db := setupTestDB(t)
	sink := NewActivitySink(db)
	ctx := context.Background()

	stats := model.DailyStats{Date: "2026-04-01", TotalAdditions: 5}
	require.NoError(t, sink.WriteStats(ctx, "2026-04-01", stats))

	stats.TotalAdditions = 9
	require.NoError(t, sink.WriteStats(ctx, "2026-04-01", stats))

	var payload string
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT payload FROM daily_stats WHERE date = ?`, "2026-04-01").Scan(&payload))
	assert.Contains(t, payload, `"total_additions":9`)
}

func TestActivitySink_WriteSummary_Upserts(t *testing.T) {
	db := setupTestDB(t)
	sink := NewActivitySink(db)
	ctx := context.Background()

	require.NoError(t, sink.WriteSummary(ctx, "daily", "2026-04-01", "# first"))
	require.NoError(t, sink.WriteSummary(ctx, "daily", "2026-04-01", "# second"))

	var markdown string
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT markdown FROM summaries WHERE period = ? AND key = ?`, "daily", "2026-04-01").Scan(&markdown))
	assert.Equal(t, "# second", markdown)
}
