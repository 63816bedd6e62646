package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/filestore"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/statestore"
	"github.com/yongseopkim/workrecap/internal/domain/model"
)

func newTestNormalizer(t *testing.T) (*Normalizer, *filestore.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := filestore.NewStore(dir)
	n := NewNormalizer(
		store,
		"testuser",
		nil, // no LLM router needed when enrich is false
		nil,
		statestore.NewDailyStateStore(dir+"/daily_state.json"),
		statestore.NewFailedDateStore(dir+"/failed_dates.json"),
		statestore.NewCheckpointStore(dir+"/checkpoints.json"),
		nil,
	)
	return n, store, dir
}

func TestNormalizer_SelfReviewExcluded(t *testing.T) {
	n, store, _ := newTestNormalizer(t)
	date := "2025-03-10"

	pr := model.PRRaw{
		Repo: "acme/widgets", Number: 5, Author: "testuser",
		Title: "Add feature", Body: "implements the thing",
		CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Reviews: []model.PRReview{
			{Author: "testuser", Body: "looks fine to me", SubmittedAt: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)},
		},
	}
	_, err := store.WritePRs(date, []model.PRRaw{pr})
	require.NoError(t, err)

	count, err := n.Normalize(context.Background(), date, false)
	require.NoError(t, err)

	activities, err := store.ReadActivities(date)
	require.NoError(t, err)
	require.Len(t, activities, count)

	for _, a := range activities {
		assert.NotEqual(t, model.KindPRReviewed, a.Kind, "reviewing one's own PR must not produce PR_REVIEWED")
	}
	assert.Len(t, activities, 1)
	assert.Equal(t, model.KindPRAuthored, activities[0].Kind)
}

func TestNormalizer_PRCommentedAggregatesIntoOneActivityPerDay(t *testing.T) {
	n, store, _ := newTestNormalizer(t)
	date := "2025-03-11"

	pr := model.PRRaw{
		Repo: "acme/widgets", Number: 7, Author: "someoneelse",
		Title: "Fix bug", UpdatedAt: time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC),
		Comments: []model.PRComment{
			{Author: "testuser", Body: "first comment", CreatedAt: time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC)},
			{Author: "testuser", Body: "second comment", CreatedAt: time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)},
			{Author: "otherperson", Body: "not mine", CreatedAt: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)},
		},
	}
	_, err := store.WritePRs(date, []model.PRRaw{pr})
	require.NoError(t, err)

	_, err = n.Normalize(context.Background(), date, false)
	require.NoError(t, err)

	activities, err := store.ReadActivities(date)
	require.NoError(t, err)

	var commented []model.Activity
	for _, a := range activities {
		if a.Kind == model.KindPRCommented {
			commented = append(commented, a)
		}
	}
	require.Len(t, commented, 1)
	assert.Len(t, commented[0].CommentBodies, 2)
	assert.Equal(t, 10, commented[0].Timestamp.Hour(), "activity anchors to the earliest same-day comment")
}

func TestNormalizer_PRTouchedOnLaterDayOmitsAuthoredActivity(t *testing.T) {
	n, store, _ := newTestNormalizer(t)
	date := "2025-03-15"

	// The PR was authored on 2025-03-10 but only shows up in the 2025-03-15
	// bucket because that is when it was last updated (a late review).
	pr := model.PRRaw{
		Repo: "acme/widgets", Number: 9, Author: "testuser",
		Title: "Add feature",
		CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC),
		Reviews: []model.PRReview{
			{Author: "otherperson", Body: "lgtm", SubmittedAt: time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)},
		},
		Comments: []model.PRComment{
			{Author: "testuser", Body: "thanks", CreatedAt: time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)},
		},
	}
	_, err := store.WritePRs(date, []model.PRRaw{pr})
	require.NoError(t, err)

	count, err := n.Normalize(context.Background(), date, false)
	require.NoError(t, err)

	activities, err := store.ReadActivities(date)
	require.NoError(t, err)
	require.Len(t, activities, count)

	// The PR was not created on 2025-03-15 and the only comment by testuser
	// is dated 2025-03-12, so nothing should be emitted for this date.
	assert.Empty(t, activities)
}

func TestComputeStats_Arithmetic(t *testing.T) {
	activities := []model.Activity{
		{Repo: "acme/widgets", Kind: model.KindPRAuthored, ExternalID: 1, Additions: 10, Deletions: 2},
		{Repo: "acme/widgets", Kind: model.KindPRReviewed, ExternalID: 2},
		{Repo: "acme/gadgets", Kind: model.KindCommit, Additions: 4, Deletions: 1, Title: "abc123"},
		{Repo: "acme/gadgets", Kind: model.KindIssueAuthored, ExternalID: 9},
	}

	stats := computeStats("2025-03-12", activities)

	assert.Equal(t, 14, stats.TotalAdditions)
	assert.Equal(t, 3, stats.TotalDeletions)
	assert.Equal(t, 1, stats.GitHub.AuthoredCount)
	assert.Equal(t, 1, stats.GitHub.ReviewedCount)
	assert.Equal(t, 1, stats.GitHub.CommitCount)
	assert.Equal(t, 1, stats.GitHub.IssueAuthoredCount)
	assert.Equal(t, []string{"acme/gadgets", "acme/widgets"}, stats.ReposTouched)
	assert.Equal(t, []string{"acme/widgets#1"}, stats.AuthoredPRs)
}

func TestAutoSummary_FallsBackToDirectoryHintWhenBodyEmpty(t *testing.T) {
	files := []string{"internal/a/x.go", "internal/b/y.go", "internal/c/z.go", "internal/d/w.go"}

	summary := autoSummary("COMMIT", "ignored title", "", "acme/widgets", 5, 1, files)

	assert.Contains(t, summary, "4개 파일 변경")
	assert.Contains(t, summary, "외")
	assert.Contains(t, summary, "(acme/widgets) +5/-1")
}

func TestAutoSummary_UsesBodyWhenPresent(t *testing.T) {
	summary := autoSummary("PR_AUTHORED", "Add feature", "some description", "acme/widgets", 3, 0, nil)

	assert.Equal(t, "PR_AUTHORED: Add feature (acme/widgets) +3/-0", summary)
}
