package application

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/filestore"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/statestore"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// fakeSearchClient is a scripted driven.SearchClient used to exercise the
// Fetcher without a real hosting API.
type fakeSearchClient struct {
	issuesByQuery   map[string][]model.PRRaw
	commitsByQuery  map[string][]model.CommitRaw
	prs             map[string]model.PRRaw // keyed by "repo#number", full enriched detail
	prFiles         map[string][]model.PRFile
	prComments      map[string][]model.PRComment
	prReviews       map[string][]model.PRReview
	issues          map[string]model.IssueRaw
	issueComments   map[string][]model.PRComment
}

func prKey(repo string, number int) string {
	return repo + "#" + strconv.Itoa(number)
}

func (c *fakeSearchClient) SearchIssues(ctx context.Context, query string, page, perPage int) ([]model.PRRaw, bool, error) {
	if page > 1 {
		return nil, false, nil
	}
	return c.issuesByQuery[query], false, nil
}

func (c *fakeSearchClient) SearchCommits(ctx context.Context, query string, page, perPage int) ([]model.CommitRaw, bool, error) {
	if page > 1 {
		return nil, false, nil
	}
	return c.commitsByQuery[query], false, nil
}

func (c *fakeSearchClient) GetPR(ctx context.Context, repo string, number int) (model.PRRaw, error) {
	return c.prs[prKey(repo, number)], nil
}

func (c *fakeSearchClient) GetPRFiles(ctx context.Context, repo string, number int) ([]model.PRFile, error) {
	return c.prFiles[prKey(repo, number)], nil
}

func (c *fakeSearchClient) GetPRComments(ctx context.Context, repo string, number int) ([]model.PRComment, error) {
	return c.prComments[prKey(repo, number)], nil
}

func (c *fakeSearchClient) GetPRReviews(ctx context.Context, repo string, number int) ([]model.PRReview, error) {
	return c.prReviews[prKey(repo, number)], nil
}

func (c *fakeSearchClient) GetCommit(ctx context.Context, repo, sha string) (model.CommitRaw, error) {
	return model.CommitRaw{}, nil
}

func (c *fakeSearchClient) GetIssue(ctx context.Context, repo string, number int) (model.IssueRaw, error) {
	return c.issues[prKey(repo, number)], nil
}

func (c *fakeSearchClient) GetIssueComments(ctx context.Context, repo string, number int) ([]model.PRComment, error) {
	return c.issueComments[prKey(repo, number)], nil
}

// fakePool lends a single fixed client, enough for sequential test paths.
type fakePool struct {
	client driven.SearchClient
}

func (p *fakePool) Acquire(ctx context.Context) (driven.SearchClient, error) {
	return p.client, nil
}

func (p *fakePool) Release(driven.SearchClient) {}

func newTestFetcher(t *testing.T, client driven.SearchClient) (*Fetcher, *filestore.Store) {
	t.Helper()
	dir := t.TempDir()
	store := filestore.NewStore(dir)
	f := NewFetcher(
		&fakePool{client: client},
		"testuser",
		store,
		statestore.NewDailyStateStore(dir+"/daily_state.json"),
		statestore.NewFailedDateStore(dir+"/failed_dates.json"),
		statestore.NewFetchProgressStore(dir+"/fetch_progress"),
		statestore.NewCheckpointStore(dir+"/checkpoints.json"),
		3,
	)
	return f, store
}

func TestFetcher_Fetch_DedupsPRAcrossSearchAxes(t *testing.T) {
	updatedAt := time.Date(2025, 2, 16, 10, 0, 0, 0, time.UTC)
	pr := model.PRRaw{Repo: "acme/widgets", Number: 1, APIURL: "https://api.example.com/pulls/1", Author: "testuser", UpdatedAt: updatedAt}

	client := &fakeSearchClient{
		issuesByQuery: map[string][]model.PRRaw{
			"author:testuser updated:2025-02-16..2025-02-16":      {pr},
			"reviewed-by:testuser updated:2025-02-16..2025-02-16": {pr},
			"commenter:testuser updated:2025-02-16..2025-02-16":   {pr},
		},
		prs: map[string]model.PRRaw{prKey("acme/widgets", 1): pr},
	}

	f, store := newTestFetcher(t, client)

	paths, err := f.Fetch(context.Background(), "2025-02-16", []SourceType{SourcePRs})

	require.NoError(t, err)
	prs, err := store.ReadPRs("2025-02-16")
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 1, prs[0].Number)
	assert.Contains(t, paths, "prs")
}

func TestFilterNoise_DropsBotEmptyAndApprovalOnly(t *testing.T) {
	comments := []model.PRComment{
		{Author: "dependabot[bot]", Body: "bump version"},
		{Author: "human", Body: "   "},
		{Author: "human", Body: "LGTM"},
		{Author: "human", Body: "+1"},
		{Author: "human", Body: "this needs a real review"},
	}

	out := filterNoise(comments)

	require.Len(t, out, 1)
	assert.Equal(t, "this needs a real review", out[0].Body)
}

func TestIsBotAuthor(t *testing.T) {
	assert.True(t, isBotAuthor("dependabot[bot]"))
	assert.True(t, isBotAuthor("renovate-bot"))
	assert.False(t, isBotAuthor("testuser"))
}
