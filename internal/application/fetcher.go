package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/filestore"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/statestore"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// SourceType is one of the three entity kinds the Fetcher searches for.
type SourceType string

const (
	SourcePRs     SourceType = "prs"
	SourceCommits SourceType = "commits"
	SourceIssues  SourceType = "issues"
)

// AllSources is the default set fetched when the caller requests no
// specific type.
var AllSources = []SourceType{SourcePRs, SourceCommits, SourceIssues}

const (
	searchPerPage  = 100
	maxSearchPages = 10 // GitHub's search API caps results at 1000.
)

var approvalOnlyRE = regexp.MustCompile(`(?i)^\s*(LGTM!?|\+1|:shipit:|Ship it!?)\s*$`)

func isBotAuthor(login string) bool {
	lower := strings.ToLower(login)
	return strings.HasSuffix(lower, "[bot]") || strings.HasSuffix(lower, "-bot")
}

// filterNoise drops bot-authored comments, empty-body comments, and
// one-line approvals.
func filterNoise(comments []model.PRComment) []model.PRComment {
	out := make([]model.PRComment, 0, len(comments))
	for _, c := range comments {
		if isBotAuthor(c.Author) {
			continue
		}
		if strings.TrimSpace(c.Body) == "" {
			continue
		}
		if approvalOnlyRE.MatchString(c.Body) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ProgressFunc reports per-date outcomes as a range operation completes them.
type ProgressFunc func(model.DateOutcome)

// Fetcher searches, enriches, and persists a user's raw PR/commit/issue
// activity for a single date or an arbitrary range.
type Fetcher struct {
	pool       clientPool
	username   string
	store      *filestore.Store
	dailyState driven.DailyStateStore
	failed     driven.FailedDateStore
	progress   driven.FetchProgressStore
	checkpoint driven.CheckpointStore
	maxRetries int
}

// clientPool is the subset of github.Pool's API the Fetcher depends on,
// named independently so the application layer does not import the github
// adapter package directly.
type clientPool interface {
	Acquire(ctx context.Context) (driven.SearchClient, error)
	Release(driven.SearchClient)
}

// NewFetcher builds a Fetcher. maxRetries bounds how many failed attempts a
// date may accumulate in the Failed-Date Store before it is excluded from
// automatic retry.
func NewFetcher(
	pool clientPool,
	username string,
	store *filestore.Store,
	dailyState driven.DailyStateStore,
	failed driven.FailedDateStore,
	progress driven.FetchProgressStore,
	checkpoint driven.CheckpointStore,
	maxRetries int,
) *Fetcher {
	return &Fetcher{
		pool:       pool,
		username:   username,
		store:      store,
		dailyState: dailyState,
		failed:     failed,
		progress:   progress,
		checkpoint: checkpoint,
		maxRetries: maxRetries,
	}
}

func containsSource(types []SourceType, t SourceType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// Fetch searches, enriches, and persists date's raw activity for the
// requested source types (AllSources when types is empty), returning the
// path written for each type actually fetched.
func (f *Fetcher) Fetch(ctx context.Context, date string, types []SourceType) (map[string]string, error) {
	if len(types) == 0 {
		types = AllSources
	}

	client, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, &model.FetchError{Date: date, Err: err}
	}
	defer f.pool.Release(client)

	paths := map[string]string{}

	if containsSource(types, SourcePRs) {
		prs, err := f.fetchPRs(ctx, client, date, date)
		if err != nil {
			return nil, &model.FetchError{Date: date, Err: err}
		}
		path, err := f.store.WritePRs(date, prs)
		if err != nil {
			return nil, &model.FetchError{Date: date, Err: err}
		}
		paths["prs"] = path
	}

	if containsSource(types, SourceCommits) {
		commits := f.fetchCommitsTolerant(ctx, client, date, date)
		path, err := f.store.WriteCommits(date, commits)
		if err != nil {
			return nil, &model.FetchError{Date: date, Err: err}
		}
		paths["commits"] = path
	}

	if containsSource(types, SourceIssues) {
		issues, err := f.fetchIssues(ctx, client, date, date)
		if err != nil {
			return nil, &model.FetchError{Date: date, Err: err}
		}
		path, err := f.store.WriteIssues(date, issues)
		if err != nil {
			return nil, &model.FetchError{Date: date, Err: err}
		}
		paths["issues"] = path
	}

	return paths, nil
}

// searchIssuesAxis pages through query, returning all matched issue/PR
// search results. It logs and stops (without error) once the search API's
// 1000-result cap is hit.
func (f *Fetcher) searchIssuesAxis(ctx context.Context, client driven.SearchClient, query string) ([]model.PRRaw, error) {
	var out []model.PRRaw
	for page := 1; page <= maxSearchPages; page++ {
		batch, hasMore, err := client.SearchIssues(ctx, query, page, searchPerPage)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if !hasMore {
			return out, nil
		}
		if page == maxSearchPages {
			slog.Warn("search result truncated at API page cap", "query", query)
		}
	}
	return out, nil
}

func (f *Fetcher) searchCommitsAxis(ctx context.Context, client driven.SearchClient, query string) ([]model.CommitRaw, error) {
	var out []model.CommitRaw
	for page := 1; page <= maxSearchPages; page++ {
		batch, hasMore, err := client.SearchCommits(ctx, query, page, searchPerPage)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if !hasMore {
			return out, nil
		}
		if page == maxSearchPages {
			slog.Warn("commit search result truncated at API page cap", "query", query)
		}
	}
	return out, nil
}

// fetchPRs runs the three PR search axes over [since, until], dedups by API
// URL, and enriches each result.
func (f *Fetcher) fetchPRs(ctx context.Context, client driven.SearchClient, since, until string) ([]model.PRRaw, error) {
	dedup := map[string]model.PRRaw{}

	authorQuery := fmt.Sprintf("author:%s updated:%s..%s", f.username, since, until)
	authorHits, err := f.searchIssuesAxis(ctx, client, authorQuery)
	if err != nil {
		return nil, fmt.Errorf("search prs (author axis): %w", err)
	}
	for _, pr := range authorHits {
		dedup[pr.APIURL] = pr
	}

	reviewedQuery := fmt.Sprintf("reviewed-by:%s updated:%s..%s", f.username, since, until)
	reviewedHits, err := f.searchIssuesAxis(ctx, client, reviewedQuery)
	if err != nil && !isUnprocessableEntity(err) {
		return nil, fmt.Errorf("search prs (reviewed-by axis): %w", err)
	}
	for _, pr := range reviewedHits {
		dedup[pr.APIURL] = pr
	}

	commenterQuery := fmt.Sprintf("commenter:%s updated:%s..%s", f.username, since, until)
	commenterHits, err := f.searchIssuesAxis(ctx, client, commenterQuery)
	if err != nil {
		return nil, fmt.Errorf("search prs (commenter axis): %w", err)
	}
	for _, pr := range commenterHits {
		dedup[pr.APIURL] = pr
	}

	out := make([]model.PRRaw, 0, len(dedup))
	for _, pr := range dedup {
		enriched, ok := f.enrichPR(ctx, client, pr)
		if !ok {
			continue
		}
		out = append(out, enriched)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].APIURL < out[j].APIURL })
	return out, nil
}

// enrichPR fetches the PR's full detail, files, comments, and reviews. A
// failure is logged and the entity is skipped — it never fails the date.
func (f *Fetcher) enrichPR(ctx context.Context, client driven.SearchClient, pr model.PRRaw) (model.PRRaw, bool) {
	full, err := client.GetPR(ctx, pr.Repo, pr.Number)
	if err != nil {
		slog.Warn("enrich pr failed, skipping", "repo", pr.Repo, "number", pr.Number, "error", err)
		return model.PRRaw{}, false
	}

	files, err := client.GetPRFiles(ctx, pr.Repo, pr.Number)
	if err != nil {
		slog.Warn("enrich pr files failed, skipping", "repo", pr.Repo, "number", pr.Number, "error", err)
		return model.PRRaw{}, false
	}
	full.Files = files

	comments, err := client.GetPRComments(ctx, pr.Repo, pr.Number)
	if err != nil {
		slog.Warn("enrich pr comments failed, skipping", "repo", pr.Repo, "number", pr.Number, "error", err)
		return model.PRRaw{}, false
	}
	full.Comments = filterNoise(comments)

	reviews, err := client.GetPRReviews(ctx, pr.Repo, pr.Number)
	if err != nil {
		slog.Warn("enrich pr reviews failed, skipping", "repo", pr.Repo, "number", pr.Number, "error", err)
		return model.PRRaw{}, false
	}
	full.Reviews = reviews

	return full, true
}

// fetchCommitsTolerant runs the commit search axis and enriches each hit.
// The whole commit path tolerates an unsupported-endpoint failure by
// logging and returning an empty slice.
func (f *Fetcher) fetchCommitsTolerant(ctx context.Context, client driven.SearchClient, since, until string) []model.CommitRaw {
	query := fmt.Sprintf("author:%s committer-date:%s..%s", f.username, since, until)
	hits, err := f.searchCommitsAxis(ctx, client, query)
	if err != nil {
		slog.Warn("commit search unsupported or failed, returning no commits", "error", err)
		return nil
	}

	out := make([]model.CommitRaw, 0, len(hits))
	for _, c := range hits {
		full, err := client.GetCommit(ctx, c.Repo, c.SHA)
		if err != nil {
			slog.Warn("enrich commit failed, skipping", "repo", c.Repo, "sha", c.SHA, "error", err)
			continue
		}
		out = append(out, full)
	}
	return out
}

// fetchIssues runs the two issue search axes over [since, until], dedups by
// API URL, and enriches each result.
func (f *Fetcher) fetchIssues(ctx context.Context, client driven.SearchClient, since, until string) ([]model.IssueRaw, error) {
	dedup := map[string]model.IssueRaw{}

	authorQuery := fmt.Sprintf("author:%s type:issue updated:%s..%s", f.username, since, until)
	authorHits, err := f.searchIssuesAxisAsIssues(ctx, client, authorQuery)
	if err != nil {
		return nil, fmt.Errorf("search issues (author axis): %w", err)
	}
	for _, issue := range authorHits {
		dedup[issue.APIURL] = issue
	}

	commenterQuery := fmt.Sprintf("commenter:%s type:issue updated:%s..%s", f.username, since, until)
	commenterHits, err := f.searchIssuesAxisAsIssues(ctx, client, commenterQuery)
	if err != nil {
		return nil, fmt.Errorf("search issues (commenter axis): %w", err)
	}
	for _, issue := range commenterHits {
		dedup[issue.APIURL] = issue
	}

	out := make([]model.IssueRaw, 0, len(dedup))
	for _, issue := range dedup {
		enriched, ok := f.enrichIssue(ctx, client, issue)
		if !ok {
			continue
		}
		out = append(out, enriched)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].APIURL < out[j].APIURL })
	return out, nil
}

// searchIssuesAxisAsIssues reuses SearchIssues (the search API returns both
// PRs and issues through the same endpoint) but the type:issue qualifier
// means no result carries pull-request links; GetIssue re-fetches the
// canonical issue shape during enrichment, so only the repo/number/API URL
// identity from the search hit is used here.
func (f *Fetcher) searchIssuesAxisAsIssues(ctx context.Context, client driven.SearchClient, query string) ([]model.IssueRaw, error) {
	prHits, err := f.searchIssuesAxis(ctx, client, query)
	if err != nil {
		return nil, err
	}
	out := make([]model.IssueRaw, 0, len(prHits))
	for _, pr := range prHits {
		out = append(out, model.IssueRaw{Repo: pr.Repo, Number: pr.Number, APIURL: pr.APIURL, HTMLURL: pr.HTMLURL})
	}
	return out, nil
}

func (f *Fetcher) enrichIssue(ctx context.Context, client driven.SearchClient, issue model.IssueRaw) (model.IssueRaw, bool) {
	full, err := client.GetIssue(ctx, issue.Repo, issue.Number)
	if err != nil {
		slog.Warn("enrich issue failed, skipping", "repo", issue.Repo, "number", issue.Number, "error", err)
		return model.IssueRaw{}, false
	}

	comments, err := client.GetIssueComments(ctx, issue.Repo, issue.Number)
	if err != nil {
		slog.Warn("enrich issue comments failed, skipping", "repo", issue.Repo, "number", issue.Number, "error", err)
		return model.IssueRaw{}, false
	}
	full.Comments = filterNoise(comments)

	return full, true
}

func isUnprocessableEntity(err error) bool {
	return err != nil && strings.Contains(err.Error(), "422")
}

// FetchRange partitions [since, until] into calendar-month chunks, reuses
// or rebuilds each chunk's cached search results via the Fetch-Progress
// Store, determines which dates within the chunk are stale or retryable,
// and enriches+persists each such date — in parallel across a Client Pool
// when maxWorkers > 1.
func (f *Fetcher) FetchRange(ctx context.Context, since, until string, types []SourceType, force bool, progressFn ProgressFunc, maxWorkers int) ([]model.DateOutcome, error) {
	if len(types) == 0 {
		types = AllSources
	}
	sinceT, err := parseISODate(since)
	if err != nil {
		return nil, err
	}
	untilT, err := parseISODate(until)
	if err != nil {
		return nil, err
	}
	if untilT.Before(sinceT) {
		return nil, fmt.Errorf("until %q is before since %q", until, since)
	}

	var outcomes []model.DateOutcome
	for _, chunk := range monthChunks(sinceT, untilT) {
		chunkOutcomes, err := f.fetchChunk(ctx, chunk, types, force, maxWorkers)
		if err != nil {
			return nil, err
		}
		for _, o := range chunkOutcomes {
			if progressFn != nil {
				progressFn(o)
			}
			outcomes = append(outcomes, o)
		}
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Date < outcomes[j].Date })
	return outcomes, nil
}

func (f *Fetcher) fetchChunk(ctx context.Context, chunk monthChunk, types []SourceType, force bool, maxWorkers int) ([]model.DateOutcome, error) {
	client, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	chunkProgress, hit := f.progress.Get(chunk.key)
	if !hit {
		chunkProgress = driven.ChunkProgress{PRs: map[string]model.PRRaw{}, Issues: map[string]model.IssueRaw{}}
		if containsSource(types, SourcePRs) {
			prs, err := f.fetchPRsRaw(ctx, client, chunk.since, chunk.until)
			if err != nil {
				f.pool.Release(client)
				return nil, err
			}
			for _, pr := range prs {
				chunkProgress.PRs[pr.APIURL] = pr
			}
		}
		if containsSource(types, SourceCommits) {
			chunkProgress.Commits = f.fetchCommitsTolerant(ctx, client, chunk.since, chunk.until)
		}
		if containsSource(types, SourceIssues) {
			issues, err := f.fetchIssuesRaw(ctx, client, chunk.since, chunk.until)
			if err != nil {
				f.pool.Release(client)
				return nil, err
			}
			for _, issue := range issues {
				chunkProgress.Issues[issue.APIURL] = issue
			}
		}
		if err := f.progress.Save(chunk.key, chunkProgress); err != nil {
			slog.Warn("save fetch progress failed", "chunk", chunk.key, "error", err)
		}
	}
	f.pool.Release(client)

	byDatePRs := bucketPRsByDate(chunkProgress.PRs)
	byDateCommits := bucketCommitsByDate(chunkProgress.Commits)
	byDateIssues := bucketIssuesByDate(chunkProgress.Issues)

	chunkDates := datesBetween(mustParseISODate(chunk.since), mustParseISODate(chunk.until))
	datesToProcess := f.datesToProcess(chunkDates, force)

	outcomes := f.processDates(ctx, datesToProcess, types, byDatePRs, byDateCommits, byDateIssues, maxWorkers)

	if err := f.progress.Clear(chunk.key); err != nil {
		slog.Warn("clear fetch progress failed", "chunk", chunk.key, "error", err)
	}

	return outcomes, nil
}

func mustParseISODate(date string) time.Time {
	t, err := parseISODate(date)
	if err != nil {
		panic(err) // chunk bounds are always produced by monthChunks/datesBetween
	}
	return t
}

// fetchPRsRaw runs the three PR search axes without enrichment, for
// caching into the Fetch-Progress Store.
func (f *Fetcher) fetchPRsRaw(ctx context.Context, client driven.SearchClient, since, until string) ([]model.PRRaw, error) {
	var out []model.PRRaw

	authorHits, err := f.searchIssuesAxis(ctx, client, fmt.Sprintf("author:%s updated:%s..%s", f.username, since, until))
	if err != nil {
		return nil, fmt.Errorf("search prs (author axis): %w", err)
	}
	out = append(out, authorHits...)

	reviewedHits, err := f.searchIssuesAxis(ctx, client, fmt.Sprintf("reviewed-by:%s updated:%s..%s", f.username, since, until))
	if err != nil && !isUnprocessableEntity(err) {
		return nil, fmt.Errorf("search prs (reviewed-by axis): %w", err)
	}
	out = append(out, reviewedHits...)

	commenterHits, err := f.searchIssuesAxis(ctx, client, fmt.Sprintf("commenter:%s updated:%s..%s", f.username, since, until))
	if err != nil {
		return nil, fmt.Errorf("search prs (commenter axis): %w", err)
	}
	out = append(out, commenterHits...)

	return out, nil
}

// fetchIssuesRaw runs the two issue search axes without enrichment.
func (f *Fetcher) fetchIssuesRaw(ctx context.Context, client driven.SearchClient, since, until string) ([]model.IssueRaw, error) {
	var out []model.IssueRaw

	authorHits, err := f.searchIssuesAxisAsIssues(ctx, client, fmt.Sprintf("author:%s type:issue updated:%s..%s", f.username, since, until))
	if err != nil {
		return nil, fmt.Errorf("search issues (author axis): %w", err)
	}
	out = append(out, authorHits...)

	commenterHits, err := f.searchIssuesAxisAsIssues(ctx, client, fmt.Sprintf("commenter:%s type:issue updated:%s..%s", f.username, since, until))
	if err != nil {
		return nil, fmt.Errorf("search issues (commenter axis): %w", err)
	}
	out = append(out, commenterHits...)

	return out, nil
}

func bucketPRsByDate(prs map[string]model.PRRaw) map[string][]model.PRRaw {
	out := map[string][]model.PRRaw{}
	for _, pr := range prs {
		date := formatISODate(pr.UpdatedAt)
		out[date] = append(out[date], pr)
	}
	return out
}

func bucketCommitsByDate(commits []model.CommitRaw) map[string][]model.CommitRaw {
	out := map[string][]model.CommitRaw{}
	for _, c := range commits {
		date := formatISODate(c.CommittedAt)
		out[date] = append(out[date], c)
	}
	return out
}

func bucketIssuesByDate(issues map[string]model.IssueRaw) map[string][]model.IssueRaw {
	out := map[string][]model.IssueRaw{}
	for _, issue := range issues {
		date := formatISODate(issue.UpdatedAt)
		out[date] = append(out[date], issue)
	}
	return out
}

// datesToProcess computes the dates to (re)fetch: those
// those in the chunk that are either fetch-stale or retryable-failed, minus
// permanently-exhausted ones — unless force requests all of them.
func (f *Fetcher) datesToProcess(chunkDates []string, force bool) []string {
	if force {
		return chunkDates
	}
	stale := f.dailyState.StaleDates(driven.PhaseFetch, chunkDates)
	retryable := f.failed.RetryableDates(chunkDates, f.maxRetries)
	exhausted := map[string]bool{}
	for _, d := range f.failed.ExhaustedDates(f.maxRetries) {
		exhausted[d] = true
	}

	seen := map[string]bool{}
	var out []string
	add := func(d string) {
		if exhausted[d] || seen[d] {
			return
		}
		seen[d] = true
		out = append(out, d)
	}
	for _, d := range stale {
		add(d)
	}
	for _, d := range retryable {
		add(d)
	}
	sort.Strings(out)
	return out
}

// processDates enriches and persists each of dates from the already-cached
// chunk buckets, in parallel across maxWorkers client-pool slots when
// maxWorkers > 1. A date's failure is isolated: it is recorded in the
// Failed-Date Store and reported as status "failed"; other dates continue.
func (f *Fetcher) processDates(
	ctx context.Context,
	dates []string,
	types []SourceType,
	byDatePRs map[string][]model.PRRaw,
	byDateCommits map[string][]model.CommitRaw,
	byDateIssues map[string][]model.IssueRaw,
	maxWorkers int,
) []model.DateOutcome {
	outcomes := make([]model.DateOutcome, len(dates))

	process := func(i int) {
		date := dates[i]
		outcomes[i] = f.processDate(ctx, date, types, byDatePRs[date], byDateCommits[date], byDateIssues[date])
	}

	if maxWorkers <= 1 {
		for i := range dates {
			process(i)
		}
		return outcomes
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i := range dates {
		i := i
		g.Go(func() error {
			process(i)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// processDate enriches one date's already-searched raw entities, persists
// them, and updates the Daily-State and Checkpoint stores on success or the
// Failed-Date Store on failure.
func (f *Fetcher) processDate(ctx context.Context, date string, types []SourceType, prs []model.PRRaw, commits []model.CommitRaw, issues []model.IssueRaw) model.DateOutcome {
	client, err := f.pool.Acquire(ctx)
	if err != nil {
		return f.recordFailure(date, err)
	}
	defer f.pool.Release(client)

	if containsSource(types, SourcePRs) {
		enriched := make([]model.PRRaw, 0, len(prs))
		for _, pr := range prs {
			if e, ok := f.enrichPR(ctx, client, pr); ok {
				enriched = append(enriched, e)
			}
		}
		if _, err := f.store.WritePRs(date, enriched); err != nil {
			return f.recordFailure(date, err)
		}
	}
	if containsSource(types, SourceCommits) {
		enriched := make([]model.CommitRaw, 0, len(commits))
		for _, c := range commits {
			full, err := client.GetCommit(ctx, c.Repo, c.SHA)
			if err != nil {
				slog.Warn("enrich commit failed, skipping", "repo", c.Repo, "sha", c.SHA, "error", err)
				continue
			}
			enriched = append(enriched, full)
		}
		if _, err := f.store.WriteCommits(date, enriched); err != nil {
			return f.recordFailure(date, err)
		}
	}
	if containsSource(types, SourceIssues) {
		enriched := make([]model.IssueRaw, 0, len(issues))
		for _, issue := range issues {
			if e, ok := f.enrichIssue(ctx, client, issue); ok {
				enriched = append(enriched, e)
			}
		}
		if _, err := f.store.WriteIssues(date, enriched); err != nil {
			return f.recordFailure(date, err)
		}
	}

	now := time.Now().UTC()
	if err := f.dailyState.SetTimestamp(driven.PhaseFetch, date, now); err != nil {
		slog.Warn("set daily state failed", "date", date, "error", err)
	}
	if err := f.checkpoint.Update(driven.CheckpointLastFetch, date); err != nil {
		slog.Warn("update checkpoint failed", "date", date, "error", err)
	}
	if err := f.failed.RecordSuccess(date, driven.PhaseFetch); err != nil {
		slog.Warn("clear failed-date entry failed", "date", date, "error", err)
	}

	return model.DateOutcome{Date: date, Status: model.OutcomeSuccess}
}

func (f *Fetcher) recordFailure(date string, err error) model.DateOutcome {
	permanent := isPermanentFetchError(err)
	if recErr := f.failed.RecordFailure(date, driven.PhaseFetch, err, permanent); recErr != nil {
		slog.Warn("record failed-date entry failed", "date", date, "error", recErr)
	}
	return model.DateOutcome{Date: date, Status: model.OutcomeFailed, Error: err.Error(), Permanent: permanent}
}

func isPermanentFetchError(err error) bool {
	return statestore.IsPermanentError(err.Error())
}
