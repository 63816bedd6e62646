package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/filestore"
	"github.com/yongseopkim/workrecap/internal/adapter/driven/prompt"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// EnrichTemplateFallback is the built-in enrich.md body registered with the
// prompt.Loader when prompts/enrich.md is absent from disk.
const EnrichTemplateFallback = `You summarize software engineering activity for a changelog. For each
numbered activity below, reply with a strict JSON array of objects of
exactly this shape, in the same order: {"index": <int>, "change_summary":
"<one sentence>", "intent": "<feature|fix|refactor|docs|chore|other>"}.
Do not include any other text.
<!-- SPLIT -->
{{range .Activities}}{{.Index}}. [{{.Kind}}] {{.Title}} ({{.Repo}})
{{.Body}}
{{end}}`

// Normalizer converts a date's raw fetched data into Activities, computes
// DailyStats, and optionally enriches each activity with an LLM-generated
// change summary and intent classification.
type Normalizer struct {
	store      *filestore.Store
	username   string
	router     *LLMRouter
	prompts    *prompt.Loader
	dailyState driven.DailyStateStore
	failed     driven.FailedDateStore
	checkpoint driven.CheckpointStore
	sink       driven.StorageSink // best-effort, may be nil
}

// NewNormalizer builds a Normalizer. sink may be nil to skip the best-effort
// relational/vector mirror.
func NewNormalizer(
	store *filestore.Store,
	username string,
	router *LLMRouter,
	prompts *prompt.Loader,
	dailyState driven.DailyStateStore,
	failed driven.FailedDateStore,
	checkpoint driven.CheckpointStore,
	sink driven.StorageSink,
) *Normalizer {
	return &Normalizer{
		store:      store,
		username:   username,
		router:     router,
		prompts:    prompts,
		dailyState: dailyState,
		failed:     failed,
		checkpoint: checkpoint,
		sink:       sink,
	}
}

// Normalize converts date's raw data into Activities and DailyStats,
// optionally enriching via the LLM router when enrich is true. It returns
// the number of activities written.
func (n *Normalizer) Normalize(ctx context.Context, date string, enrich bool) (int, error) {
	prs, err := n.store.ReadPRs(date)
	if err != nil {
		return 0, &model.NormalizeError{Date: date, Err: err}
	}
	commits, err := n.store.ReadCommits(date)
	if err != nil {
		return 0, &model.NormalizeError{Date: date, Err: err}
	}
	issues, err := n.store.ReadIssues(date)
	if err != nil {
		return 0, &model.NormalizeError{Date: date, Err: err}
	}

	activities := n.buildActivities(date, prs, commits, issues)

	if enrich && len(activities) > 0 {
		if err := n.enrich(ctx, activities); err != nil {
			slog.Warn("enrichment failed, continuing without it", "date", date, "error", err)
		}
	}

	sort.Slice(activities, func(i, j int) bool { return activities[i].Timestamp.Before(activities[j].Timestamp) })

	if _, err := n.store.WriteActivities(date, activities); err != nil {
		return 0, &model.NormalizeError{Date: date, Err: err}
	}

	stats := computeStats(date, activities)
	if _, err := n.store.WriteStats(date, stats); err != nil {
		return 0, &model.NormalizeError{Date: date, Err: err}
	}

	if n.sink != nil {
		if err := n.sink.WriteActivities(ctx, date, activities); err != nil {
			slog.Warn("storage sink write failed", "op", "activities", "date", date, "error", err)
		}
		if err := n.sink.WriteStats(ctx, date, stats); err != nil {
			slog.Warn("storage sink write failed", "op", "stats", "date", date, "error", err)
		}
	}

	if err := n.dailyState.SetTimestamp(driven.PhaseNormalize, date, time.Now().UTC()); err != nil {
		return 0, &model.NormalizeError{Date: date, Err: err}
	}
	if err := n.checkpoint.Update(driven.CheckpointLastNormalize, date); err != nil {
		return 0, &model.NormalizeError{Date: date, Err: err}
	}
	if err := n.failed.RecordSuccess(date, driven.PhaseNormalize); err != nil {
		return 0, &model.NormalizeError{Date: date, Err: err}
	}

	return len(activities), nil
}

// buildActivities applies the conversion rules: a case-insensitive login
// match against n.username, self-review exclusion, one PR_REVIEWED per PR
// per day, and PR_COMMENTED/ISSUE_COMMENTED aggregation keyed by the
// earliest same-day comment timestamp. A raw entity is bucketed under a
// date once it is merely touched that day (PRs/issues key off their
// updated-at), so every candidate sub-event's own timestamp is checked
// against date before it is emitted — without that check, a PR authored on
// one day but updated on another would surface PR_AUTHORED under the wrong
// day, or twice.
func (n *Normalizer) buildActivities(date string, prs []model.PRRaw, commits []model.CommitRaw, issues []model.IssueRaw) []model.Activity {
	var out []model.Activity

	for _, pr := range prs {
		if strings.EqualFold(pr.Author, n.username) && matchesDate(pr.CreatedAt, date) {
			out = append(out, n.prAuthoredActivity(date, pr))
		}

		if review, ok := reviewOnDate(pr, n.username, date); ok {
			out = append(out, n.prReviewedActivity(date, pr, review))
		}

		if comments, earliest, ok := commentsOnDate(pr.Comments, n.username, pr.Author, date); ok {
			out = append(out, n.prCommentedActivity(date, pr, comments, earliest))
		}
	}

	for _, c := range commits {
		if strings.EqualFold(c.Author, n.username) && matchesDate(c.CommittedAt, date) {
			out = append(out, n.commitActivity(date, c))
		}
	}

	for _, issue := range issues {
		if strings.EqualFold(issue.Author, n.username) && matchesDate(issue.CreatedAt, date) {
			out = append(out, n.issueAuthoredActivity(date, issue))
		}
		if comments, earliest, ok := commentsOnDate(issue.Comments, n.username, issue.Author, date); ok {
			out = append(out, n.issueCommentedActivity(date, issue, comments, earliest))
		}
	}

	return out
}

// matchesDate reports whether ts falls on date (YYYY-MM-DD, UTC).
func matchesDate(ts time.Time, date string) bool {
	return ts.UTC().Format("2006-01-02") == date
}

// reviewOnDate returns the first review submitted by username on pr whose
// submission date matches date, excluding self-review (reviewing one's own
// PR never counts).
func reviewOnDate(pr model.PRRaw, username, date string) (model.PRReview, bool) {
	if strings.EqualFold(pr.Author, username) {
		return model.PRReview{}, false
	}
	for _, r := range pr.Reviews {
		if strings.EqualFold(r.Author, username) && matchesDate(r.SubmittedAt, date) {
			return r, true
		}
	}
	return model.PRReview{}, false
}

// commentsOnDate returns every comment by username whose creation date
// matches date (excluding self-comments on one's own authored entity),
// along with the earliest timestamp among them.
func commentsOnDate(comments []model.PRComment, username, entityAuthor, date string) ([]model.PRComment, time.Time, bool) {
	if strings.EqualFold(entityAuthor, username) {
		return nil, time.Time{}, false
	}
	var mine []model.PRComment
	var earliest time.Time
	for _, c := range comments {
		if !strings.EqualFold(c.Author, username) || !matchesDate(c.CreatedAt, date) {
			continue
		}
		mine = append(mine, c)
		if earliest.IsZero() || c.CreatedAt.Before(earliest) {
			earliest = c.CreatedAt
		}
	}
	if len(mine) == 0 {
		return nil, time.Time{}, false
	}
	return mine, earliest, true
}

func (n *Normalizer) prAuthoredActivity(date string, pr model.PRRaw) model.Activity {
	additions, deletions, files := sumPRFiles(pr.Files)
	a := model.Activity{
		Date:       date,
		Source:     "github",
		Kind:       model.KindPRAuthored,
		ExternalID: pr.Number,
		Timestamp:  pr.CreatedAt.UTC(),
		Repo:       pr.Repo,
		Title:      pr.Title,
		URL:        pr.HTMLURL,
		Body:       pr.Body,
		Files:      files,
		Additions:  additions,
		Deletions:  deletions,
		Labels:     pr.Labels,
		EvidenceURLs: []string{pr.HTMLURL},
	}
	a.AutoSummary = autoSummary(string(a.Kind), pr.Title, pr.Body, pr.Repo, additions, deletions, files)
	return a
}

func (n *Normalizer) prReviewedActivity(date string, pr model.PRRaw, review model.PRReview) model.Activity {
	a := model.Activity{
		Date:         date,
		Source:       "github",
		Kind:         model.KindPRReviewed,
		ExternalID:   pr.Number,
		Timestamp:    review.SubmittedAt.UTC(),
		Repo:         pr.Repo,
		Title:        pr.Title,
		URL:          pr.HTMLURL,
		ReviewBodies: []string{review.Body},
		EvidenceURLs: []string{review.URL},
	}
	a.AutoSummary = autoSummary(string(a.Kind), pr.Title, review.Body, pr.Repo, 0, 0, nil)
	return a
}

func (n *Normalizer) prCommentedActivity(date string, pr model.PRRaw, comments []model.PRComment, earliest time.Time) model.Activity {
	bodies := make([]string, 0, len(comments))
	contexts := make([]model.CommentContext, 0, len(comments))
	urls := make([]string, 0, len(comments))
	for _, c := range comments {
		bodies = append(bodies, c.Body)
		urls = append(urls, c.URL)
		if c.Path != "" {
			contexts = append(contexts, model.CommentContext{Path: c.Path, Line: c.Line, DiffHunk: c.DiffHunk, Body: c.Body})
		}
	}
	a := model.Activity{
		Date:            date,
		Source:          "github",
		Kind:            model.KindPRCommented,
		ExternalID:      pr.Number,
		Timestamp:       earliest.UTC(),
		Repo:            pr.Repo,
		Title:           pr.Title,
		URL:             pr.HTMLURL,
		CommentBodies:   bodies,
		CommentContexts: contexts,
		EvidenceURLs:    urls,
	}
	a.AutoSummary = autoSummary(string(a.Kind), pr.Title, strings.Join(bodies, "\n"), pr.Repo, 0, 0, nil)
	return a
}

func (n *Normalizer) commitActivity(date string, c model.CommitRaw) model.Activity {
	additions, deletions, files := sumPRFiles(c.Files)
	title := c.Message
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	a := model.Activity{
		Date:         date,
		Source:       "github",
		Kind:         model.KindCommit,
		Timestamp:    c.CommittedAt.UTC(),
		Repo:         c.Repo,
		Title:        title,
		URL:          c.HTMLURL,
		Body:         c.Message,
		Files:        files,
		Additions:    additions,
		Deletions:    deletions,
		EvidenceURLs: []string{c.HTMLURL},
	}
	a.AutoSummary = autoSummary(string(a.Kind), title, c.Message, c.Repo, additions, deletions, files)
	return a
}

func (n *Normalizer) issueAuthoredActivity(date string, issue model.IssueRaw) model.Activity {
	a := model.Activity{
		Date:         date,
		Source:       "github",
		Kind:         model.KindIssueAuthored,
		ExternalID:   issue.Number,
		Timestamp:    issue.CreatedAt.UTC(),
		Repo:         issue.Repo,
		Title:        issue.Title,
		URL:          issue.HTMLURL,
		Body:         issue.Body,
		Labels:       issue.Labels,
		EvidenceURLs: []string{issue.HTMLURL},
	}
	a.AutoSummary = autoSummary(string(a.Kind), issue.Title, issue.Body, issue.Repo, 0, 0, nil)
	return a
}

func (n *Normalizer) issueCommentedActivity(date string, issue model.IssueRaw, comments []model.PRComment, earliest time.Time) model.Activity {
	bodies := make([]string, 0, len(comments))
	urls := make([]string, 0, len(comments))
	for _, c := range comments {
		bodies = append(bodies, c.Body)
		urls = append(urls, c.URL)
	}
	a := model.Activity{
		Date:          date,
		Source:        "github",
		Kind:          model.KindIssueCommented,
		ExternalID:    issue.Number,
		Timestamp:     earliest.UTC(),
		Repo:          issue.Repo,
		Title:         issue.Title,
		URL:           issue.HTMLURL,
		CommentBodies: bodies,
		EvidenceURLs:  urls,
	}
	a.AutoSummary = autoSummary(string(a.Kind), issue.Title, strings.Join(bodies, "\n"), issue.Repo, 0, 0, nil)
	return a
}

func sumPRFiles(files []model.PRFile) (additions, deletions int, names []string) {
	for _, f := range files {
		additions += f.Additions
		deletions += f.Deletions
		names = append(names, f.Filename)
	}
	return additions, deletions, names
}

// autoSummary builds the deterministic, pre-LLM summary line for an
// activity. When body is empty it falls back to a directory hint built from
// the changed file paths.
func autoSummary(kind, title, body, repo string, additions, deletions int, files []string) string {
	if strings.TrimSpace(body) != "" {
		return fmt.Sprintf("%s: %s (%s) +%d/-%d", kind, title, repo, additions, deletions)
	}
	if len(files) == 0 {
		return fmt.Sprintf("%s: %s (%s)", kind, title, repo)
	}
	dirs := topDirectories(files, 3)
	label := strings.Join(dirs, ", ")
	if len(dirs) < len(uniqueDirectories(files)) {
		label += " 외"
	}
	return fmt.Sprintf("%s: [%s] %d개 파일 변경 (%s) +%d/-%d", kind, label, len(files), repo, additions, deletions)
}

func uniqueDirectories(files []string) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, f := range files {
		d := filepath.Dir(f)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func topDirectories(files []string, n int) []string {
	dirs := uniqueDirectories(files)
	if len(dirs) > n {
		return dirs[:n]
	}
	return dirs
}

// computeStats aggregates a day's activities into DailyStats:
// additions/deletions sum authored PRs and commits only.
func computeStats(date string, activities []model.Activity) model.DailyStats {
	stats := model.DailyStats{Date: date}
	repos := map[string]bool{}

	for _, a := range activities {
		repos[a.Repo] = true
		switch a.Kind {
		case model.KindPRAuthored:
			stats.GitHub.AuthoredCount++
			stats.TotalAdditions += a.Additions
			stats.TotalDeletions += a.Deletions
			stats.AuthoredPRs = append(stats.AuthoredPRs, fmt.Sprintf("%s#%d", a.Repo, a.ExternalID))
		case model.KindPRReviewed:
			stats.GitHub.ReviewedCount++
			stats.ReviewedPRs = append(stats.ReviewedPRs, fmt.Sprintf("%s#%d", a.Repo, a.ExternalID))
		case model.KindPRCommented:
			stats.GitHub.CommentedCount++
		case model.KindCommit:
			stats.GitHub.CommitCount++
			stats.TotalAdditions += a.Additions
			stats.TotalDeletions += a.Deletions
			stats.Commits = append(stats.Commits, shaFromCommitURL(a.URL))
		case model.KindIssueAuthored:
			stats.GitHub.IssueAuthoredCount++
			stats.AuthoredIssues = append(stats.AuthoredIssues, fmt.Sprintf("%s#%d", a.Repo, a.ExternalID))
		case model.KindIssueCommented:
			stats.GitHub.IssueCommentedCount++
		}
	}

	stats.ReposTouched = sortedKeys(repos)
	return stats
}

// shaFromCommitURL extracts the trailing SHA segment from a commit's
// html_url, e.g. https://github.com/acme/widgets/commit/abc123 -> abc123.
func shaFromCommitURL(url string) string {
	idx := strings.LastIndexByte(url, '/')
	if idx < 0 {
		return url
	}
	return url[idx+1:]
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// enrichActivityRef is the per-activity payload rendered into the enrich
// prompt template.
type enrichActivityRef struct {
	Index int
	Kind  string
	Title string
	Repo  string
	Body  string
}

type enrichResponseEntry struct {
	Index         int    `json:"index"`
	ChangeSummary string `json:"change_summary"`
	Intent        string `json:"intent"`
}

// enrich makes a single LLM call covering every activity of the day,
// splitting the enrich.md template into a cacheable system section and a
// per-call user section, then applies the response by
// index, tolerating out-of-range indices.
func (n *Normalizer) enrich(ctx context.Context, activities []model.Activity) error {
	refs := make([]enrichActivityRef, len(activities))
	for i, a := range activities {
		body := a.Body
		if body == "" {
			body = strings.Join(a.CommentBodies, "\n")
		}
		refs[i] = enrichActivityRef{Index: i, Kind: string(a.Kind), Title: a.Title, Repo: a.Repo, Body: body}
	}

	system, user, err := n.prompts.RenderSplit("enrich", struct{ Activities []enrichActivityRef }{refs})
	if err != nil {
		return fmt.Errorf("render enrich template: %w", err)
	}

	text, _, err := n.router.Chat(ctx, "enrich", system, user, driven.ChatOptions{JSONMode: true, CacheSystemPrompt: true})
	if err != nil {
		return fmt.Errorf("enrich chat: %w", err)
	}

	var entries []enrichResponseEntry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return fmt.Errorf("parse enrich response: %w", err)
	}

	for _, e := range entries {
		if e.Index < 0 || e.Index >= len(activities) {
			continue
		}
		activities[e.Index].ChangeSummary = e.ChangeSummary
		activities[e.Index].Intent = e.Intent
	}
	return nil
}

// NormalizeRange normalizes every date in [since, until], skipping dates
// whose normalize phase is not stale unless force is set.
// batch selects the Anthropic-style batch enrichment strategy;
// otherwise maxWorkers selects sequential (<=1) or bounded-parallel dispatch.
func (n *Normalizer) NormalizeRange(ctx context.Context, since, until string, force, enrich bool, maxWorkers int, batch bool) ([]model.DateOutcome, error) {
	sinceT, err := parseISODate(since)
	if err != nil {
		return nil, err
	}
	untilT, err := parseISODate(until)
	if err != nil {
		return nil, err
	}
	all := datesBetween(sinceT, untilT)

	toProcess := all
	if !force {
		toProcess = n.dailyState.StaleDates(driven.PhaseNormalize, all)
	}
	toProcessSet := map[string]bool{}
	for _, d := range toProcess {
		toProcessSet[d] = true
	}

	var outcomes []model.DateOutcome

	var processed []model.DateOutcome
	if batch {
		processed = n.normalizeRangeBatch(ctx, toProcess, enrich)
	} else if maxWorkers > 1 {
		processed = n.normalizeRangeParallel(ctx, toProcess, enrich, maxWorkers)
	} else {
		processed = n.normalizeRangeSequential(ctx, toProcess, enrich)
	}
	outcomes = append(outcomes, processed...)

	for _, d := range all {
		if !toProcessSet[d] {
			outcomes = append(outcomes, model.DateOutcome{Date: d, Status: model.OutcomeSkipped})
		}
	}

	sortOutcomes(outcomes)
	return outcomes, nil
}

func (n *Normalizer) normalizeRangeSequential(ctx context.Context, dates []string, enrich bool) []model.DateOutcome {
	out := make([]model.DateOutcome, len(dates))
	for i, date := range dates {
		out[i] = n.normalizeOne(ctx, date, enrich)
	}
	return out
}

func (n *Normalizer) normalizeRangeParallel(ctx context.Context, dates []string, enrich bool, maxWorkers int) []model.DateOutcome {
	out := make([]model.DateOutcome, len(dates))
	if maxWorkers <= 1 {
		return n.normalizeRangeSequential(ctx, dates, enrich)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			out[i] = n.normalizeOne(gctx, date, enrich)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (n *Normalizer) normalizeOne(ctx context.Context, date string, enrich bool) model.DateOutcome {
	_, err := n.Normalize(ctx, date, enrich)
	if err != nil {
		return model.DateOutcome{Date: date, Status: model.OutcomeFailed, Error: err.Error()}
	}
	return model.DateOutcome{Date: date, Status: model.OutcomeSuccess}
}

// normalizeRangeBatch builds every date's activities without enrichment,
// submits one batch request per non-empty date to the router's
// batch-capable provider (custom_id "enrich-{date}"), polls for
// completion, and applies results as they arrive.
func (n *Normalizer) normalizeRangeBatch(ctx context.Context, dates []string, enrich bool) []model.DateOutcome {
	type pending struct {
		date       string
		activities []model.Activity
	}

	var items []pending
	var out []model.DateOutcome

	for _, date := range dates {
		prs, err := n.store.ReadPRs(date)
		if err != nil {
			out = append(out, model.DateOutcome{Date: date, Status: model.OutcomeFailed, Error: err.Error()})
			continue
		}
		commits, _ := n.store.ReadCommits(date)
		issues, _ := n.store.ReadIssues(date)
		activities := n.buildActivities(date, prs, commits, issues)
		items = append(items, pending{date: date, activities: activities})
	}

	if !enrich || len(items) == 0 {
		for _, it := range items {
			out = append(out, n.finishNormalize(ctx, it.date, it.activities))
		}
		return out
	}

	requests := make([]model.BatchRequest, 0, len(items))
	for _, it := range items {
		if len(it.activities) == 0 {
			continue
		}
		refs := make([]enrichActivityRef, len(it.activities))
		for i, a := range it.activities {
			body := a.Body
			if body == "" {
				body = strings.Join(a.CommentBodies, "\n")
			}
			refs[i] = enrichActivityRef{Index: i, Kind: string(a.Kind), Title: a.Title, Repo: a.Repo, Body: body}
		}
		system, user, err := n.prompts.RenderSplit("enrich", struct{ Activities []enrichActivityRef }{refs})
		if err != nil {
			continue
		}
		requests = append(requests, model.BatchRequest{CustomID: "enrich-" + it.date, System: system, User: user, JSONMode: true})
	}

	if len(requests) > 0 {
		batchID, err := n.router.SubmitBatch(ctx, "enrich", requests)
		if err != nil {
			slog.Warn("batch submission failed, writing without enrichment", "error", err)
		} else if results, err := n.pollBatch(ctx, batchID); err != nil {
			slog.Warn("batch polling failed, writing without enrichment", "error", err)
		} else {
			applyBatchResults(items, results)
		}
	}

	for _, it := range items {
		out = append(out, n.finishNormalize(ctx, it.date, it.activities))
	}
	return out
}

func applyBatchResults(items []struct {
	date       string
	activities []model.Activity
}, results []model.BatchResult) {
	byDate := map[string]model.BatchResult{}
	for _, r := range results {
		byDate[strings.TrimPrefix(r.CustomID, "enrich-")] = r
	}
	for i := range items {
		res, ok := byDate[items[i].date]
		if !ok || res.Error != "" {
			continue
		}
		var entries []enrichResponseEntry
		if err := json.Unmarshal([]byte(res.Text), &entries); err != nil {
			continue
		}
		for _, e := range entries {
			if e.Index < 0 || e.Index >= len(items[i].activities) {
				continue
			}
			items[i].activities[e.Index].ChangeSummary = e.ChangeSummary
			items[i].activities[e.Index].Intent = e.Intent
		}
	}
}

// pollBatch waits for batchID to leave the submitted/processing states,
// backing off between polls, then returns its results.
func (n *Normalizer) pollBatch(ctx context.Context, batchID string) ([]model.BatchResult, error) {
	const pollInterval = 5 * time.Second
	for {
		status, err := n.router.GetBatchStatus(ctx, "enrich", batchID)
		if err != nil {
			return nil, err
		}
		switch status {
		case model.BatchCompleted:
			return n.router.GetBatchResults(ctx, "enrich", batchID)
		case model.BatchFailed, model.BatchExpired:
			return nil, fmt.Errorf("batch %s ended in state %s", batchID, status)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (n *Normalizer) finishNormalize(ctx context.Context, date string, activities []model.Activity) model.DateOutcome {
	sort.Slice(activities, func(i, j int) bool { return activities[i].Timestamp.Before(activities[j].Timestamp) })

	if _, err := n.store.WriteActivities(date, activities); err != nil {
		return model.DateOutcome{Date: date, Status: model.OutcomeFailed, Error: err.Error()}
	}
	stats := computeStats(date, activities)
	if _, err := n.store.WriteStats(date, stats); err != nil {
		return model.DateOutcome{Date: date, Status: model.OutcomeFailed, Error: err.Error()}
	}

	if n.sink != nil {
		if err := n.sink.WriteActivities(ctx, date, activities); err != nil {
			slog.Warn("storage sink write failed", "op", "activities", "date", date, "error", err)
		}
		if err := n.sink.WriteStats(ctx, date, stats); err != nil {
			slog.Warn("storage sink write failed", "op", "stats", "date", date, "error", err)
		}
	}

	_ = n.dailyState.SetTimestamp(driven.PhaseNormalize, date, time.Now().UTC())
	_ = n.checkpoint.Update(driven.CheckpointLastNormalize, date)
	_ = n.failed.RecordSuccess(date, driven.PhaseNormalize)

	return model.DateOutcome{Date: date, Status: model.OutcomeSuccess}
}

func sortOutcomes(outcomes []model.DateOutcome) {
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Date < outcomes[j].Date })
}
