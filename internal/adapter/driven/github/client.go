// Package github adapts google/go-github to the driven.SearchClient port:
// a throttled, retrying, quota-aware client over the search and REST
// surfaces a hosting service exposes.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.SearchClient = (*Client)(nil)

// Client wraps a go-github client with the search throttle/retry/quota
// transport. A single Client is safe for concurrent use — see
// searchThrottleTransport's doc comment.
type Client struct {
	gh   *gh.Client
	base string // owner/repo hint is per-call; base is the configured host label for logging only
}

// NewClient builds a Client authenticated with token, targeting baseURL
// (empty for api.github.com). throttleWait is the minimum interval enforced
// between search calls; httpTimeout bounds every outbound call.
func NewClient(token, baseURL string, throttleWait, httpTimeout time.Duration) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	throttled := newSearchThrottleTransport(rateLimitClient.Transport, throttleWait)

	httpClient := &http.Client{
		Transport: throttled,
		Timeout:   httpTimeout,
	}

	client := gh.NewClient(httpClient).WithAuthToken(token)
	if baseURL != "" {
		apiURL := strings.TrimRight(baseURL, "/") + "/api/v3/"
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("set enterprise base url: %w", err)
		}
	}

	return &Client{gh: client, base: baseURL}, nil
}

// NewClientWithHTTPClient is a test constructor allowing callers to point
// the client at an httptest.Server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	apiURL := strings.TrimRight(baseURL, "/") + "/"
	client, err := client.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("set enterprise base url: %w", err)
	}
	return &Client{gh: client, base: baseURL}, nil
}

func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q, expected owner/name", repo)
	}
	return parts[0], parts[1], nil
}

// SearchIssues runs one page of an issue/PR search query.
func (c *Client) SearchIssues(ctx context.Context, query string, page, perPage int) ([]model.PRRaw, bool, error) {
	opts := &gh.SearchOptions{ListOptions: gh.ListOptions{Page: page, PerPage: perPage}}
	result, _, err := c.gh.Search.Issues(ctx, query, opts)
	if err != nil {
		return nil, false, fmt.Errorf("search issues %q: %w", query, err)
	}
	out := make([]model.PRRaw, 0, len(result.Issues))
	for _, issue := range result.Issues {
		if issue.PullRequestLinks == nil {
			continue
		}
		out = append(out, mapSearchResultToPR(issue))
	}
	return out, len(result.Issues) == perPage, nil
}

// SearchCommits runs one page of a commit search query.
func (c *Client) SearchCommits(ctx context.Context, query string, page, perPage int) ([]model.CommitRaw, bool, error) {
	opts := &gh.SearchOptions{ListOptions: gh.ListOptions{Page: page, PerPage: perPage}}
	result, _, err := c.gh.Search.Commits(ctx, query, opts)
	if err != nil {
		return nil, false, fmt.Errorf("search commits %q: %w", query, err)
	}
	out := make([]model.CommitRaw, 0, len(result.Commits))
	for _, commit := range result.Commits {
		out = append(out, mapSearchResultToCommit(commit))
	}
	return out, len(result.Commits) == perPage, nil
}

// GetPR fetches a single pull request's core fields.
func (c *Client) GetPR(ctx context.Context, repo string, number int) (model.PRRaw, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return model.PRRaw{}, err
	}
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, name, number)
	if err != nil {
		return model.PRRaw{}, fmt.Errorf("get pr %s#%d: %w", repo, number, err)
	}
	return mapPullRequest(repo, pr), nil
}

// GetPRFiles fetches the full paginated file list for a pull request.
func (c *Client) GetPRFiles(ctx context.Context, repo string, number int) ([]model.PRFile, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	var files []model.PRFile
	opts := &gh.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list pr files %s#%d: %w", repo, number, err)
		}
		for _, f := range page {
			files = append(files, mapPRFile(f))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

// GetPRComments returns the merge of review comments and issue comments.
func (c *Client) GetPRComments(ctx context.Context, repo string, number int) ([]model.PRComment, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	var out []model.PRComment

	reviewOpts := &gh.PullRequestListCommentsOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		page, resp, err := c.gh.PullRequests.ListComments(ctx, owner, name, number, reviewOpts)
		if err != nil {
			return nil, fmt.Errorf("list pr review comments %s#%d: %w", repo, number, err)
		}
		for _, rc := range page {
			out = append(out, mapReviewComment(rc))
		}
		if resp.NextPage == 0 {
			break
		}
		reviewOpts.Page = resp.NextPage
	}

	issueOpts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, owner, name, number, issueOpts)
		if err != nil {
			return nil, fmt.Errorf("list pr issue comments %s#%d: %w", repo, number, err)
		}
		for _, ic := range page {
			out = append(out, mapIssueComment(ic))
		}
		if resp.NextPage == 0 {
			break
		}
		issueOpts.Page = resp.NextPage
	}

	return out, nil
}

// GetPRReviews returns all review submissions on a pull request.
func (c *Client) GetPRReviews(ctx context.Context, repo string, number int) ([]model.PRReview, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	var out []model.PRReview
	opts := &gh.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.gh.PullRequests.ListReviews(ctx, owner, name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list pr reviews %s#%d: %w", repo, number, err)
		}
		for _, r := range page {
			out = append(out, mapReview(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// GetCommit fetches a single commit's full detail including file stats.
func (c *Client) GetCommit(ctx context.Context, repo, sha string) (model.CommitRaw, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return model.CommitRaw{}, err
	}
	commit, _, err := c.gh.Repositories.GetCommit(ctx, owner, name, sha, nil)
	if err != nil {
		return model.CommitRaw{}, fmt.Errorf("get commit %s@%s: %w", repo, sha, err)
	}
	return mapCommit(repo, commit), nil
}

// GetIssue fetches a single issue's core fields.
func (c *Client) GetIssue(ctx context.Context, repo string, number int) (model.IssueRaw, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return model.IssueRaw{}, err
	}
	issue, _, err := c.gh.Issues.Get(ctx, owner, name, number)
	if err != nil {
		return model.IssueRaw{}, fmt.Errorf("get issue %s#%d: %w", repo, number, err)
	}
	return mapIssue(repo, issue), nil
}

// GetIssueComments returns all top-level comments on an issue.
func (c *Client) GetIssueComments(ctx context.Context, repo string, number int) ([]model.PRComment, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	var out []model.PRComment
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, owner, name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list issue comments %s#%d: %w", repo, number, err)
		}
		for _, ic := range page {
			out = append(out, mapIssueComment(ic))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}
