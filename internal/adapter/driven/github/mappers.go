package github

import (
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

// mapSearchResultToPR converts a search-issues result that carries
// PullRequestLinks (i.e. it is actually a pull request) into a PRRaw shell.
// The search endpoint does not return files/comments/reviews — those are
// filled in by the fetcher's subsequent enrichment calls.
func mapSearchResultToPR(issue *gh.Issue) model.PRRaw {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	return model.PRRaw{
		Number:    issue.GetNumber(),
		HTMLURL:   issue.GetHTMLURL(),
		APIURL:    issue.GetPullRequestLinks().GetURL(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		State:     issue.GetState(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
		Author:    issue.GetUser().GetLogin(),
		Labels:    labels,
	}
}

func mapSearchResultToCommit(c *gh.CommitResult) model.CommitRaw {
	committedAt := c.GetCommit().GetAuthor().GetDate().Time
	return model.CommitRaw{
		SHA:         c.GetSHA(),
		Repo:        c.GetRepository().GetFullName(),
		HTMLURL:     c.GetHTMLURL(),
		Message:     c.GetCommit().GetMessage(),
		Author:      c.GetAuthor().GetLogin(),
		CommittedAt: committedAt,
	}
}

func mapPullRequest(repo string, pr *gh.PullRequest) model.PRRaw {
	var mergedAt *time.Time
	if !pr.GetMergedAt().IsZero() {
		t := pr.GetMergedAt().Time
		mergedAt = &t
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	return model.PRRaw{
		Repo:      repo,
		Number:    pr.GetNumber(),
		HTMLURL:   pr.GetHTMLURL(),
		APIURL:    pr.GetURL(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		State:     pr.GetState(),
		IsMerged:  pr.GetMerged(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
		MergedAt:  mergedAt,
		Author:    pr.GetUser().GetLogin(),
		Labels:    labels,
	}
}

func mapPRFile(f *gh.CommitFile) model.PRFile {
	return model.PRFile{
		Filename:  f.GetFilename(),
		Additions: f.GetAdditions(),
		Deletions: f.GetDeletions(),
		Status:    f.GetStatus(),
		Patch:     f.GetPatch(),
	}
}

func mapReviewComment(c *gh.PullRequestComment) model.PRComment {
	return model.PRComment{
		Author:    c.GetUser().GetLogin(),
		Body:      c.GetBody(),
		CreatedAt: c.GetCreatedAt().Time,
		URL:       c.GetHTMLURL(),
		Path:      c.GetPath(),
		Line:      c.GetLine(),
		DiffHunk:  c.GetDiffHunk(),
	}
}

func mapIssueComment(c *gh.IssueComment) model.PRComment {
	return model.PRComment{
		Author:    c.GetUser().GetLogin(),
		Body:      c.GetBody(),
		CreatedAt: c.GetCreatedAt().Time,
		URL:       c.GetHTMLURL(),
	}
}

func mapReview(r *gh.PullRequestReview) model.PRReview {
	return model.PRReview{
		Author:      r.GetUser().GetLogin(),
		State:       model.ReviewState(r.GetState()),
		Body:        r.GetBody(),
		SubmittedAt: r.GetSubmittedAt().Time,
		URL:         r.GetHTMLURL(),
	}
}

func mapCommit(repo string, rc *gh.RepositoryCommit) model.CommitRaw {
	var files []model.PRFile
	for _, f := range rc.Files {
		files = append(files, mapPRFile(f))
	}
	return model.CommitRaw{
		SHA:         rc.GetSHA(),
		Repo:        repo,
		HTMLURL:     rc.GetHTMLURL(),
		APIURL:      rc.GetURL(),
		Message:     rc.GetCommit().GetMessage(),
		Author:      rc.GetAuthor().GetLogin(),
		CommittedAt: rc.GetCommit().GetAuthor().GetDate().Time,
		Files:       files,
	}
}

func mapIssue(repo string, issue *gh.Issue) model.IssueRaw {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	var closedAt *time.Time
	if !issue.GetClosedAt().IsZero() {
		t := issue.GetClosedAt().Time
		closedAt = &t
	}
	return model.IssueRaw{
		Repo:      repo,
		Number:    issue.GetNumber(),
		HTMLURL:   issue.GetHTMLURL(),
		APIURL:    issue.GetURL(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		State:     issue.GetState(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
		ClosedAt:  closedAt,
		Author:    issue.GetUser().GetLogin(),
		Labels:    labels,
	}
}
