// Package driven holds the outbound port interfaces that application
// services depend on. Concrete implementations live under
// internal/adapter/driven.
package driven

import (
	"context"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

// SearchClient is the rate-limited, retrying HTTP client against the Git
// hosting service's search and REST surfaces. A single instance is safe for
// concurrent use from multiple goroutines: the search throttle, the adaptive
// quota tracker, and the underlying transport each guard their own state.
type SearchClient interface {
	// SearchIssues runs a single page of an issue/PR search query. Callers
	// paginate by incrementing page until a short page (len < perPage) is
	// returned.
	SearchIssues(ctx context.Context, query string, page, perPage int) ([]model.PRRaw, bool, error)

	// SearchCommits runs a single page of a commit search query.
	SearchCommits(ctx context.Context, query string, page, perPage int) ([]model.CommitRaw, bool, error)

	// GetPR fetches a single pull request's core fields (no files, comments,
	// or reviews).
	GetPR(ctx context.Context, repo string, number int) (model.PRRaw, error)

	// GetPRFiles fetches the full, paginated file list for a pull request.
	GetPRFiles(ctx context.Context, repo string, number int) ([]model.PRFile, error)

	// GetPRComments returns the merge of review comments (inline) and issue
	// comments (top-level) on a pull request, in API-returned order.
	GetPRComments(ctx context.Context, repo string, number int) ([]model.PRComment, error)

	// GetPRReviews returns all review submissions on a pull request.
	GetPRReviews(ctx context.Context, repo string, number int) ([]model.PRReview, error)

	// GetCommit fetches a single commit's full detail including file stats.
	// Returns a sentinel wrapped error the caller recognizes as
	// "unsupported endpoint" on hosts that do not implement commit detail.
	GetCommit(ctx context.Context, repo, sha string) (model.CommitRaw, error)

	// GetIssue fetches a single issue's core fields.
	GetIssue(ctx context.Context, repo string, number int) (model.IssueRaw, error)

	// GetIssueComments returns all top-level comments on an issue.
	GetIssueComments(ctx context.Context, repo string, number int) ([]model.PRComment, error)
}
