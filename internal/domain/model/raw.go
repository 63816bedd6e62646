// Package model defines the canonical domain types shared by every service:
// raw entities fetched from the hosting API, normalized activities and daily
// statistics, job lifecycle records, and language-model usage accounting.
package model

import "time"

// PRFile describes a single file changed by a pull request.
type PRFile struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Status    string `json:"status"`
	Patch     string `json:"patch,omitempty"`
}

// PRComment is a review comment or an issue-style comment on a pull request.
// Path/Line/DiffHunk are populated for inline review comments and empty for
// top-level issue comments.
type PRComment struct {
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
	Path      string    `json:"path,omitempty"`
	Line      int       `json:"line,omitempty"`
	DiffHunk  string    `json:"diff_hunk,omitempty"`
}

// ReviewState enumerates the outcomes of a pull request review.
type ReviewState string

const (
	ReviewApproved         ReviewState = "APPROVED"
	ReviewChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewCommented        ReviewState = "COMMENTED"
)

// PRReview is a single review submission on a pull request.
type PRReview struct {
	Author      string      `json:"author"`
	State       ReviewState `json:"state"`
	Body        string      `json:"body"`
	SubmittedAt time.Time   `json:"submitted_at"`
	URL         string      `json:"url"`
}

// PRRaw is the raw, as-fetched representation of a pull request. It is keyed
// by (Repo, Number) and persisted write-once per date, overwritten on re-fetch.
type PRRaw struct {
	Repo      string      `json:"repo"`
	Number    int         `json:"number"`
	HTMLURL   string      `json:"html_url"`
	APIURL    string      `json:"api_url"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	State     string      `json:"state"`
	IsMerged  bool        `json:"is_merged"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	MergedAt  *time.Time  `json:"merged_at,omitempty"`
	Author    string      `json:"author"`
	Labels    []string    `json:"labels"`
	Files     []PRFile    `json:"files,omitempty"`
	Comments  []PRComment `json:"comments,omitempty"`
	Reviews   []PRReview  `json:"reviews,omitempty"`
}

// Status derives the pull request's lifecycle status the way a reviewer
// would describe it: merged takes priority over closed, closed over open.
func (p PRRaw) Status() string {
	switch {
	case p.IsMerged:
		return "merged"
	case p.State == "closed":
		return "closed"
	default:
		return "open"
	}
}

// CommitRaw is the raw representation of a single commit, keyed by SHA.
type CommitRaw struct {
	SHA         string    `json:"sha"`
	Repo        string    `json:"repo"`
	HTMLURL     string    `json:"html_url"`
	APIURL      string    `json:"api_url"`
	Message     string    `json:"message"`
	Author      string    `json:"author"`
	CommittedAt time.Time `json:"committed_at"`
	Files       []PRFile  `json:"files,omitempty"`
}

// IssueRaw is the raw representation of an issue (not a pull request),
// keyed by (Repo, Number).
type IssueRaw struct {
	Repo      string      `json:"repo"`
	Number    int         `json:"number"`
	HTMLURL   string      `json:"html_url"`
	APIURL    string      `json:"api_url"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	State     string      `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	ClosedAt  *time.Time  `json:"closed_at,omitempty"`
	Author    string      `json:"author"`
	Labels    []string    `json:"labels"`
	Comments  []PRComment `json:"comments,omitempty"`
}
