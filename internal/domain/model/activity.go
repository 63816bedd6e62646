package model

import "time"

// ActivityKind enumerates the canonical event kinds an Activity can carry.
type ActivityKind string

const (
	KindPRAuthored      ActivityKind = "PR_AUTHORED"
	KindPRReviewed      ActivityKind = "PR_REVIEWED"
	KindPRCommented     ActivityKind = "PR_COMMENTED"
	KindCommit          ActivityKind = "COMMIT"
	KindIssueAuthored   ActivityKind = "ISSUE_AUTHORED"
	KindIssueCommented  ActivityKind = "ISSUE_COMMENTED"
)

// CommentContext is an inline review comment carried verbatim onto the
// activity that produced it, so the enrichment prompt can render the
// surrounding diff rather than just a flattened body string.
type CommentContext struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	DiffHunk string `json:"diff_hunk"`
	Body     string `json:"body"`
}

// Activity is a single user-attributable event on a calendar day, derived
// from raw PR/commit/issue data by the normalizer and optionally enriched
// with an LLM-generated change summary and intent classification.
type Activity struct {
	Date            string            `json:"date"` // YYYY-MM-DD, always equal to Timestamp[:10]
	Source          string            `json:"source"`
	Kind            ActivityKind      `json:"kind"`
	ExternalID      int               `json:"external_id"` // PR/issue number; 0 for commits
	Timestamp       time.Time         `json:"timestamp"`
	Repo            string            `json:"repo"`
	Title           string            `json:"title"`
	URL             string            `json:"url"`
	AutoSummary     string            `json:"auto_summary"`
	Body            string            `json:"body,omitempty"`
	ReviewBodies    []string          `json:"review_bodies,omitempty"`
	CommentBodies   []string          `json:"comment_bodies,omitempty"`
	Files           []string          `json:"files,omitempty"`
	FilePatches     map[string]string `json:"file_patches,omitempty"`
	Additions       int               `json:"additions"`
	Deletions       int               `json:"deletions"`
	Labels          []string          `json:"labels,omitempty"`
	EvidenceURLs    []string          `json:"evidence_urls,omitempty"`
	CommentContexts []CommentContext  `json:"comment_contexts,omitempty"`
	ChangeSummary   string            `json:"change_summary,omitempty"` // LLM-produced
	Intent          string            `json:"intent,omitempty"`         // LLM-produced
}
