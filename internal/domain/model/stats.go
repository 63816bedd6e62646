package model

// GitHubStats is the GitHub-source block nested inside DailyStats.
type GitHubStats struct {
	AuthoredCount        int `json:"authored_count"`
	ReviewedCount        int `json:"reviewed_count"`
	CommentedCount       int `json:"commented_count"`
	CommitCount          int `json:"commit_count"`
	IssueAuthoredCount   int `json:"issue_authored_count"`
	IssueCommentedCount  int `json:"issue_commented_count"`
}

// DailyStats carries the per-date derived statistics computed by the
// normalizer from a day's Activity set.
type DailyStats struct {
	Date            string      `json:"date"`
	GitHub          GitHubStats `json:"github"`
	TotalAdditions  int         `json:"total_additions"`
	TotalDeletions  int         `json:"total_deletions"`
	ReposTouched    []string    `json:"repos_touched"` // sorted, unique
	AuthoredPRs     []string    `json:"authored_prs"`  // "repo#number"
	ReviewedPRs     []string    `json:"reviewed_prs"`
	Commits         []string    `json:"commits"` // sha
	AuthoredIssues  []string    `json:"authored_issues"`
}
