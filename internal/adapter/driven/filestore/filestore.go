// Package filestore is the primary, write-once-per-date persistence layer
// for raw fetch output, normalized activities/stats, and rendered
// summaries — the exact filesystem layout a complete reimplementation
// needs around the pipeline core. Unlike the relational/vector
// driven.StorageSink adapters, this is not a best-effort mirror: it is the
// system of record the Normalizer and Summarizer read back from.
package filestore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

// Store roots every path under dataDir, laid out as:
//
//	data/raw/{YYYY}/{MM}/{DD}/{prs,commits,issues}.json
//	data/normalized/{YYYY}/{MM}/{DD}/{activities.jsonl,stats.json}
//	data/summaries/{YYYY}/{daily/{MM}-{DD}.md,weekly/W{ww}.md,monthly/{MM}.md,yearly.md}
type Store struct {
	dataDir string
}

// NewStore roots a Store at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

func splitDate(date string) (year, month, day string, err error) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return parts[0], parts[1], parts[2], nil
}

func (s *Store) rawDir(date string) (string, error) {
	y, m, d, err := splitDate(date)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dataDir, "raw", y, m, d), nil
}

func (s *Store) normalizedDir(date string) (string, error) {
	y, m, d, err := splitDate(date)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dataDir, "normalized", y, m, d), nil
}

// DailySummaryPath returns the Markdown path for date's daily summary.
func (s *Store) DailySummaryPath(date string) (string, error) {
	y, m, d, err := splitDate(date)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dataDir, "summaries", y, "daily", fmt.Sprintf("%s-%s.md", m, d)), nil
}

// WeeklySummaryPath returns the Markdown path for the given ISO year/week.
func (s *Store) WeeklySummaryPath(year, isoWeek int) string {
	return filepath.Join(s.dataDir, "summaries", strconv.Itoa(year), "weekly", fmt.Sprintf("W%02d.md", isoWeek))
}

// MonthlySummaryPath returns the Markdown path for the given year/month.
func (s *Store) MonthlySummaryPath(year, month int) string {
	return filepath.Join(s.dataDir, "summaries", strconv.Itoa(year), "monthly", fmt.Sprintf("%02d.md", month))
}

// YearlySummaryPath returns the Markdown path for the given year.
func (s *Store) YearlySummaryPath(year int) string {
	return filepath.Join(s.dataDir, "summaries", strconv.Itoa(year), "yearly.md")
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WritePRs persists prs (possibly empty) as raw/{Y}/{M}/{D}/prs.json, overwriting any existing file.
func (s *Store) WritePRs(date string, prs []model.PRRaw) (string, error) {
	dir, err := s.rawDir(date)
	if err != nil {
		return "", err
	}
	if prs == nil {
		prs = []model.PRRaw{}
	}
	path := filepath.Join(dir, "prs.json")
	return path, writeJSON(path, prs)
}

// WriteCommits persists commits as raw/{Y}/{M}/{D}/commits.json.
func (s *Store) WriteCommits(date string, commits []model.CommitRaw) (string, error) {
	dir, err := s.rawDir(date)
	if err != nil {
		return "", err
	}
	if commits == nil {
		commits = []model.CommitRaw{}
	}
	path := filepath.Join(dir, "commits.json")
	return path, writeJSON(path, commits)
}

// WriteIssues persists issues as raw/{Y}/{M}/{D}/issues.json.
func (s *Store) WriteIssues(date string, issues []model.IssueRaw) (string, error) {
	dir, err := s.rawDir(date)
	if err != nil {
		return "", err
	}
	if issues == nil {
		issues = []model.IssueRaw{}
	}
	path := filepath.Join(dir, "issues.json")
	return path, writeJSON(path, issues)
}

// ReadPRs loads raw/{Y}/{M}/{D}/prs.json. A missing file is an error — PRs
// are the Normalizer's required input.
func (s *Store) ReadPRs(date string) ([]model.PRRaw, error) {
	dir, err := s.rawDir(date)
	if err != nil {
		return nil, err
	}
	var prs []model.PRRaw
	if err := readJSON(filepath.Join(dir, "prs.json"), &prs); err != nil {
		return nil, err
	}
	return prs, nil
}

// ReadCommits loads raw/{Y}/{M}/{D}/commits.json. A missing file yields an
// empty slice — commits are tolerated-absent.
func (s *Store) ReadCommits(date string) ([]model.CommitRaw, error) {
	dir, err := s.rawDir(date)
	if err != nil {
		return nil, err
	}
	var commits []model.CommitRaw
	if err := readJSON(filepath.Join(dir, "commits.json"), &commits); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return commits, nil
}

// ReadIssues loads raw/{Y}/{M}/{D}/issues.json. A missing file yields an
// empty slice — issues are tolerated-absent.
func (s *Store) ReadIssues(date string) ([]model.IssueRaw, error) {
	dir, err := s.rawDir(date)
	if err != nil {
		return nil, err
	}
	var issues []model.IssueRaw
	if err := readJSON(filepath.Join(dir, "issues.json"), &issues); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return issues, nil
}

// WriteActivities persists activities as one JSON object per line under
// normalized/{Y}/{M}/{D}/activities.jsonl. A zero-length slice writes an
// empty file.
func (s *Store) WriteActivities(date string, activities []model.Activity) (string, error) {
	dir, err := s.normalizedDir(date)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, "activities.jsonl")
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", tmp, err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, a := range activities {
		if err := enc.Encode(a); err != nil {
			f.Close()
			os.Remove(tmp)
			return "", fmt.Errorf("encode activity: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}
	return path, nil
}

// ReadActivities loads normalized/{Y}/{M}/{D}/activities.jsonl. A missing
// file yields an empty slice.
func (s *Store) ReadActivities(date string) ([]model.Activity, error) {
	dir, err := s.normalizedDir(date)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "activities.jsonl")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var activities []model.Activity
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var a model.Activity
		if err := json.Unmarshal(line, &a); err != nil {
			return nil, fmt.Errorf("decode activity line: %w", err)
		}
		activities = append(activities, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return activities, nil
}

// WriteStats persists stats as normalized/{Y}/{M}/{D}/stats.json.
func (s *Store) WriteStats(date string, stats model.DailyStats) (string, error) {
	dir, err := s.normalizedDir(date)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "stats.json")
	return path, writeJSON(path, stats)
}

// ReadStats loads normalized/{Y}/{M}/{D}/stats.json.
func (s *Store) ReadStats(date string) (model.DailyStats, error) {
	dir, err := s.normalizedDir(date)
	if err != nil {
		return model.DailyStats{}, err
	}
	var stats model.DailyStats
	if err := readJSON(filepath.Join(dir, "stats.json"), &stats); err != nil {
		return model.DailyStats{}, err
	}
	return stats, nil
}

// StatsExist reports whether stats.json exists for date.
func (s *Store) StatsExist(date string) bool {
	dir, err := s.normalizedDir(date)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, "stats.json"))
	return err == nil
}

// WriteMarkdown writes content to path, creating parent directories.
func (s *Store) WriteMarkdown(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadMarkdown reads path, returning ("", false, nil) when it does not exist.
func (s *Store) ReadMarkdown(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}
