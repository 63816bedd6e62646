package application

import (
	"fmt"
	"time"
)

const isoDateLayout = "2006-01-02"

func parseISODate(date string) (time.Time, error) {
	t, err := time.Parse(isoDateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

func formatISODate(t time.Time) string {
	return t.UTC().Format(isoDateLayout)
}

// datesBetween returns every calendar date from since to until inclusive.
func datesBetween(since, until time.Time) []string {
	var out []string
	for d := since; !d.After(until); d = d.AddDate(0, 0, 1) {
		out = append(out, formatISODate(d))
	}
	return out
}

// monthChunk is one calendar-month partition of a range fetch, clipped to
// the requested [since, until] bounds.
type monthChunk struct {
	key   string // "YYYY-MM"
	since string
	until string
}

// monthChunks partitions [since, until] into calendar-month chunks.
func monthChunks(since, until time.Time) []monthChunk {
	var chunks []monthChunk
	cursor := time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(until) {
		monthEnd := cursor.AddDate(0, 1, -1)
		chunkSince := cursor
		if chunkSince.Before(since) {
			chunkSince = since
		}
		chunkUntil := monthEnd
		if chunkUntil.After(until) {
			chunkUntil = until
		}
		chunks = append(chunks, monthChunk{
			key:   cursor.Format("2006-01"),
			since: formatISODate(chunkSince),
			until: formatISODate(chunkUntil),
		})
		cursor = cursor.AddDate(0, 1, 0)
	}
	return chunks
}

// isoWeeksInMonth returns every distinct (ISO year, ISO week) pair touched
// by any day of the given calendar month, in chronological order. A month
// spanning a year boundary's ISO week (e.g. Dec 31 falling in week 1 of the
// following year) yields that pair with its own ISO year, not the calendar
// year — matching Go's time.Time.ISOWeek semantics.
func isoWeeksInMonth(year, month int) [][2]int {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	var out [][2]int
	seen := map[[2]int]bool{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		y, w := d.ISOWeek()
		pair := [2]int{y, w}
		if !seen[pair] {
			seen[pair] = true
			out = append(out, pair)
		}
	}
	return out
}

// lastMonth returns the calendar year/month preceding the given time.
func lastMonth(now time.Time) (year, month int) {
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}

// lastISOWeek returns the ISO year/week preceding the given time's week.
func lastISOWeek(now time.Time) (year, week int) {
	return now.AddDate(0, 0, -7).ISOWeek()
}

// LastMonth exports lastMonth for the Scheduler's monthly/yearly cascades.
func LastMonth(now time.Time) (year, month int) { return lastMonth(now) }

// LastISOWeek exports lastISOWeek for the Scheduler's weekly cascade.
func LastISOWeek(now time.Time) (year, week int) { return lastISOWeek(now) }

// ISOWeeksInMonth exports isoWeeksInMonth for the Scheduler's monthly/yearly cascades.
func ISOWeeksInMonth(year, month int) [][2]int { return isoWeeksInMonth(year, month) }
