package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthChunks_SplitsAndClipsToBounds(t *testing.T) {
	since := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	chunks := monthChunks(since, until)

	assert.Len(t, chunks, 3)
	assert.Equal(t, "2025-01", chunks[0].key)
	assert.Equal(t, "2025-01-20", chunks[0].since)
	assert.Equal(t, "2025-01-31", chunks[0].until)
	assert.Equal(t, "2025-02", chunks[1].key)
	assert.Equal(t, "2025-02-01", chunks[1].since)
	assert.Equal(t, "2025-02-28", chunks[1].until)
	assert.Equal(t, "2025-03", chunks[2].key)
	assert.Equal(t, "2025-03-01", chunks[2].since)
	assert.Equal(t, "2025-03-05", chunks[2].until)
}

func TestDatesBetween_Inclusive(t *testing.T) {
	since := time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	dates := datesBetween(since, until)

	assert.Equal(t, []string{"2025-02-27", "2025-02-28", "2025-03-01"}, dates)
}

func TestIsoWeeksInMonth_SpansYearBoundary(t *testing.T) {
	weeks := isoWeeksInMonth(2024, 12)

	assert.NotEmpty(t, weeks)
	last := weeks[len(weeks)-1]
	assert.Equal(t, 2025, last[0])
	assert.Equal(t, 1, last[1])
}
