package statestore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

func TestDailyStateStore_IsNormalizeStale(t *testing.T) {
	dir := t.TempDir()
	s := NewDailyStateStore(filepath.Join(dir, "daily_state.json"))

	assert.True(t, s.IsNormalizeStale("2025-02-16"), "no records at all is stale")

	t1 := time.Date(2025, 2, 16, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 2, 16, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetTimestamp(driven.PhaseFetch, "2025-02-16", t2))
	require.NoError(t, s.SetTimestamp(driven.PhaseNormalize, "2025-02-16", t1))

	assert.True(t, s.IsNormalizeStale("2025-02-16"), "fetch newer than normalize must be stale")

	require.NoError(t, s.SetTimestamp(driven.PhaseNormalize, "2025-02-16", t2.Add(time.Minute)))
	assert.False(t, s.IsNormalizeStale("2025-02-16"))
}

func TestDailyStateStore_StaleDates(t *testing.T) {
	dir := t.TempDir()
	s := NewDailyStateStore(filepath.Join(dir, "daily_state.json"))
	now := time.Now().UTC()
	require.NoError(t, s.SetTimestamp(driven.PhaseFetch, "2025-02-16", now))
	require.NoError(t, s.SetTimestamp(driven.PhaseNormalize, "2025-02-16", now))

	dates := []string{"2025-02-16", "2025-02-17"}
	stale := s.StaleDates(driven.PhaseNormalize, dates)
	assert.Equal(t, []string{"2025-02-17"}, stale)
}

func TestFailedDateStore_RetryableAndExhaustedAreDisjoint(t *testing.T) {
	dir := t.TempDir()
	s := NewFailedDateStore(filepath.Join(dir, "failed_dates.json"))

	require.NoError(t, s.RecordFailure("2025-02-16", driven.PhaseFetch, errors.New("Server error 503: boom"), false))
	require.NoError(t, s.RecordFailure("2025-02-16", driven.PhaseFetch, errors.New("Server error 503: boom"), false))
	require.NoError(t, s.RecordFailure("2025-02-16", driven.PhaseFetch, errors.New("Server error 503: boom"), false))
	require.NoError(t, s.RecordFailure("2025-02-17", driven.PhaseFetch, errors.New("Client error 404: not found"), true))

	candidates := []string{"2025-02-16", "2025-02-17"}
	retryable := s.RetryableDates(candidates, 3)
	exhausted := s.ExhaustedDates(3)

	for _, d := range retryable {
		assert.NotContains(t, exhausted, d)
	}
	assert.Contains(t, exhausted, "2025-02-16")
	assert.Contains(t, exhausted, "2025-02-17")
	assert.Empty(t, retryable)
}

func TestFailedDateStore_RecordSuccessClears(t *testing.T) {
	dir := t.TempDir()
	s := NewFailedDateStore(filepath.Join(dir, "failed_dates.json"))
	require.NoError(t, s.RecordFailure("2025-02-16", driven.PhaseFetch, errors.New("Server error 500"), false))
	_, ok := s.GetEntry("2025-02-16")
	require.True(t, ok)

	require.NoError(t, s.RecordSuccess("2025-02-16", driven.PhaseFetch))
	_, ok = s.GetEntry("2025-02-16")
	assert.False(t, ok)
}

func TestIsPermanentError(t *testing.T) {
	assert.True(t, IsPermanentError("Client error 404: Not Found"))
	assert.False(t, IsPermanentError("Rate limit exceeded, retry later"))
	assert.True(t, IsPermanentError("Client error 422: Unprocessable"))
	assert.False(t, IsPermanentError("Server error 503: Service Unavailable"))
}

func TestCheckpointStore_MonotonicUpdate(t *testing.T) {
	dir := t.TempDir()
	s := NewCheckpointStore(filepath.Join(dir, "checkpoints.json"))

	require.NoError(t, s.Update(driven.CheckpointLastFetch, "2025-02-16"))
	require.NoError(t, s.Update(driven.CheckpointLastFetch, "2025-02-10"))

	v, ok := s.Get(driven.CheckpointLastFetch)
	require.True(t, ok)
	assert.Equal(t, "2025-02-16", v)
}

func TestFetchProgressStore_SaveGetClear(t *testing.T) {
	dir := t.TempDir()
	s := NewFetchProgressStore(dir)

	_, ok := s.Get("2025-02-01__2025-02-28")
	assert.False(t, ok)

	progress := driven.ChunkProgress{
		PRs: map[string]model.PRRaw{
			"https://api.example.com/pulls/1": {Repo: "acme/widgets", Number: 1},
		},
	}
	require.NoError(t, s.Save("2025-02-01__2025-02-28", progress))

	got, ok := s.Get("2025-02-01__2025-02-28")
	require.True(t, ok)
	assert.Equal(t, 1, got.PRs["https://api.example.com/pulls/1"].Number)

	require.NoError(t, s.Clear("2025-02-01__2025-02-28"))
	_, ok = s.Get("2025-02-01__2025-02-28")
	assert.False(t, ok)
}
