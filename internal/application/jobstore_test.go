package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

func TestJobStore_Create_StartsAccepted(t *testing.T) {
	s := NewJobStore()
	job := s.Create("job-1")
	assert.Equal(t, model.JobAccepted, job.Status)

	got, ok := s.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, model.JobAccepted, got.Status)
}

func TestJobStore_Lifecycle_RunningToCompleted(t *testing.T) {
	s := NewJobStore()
	s.Create("job-1")

	s.MarkRunning("job-1")
	got, _ := s.Get("job-1")
	assert.Equal(t, model.JobRunning, got.Status)

	s.MarkCompleted("job-1", "3 succeeded / 0 skipped / 0 failed")
	got, _ = s.Get("job-1")
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.Equal(t, "3 succeeded / 0 skipped / 0 failed", got.Result)
}

func TestJobStore_Lifecycle_RunningToFailed(t *testing.T) {
	s := NewJobStore()
	s.Create("job-1")
	s.MarkRunning("job-1")
	s.MarkFailed("job-1", "pipeline failed at 'fetch': boom")

	got, _ := s.Get("job-1")
	assert.Equal(t, model.JobFailed, got.Status)
	assert.Equal(t, "pipeline failed at 'fetch': boom", got.Error)
}

func TestJobStore_Get_UnknownJobNotFound(t *testing.T) {
	s := NewJobStore()
	_, ok := s.Get("does-not-exist")
	assert.False(t, ok)
}

func TestJobStore_MarkOnUnknownJob_NoPanic(t *testing.T) {
	s := NewJobStore()
	assert.NotPanics(t, func() {
		s.MarkRunning("ghost")
		s.MarkCompleted("ghost", "x")
		s.MarkFailed("ghost", "y")
	})
	_, ok := s.Get("ghost")
	assert.False(t, ok)
}
