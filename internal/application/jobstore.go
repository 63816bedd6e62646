package application

import (
	"sync"
	"time"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

// JobStore is an in-memory, process-lifetime registry of asynchronous
// pipeline invocations requested through the API. Jobs do not survive a
// restart; callers that need durable history use the scheduler's own
// History ring or the relational storage sink instead.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]model.Job
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]model.Job)}
}

// Create registers a new job in the ACCEPTED state and returns its record.
func (s *JobStore) Create(jobID string) model.Job {
	now := time.Now().UTC()
	job := model.Job{JobID: jobID, Status: model.JobAccepted, CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.jobs[jobID] = job
	s.mu.Unlock()

	return job
}

// MarkRunning transitions jobID to RUNNING.
func (s *JobStore) MarkRunning(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.Status = model.JobRunning
	job.UpdatedAt = time.Now().UTC()
	s.jobs[jobID] = job
}

// MarkCompleted transitions jobID to COMPLETED with the given result string.
func (s *JobStore) MarkCompleted(jobID, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.Status = model.JobCompleted
	job.Result = result
	job.UpdatedAt = time.Now().UTC()
	s.jobs[jobID] = job
}

// MarkFailed transitions jobID to FAILED with the given error string.
func (s *JobStore) MarkFailed(jobID, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.Status = model.JobFailed
	job.Error = errMsg
	job.UpdatedAt = time.Now().UTC()
	s.jobs[jobID] = job
}

// Get returns jobID's current record and whether it exists.
func (s *JobStore) Get(jobID string) (model.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	return job, ok
}
