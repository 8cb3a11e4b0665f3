package pipeline

import (
	"sync"
	"time"

	"github.com/spectrumcare/caredoc/internal/models"
)

// JobTracker is a mutex-guarded in-memory store of processing jobs, keyed by
// job id. Each job is only ever written by the pipeline run that created it;
// the lock protects the map itself for concurrent runs and status polls.
// Entries are not evicted here; the retention sweeper calls Sweep.
type JobTracker struct {
	mu   sync.RWMutex
	jobs map[string]*models.ProcessingJob
}

// NewJobTracker creates an empty job tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs: make(map[string]*models.ProcessingJob),
	}
}

// Start creates a job record with status processing and zero progress.
func (t *JobTracker) Start(jobID, documentType, caseID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[jobID] = &models.ProcessingJob{
		ID:           jobID,
		Status:       models.JobStatusProcessing,
		Progress:     0,
		CurrentStep:  "starting",
		DocumentType: documentType,
		CaseID:       caseID,
		StartedAt:    time.Now(),
	}
}

// UpdateProgress mutates progress and step label on an existing job. Unknown
// job ids are ignored.
func (t *JobTracker) UpdateProgress(jobID string, percent int, step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return
	}
	job.Progress = percent
	job.CurrentStep = step
}

// Complete marks the job completed with full progress.
func (t *JobTracker) Complete(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return
	}
	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.CurrentStep = "completed"
	job.CompletedAt = &now
}

// Fail marks the job failed, recording the error message. Progress is left at
// the point of failure.
func (t *JobTracker) Fail(jobID, errorMessage string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return
	}
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.CurrentStep = "failed"
	job.CompletedAt = &now
	job.Error = errorMessage
}

// Get returns a copy of the job record, so callers cannot mutate tracker
// state, and whether the id was known.
func (t *JobTracker) Get(jobID string) (*models.ProcessingJob, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

// List returns copies of all tracked jobs in unspecified order.
func (t *JobTracker) List() []*models.ProcessingJob {
	t.mu.RLock()
	defer t.mu.RUnlock()
	jobs := make([]*models.ProcessingJob, 0, len(t.jobs))
	for _, job := range t.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	return jobs
}

// Sweep removes terminal jobs whose completion time is older than the
// retention window and returns how many were evicted.
func (t *JobTracker) Sweep(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, job := range t.jobs {
		if !job.Terminal() || job.CompletedAt == nil {
			continue
		}
		if job.CompletedAt.Before(cutoff) {
			delete(t.jobs, id)
			removed++
		}
	}
	return removed
}
