package models

import "time"

// JobStatus is the lifecycle state of one pipeline run.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ProcessingJob tracks one invocation of the pipeline for a single document.
// The orchestrator that created the job is the only writer; readers poll via
// the tracker. Terminal entries are never evicted by the tracker itself -
// the retention sweeper handles that.
type ProcessingJob struct {
	ID           string     `json:"id"`
	Status       JobStatus  `json:"status"`
	Progress     int        `json:"progress"` // [0,100]
	CurrentStep  string     `json:"current_step"`
	DocumentType string     `json:"document_type,omitempty"`
	CaseID       string     `json:"case_id,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *ProcessingJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// ProcessOptions gates the optional analytical passes of one pipeline run.
// Extraction, metadata, entity and domain-insight passes always run.
// The sentiment/summary/urgency flags are accepted for API compatibility
// with existing clients but gate no pipeline stage.
type ProcessOptions struct {
	ExtractTimeline          bool `json:"extract_timeline"`
	IdentifyNeeds            bool `json:"identify_needs"`
	GenerateRecommendations  bool `json:"generate_recommendations"`
	PerformSentimentAnalysis bool `json:"perform_sentiment_analysis"`
	GenerateSummary          bool `json:"generate_summary"`
	DetectUrgency            bool `json:"detect_urgency"`
}

// DefaultProcessOptions enables every optional pass.
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{
		ExtractTimeline:         true,
		IdentifyNeeds:           true,
		GenerateRecommendations: true,
	}
}
