package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique processing-job ID with the "job_" prefix
// Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewResultID generates a unique analysis-result ID with the "result_" prefix
// Format: result_<uuid>
func NewResultID() string {
	return "result_" + uuid.New().String()
}

// NewEventID generates a unique timeline-event ID with the "event_" prefix
// Format: event_<uuid>
func NewEventID() string {
	return "event_" + uuid.New().String()
}
