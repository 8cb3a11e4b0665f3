package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// JobHandler serves job progress queries.
type JobHandler struct {
	pipeline interfaces.Pipeline
	logger   arbor.ILogger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(pipeline interfaces.Pipeline, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// ListHandler handles GET /api/jobs
func (h *JobHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobs := h.pipeline.ListJobs()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

// GetHandler handles GET /api/jobs/{id}
func (h *JobHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, ok := h.pipeline.GetJobStatus(jobID)
	if !ok {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}
