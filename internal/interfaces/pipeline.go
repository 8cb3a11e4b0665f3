package interfaces

import (
	"context"

	"github.com/spectrumcare/caredoc/internal/models"
)

// Pipeline drives the full document-analysis sequence for uploaded documents
// and exposes job progress for polling.
type Pipeline interface {
	// ProcessDocument runs the full pipeline for one document. A non-nil
	// error means text extraction failed fatally; analytical-pass failures
	// degrade the result instead of erroring (best-effort aggregation).
	ProcessDocument(ctx context.Context, raw *models.RawDocument, opts models.ProcessOptions) (*models.AnalysisResult, error)

	// BatchProcessDocuments processes documents one at a time, skipping and
	// logging any document whose individual run fails. The returned map is
	// keyed by job ID and contains an entry per successful document.
	BatchProcessDocuments(ctx context.Context, docs []*models.RawDocument, opts models.ProcessOptions) map[string]*models.AnalysisResult

	// GetJobStatus returns the tracked job record, or false if unknown.
	GetJobStatus(jobID string) (*models.ProcessingJob, bool)

	// ListJobs returns a snapshot of all tracked jobs.
	ListJobs() []*models.ProcessingJob
}
