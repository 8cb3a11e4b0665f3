package interfaces

import (
	"context"

	"github.com/spectrumcare/caredoc/internal/models"
)

// TextExtractor turns a raw byte buffer into normalized plain text.
//
// Contract common to all implementations: extraction never errors past this
// boundary for degraded-but-expected input (scanned PDF, unreadable image,
// undecodable text) - those cases return a placeholder ExtractedText with
// Succeeded=false. A non-nil error means the buffer was unusable in a way the
// extractor could not defensively handle, and aborts the pipeline run.
type TextExtractor interface {
	// Extract pulls plain text from the document buffer.
	Extract(ctx context.Context, data []byte) (models.ExtractedText, error)

	// Format reports which detected format this extractor handles.
	Format() models.DocumentFormat
}

// OCRClient abstracts one Tesseract session. Implementations must be released
// with Close on every path after acquisition.
type OCRClient interface {
	SetImage(data []byte) error
	Text() (string, error)
	Close() error
}
