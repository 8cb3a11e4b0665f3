package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/models"
	"github.com/spectrumcare/caredoc/internal/services/sniff"
)

// Placeholder strings substituted when an extractor cannot produce usable
// text. These flow through the downstream passes as ordinary (low-value)
// content; the Succeeded flag on ExtractedText is the authoritative signal.
const (
	PlaceholderScannedPDF  = "[This appears to be a scanned PDF. OCR processing would be required for text extraction.]"
	PlaceholderPDFFailed   = "[PDF text extraction failed. The file may be corrupt or encrypted.]"
	PlaceholderWordFailed  = "[Word document text extraction failed. The file may be corrupt or in an unsupported format.]"
	PlaceholderImageFailed = "[Image text could not be read. The image may be low quality or contain no text.]"
	PlaceholderTextFailed  = "[File content could not be decoded as text.]"
	PlaceholderUnknown     = "[Unrecognized file format. No text could be extracted.]"
)

// Service selects and runs the format-appropriate text extractor.
type Service struct {
	logger     arbor.ILogger
	extractors map[models.DocumentFormat]interfaces.TextExtractor
}

// NewService creates an extraction service with the standard extractor set.
// ocrTimeout bounds a single OCR recognition; zero disables the bound.
func NewService(ocrFactory OCRClientFactory, ocrTimeout time.Duration, logger arbor.ILogger) *Service {
	s := &Service{
		logger:     logger,
		extractors: make(map[models.DocumentFormat]interfaces.TextExtractor),
	}

	s.Register(NewPDFExtractor(logger))
	s.Register(NewWordExtractor(logger))
	s.Register(NewImageExtractor(ocrFactory, ocrTimeout, logger))
	s.Register(NewPlainTextExtractor(logger))

	return s
}

// Register adds or replaces the extractor for its format.
func (s *Service) Register(e interfaces.TextExtractor) {
	s.extractors[e.Format()] = e
}

// Extract sniffs the document format and runs the matching extractor.
// Unknown-format buffers are handed to the plain-text extractor as a last
// attempt; if it cannot decode them either, the result is the unknown-format
// placeholder. A non-nil error is only returned for buffers no extractor can
// defensively handle (nil/empty input).
func (s *Service) Extract(ctx context.Context, data []byte) (models.ExtractedText, error) {
	if len(data) == 0 {
		return models.ExtractedText{}, fmt.Errorf("document buffer is empty")
	}

	format := sniff.DetectFormat(data)

	extractor, ok := s.extractors[format]
	if !ok {
		// Unknown format: try a UTF-8 decode before giving up.
		if plain, ok := s.extractors[models.FormatPlainText]; ok {
			result, err := plain.Extract(ctx, data)
			if err == nil && result.Succeeded {
				result.SourceFormat = models.FormatUnknown
				return result, nil
			}
		}

		s.logger.Warn().Int("size", len(data)).Msg("Unrecognized document format")
		return models.ExtractedText{
			Text:         PlaceholderUnknown,
			SourceFormat: models.FormatUnknown,
			Succeeded:    false,
		}, nil
	}

	result, err := extractor.Extract(ctx, data)
	if err != nil {
		return models.ExtractedText{}, fmt.Errorf("%s extraction failed: %w", format, err)
	}

	s.logger.Debug().
		Str("format", string(format)).
		Int("text_length", len(result.Text)).
		Bool("succeeded", result.Succeeded).
		Msg("Document text extracted")

	return result, nil
}
