package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/models"
	"github.com/spectrumcare/caredoc/internal/services/text"
)

// PlainTextExtractor decodes buffers as UTF-8.
type PlainTextExtractor struct {
	logger arbor.ILogger
}

// NewPlainTextExtractor creates a plain-text extractor
func NewPlainTextExtractor(logger arbor.ILogger) *PlainTextExtractor {
	return &PlainTextExtractor{logger: logger}
}

// Format reports the handled document format.
func (e *PlainTextExtractor) Format() models.DocumentFormat {
	return models.FormatPlainText
}

// Extract decodes the buffer as UTF-8. Buffers that are not valid UTF-8, or
// that normalize to nothing, produce the decode-failure placeholder.
func (e *PlainTextExtractor) Extract(ctx context.Context, data []byte) (models.ExtractedText, error) {
	result := models.ExtractedText{SourceFormat: models.FormatPlainText}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if !utf8.Valid(data) {
		e.logger.Warn().Int("size", len(data)).Msg("Buffer is not valid UTF-8")
		result.Text = PlaceholderTextFailed
		return result, nil
	}

	extracted := text.Normalize(string(data))
	if strings.TrimSpace(extracted) == "" {
		result.Text = PlaceholderTextFailed
		return result, nil
	}

	result.Text = extracted
	result.Succeeded = true
	return result, nil
}
