package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/models"
	"github.com/spectrumcare/caredoc/internal/services/text"
)

// PDFExtractor pulls plain text from PDF buffers. A parse that yields only
// whitespace is the common scanned/image-only case and is reported as the
// scanned-PDF placeholder with Succeeded=false, not as an error.
type PDFExtractor struct {
	logger arbor.ILogger
}

// NewPDFExtractor creates a PDF text extractor
func NewPDFExtractor(logger arbor.ILogger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

// Format reports the handled document format.
func (e *PDFExtractor) Format() models.DocumentFormat {
	return models.FormatPDF
}

// Extract parses the PDF byte stream into plain text. The underlying parser
// panics on some malformed files; those are recovered and reported as the
// failure placeholder so the pipeline can continue.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (result models.ExtractedText, err error) {
	result = models.ExtractedText{SourceFormat: models.FormatPDF}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().Str("panic", fmt.Sprintf("%v", r)).Msg("PDF parser panicked, returning placeholder")
			result.Text = PlaceholderPDFFailed
			result.Succeeded = false
			err = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.PageCount = e.pageCount(data)

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to open PDF for text extraction")
		result.Text = PlaceholderPDFFailed
		return result, nil
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to read PDF plain text")
		result.Text = PlaceholderPDFFailed
		return result, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to copy PDF plain text")
		result.Text = PlaceholderPDFFailed
		return result, nil
	}

	extracted := text.Normalize(buf.String())
	if strings.TrimSpace(extracted) == "" {
		// Image-only PDF: usable for display, but flagged for callers.
		result.Text = PlaceholderScannedPDF
		return result, nil
	}

	result.Text = extracted
	result.Succeeded = true
	return result, nil
}

// pageCount reads structural metadata with pdfcpu. Best effort: 0 when the
// file cannot be read as a PDF.
func (e *PDFExtractor) pageCount(data []byte) int {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		e.logger.Debug().Err(err).Msg("pdfcpu could not read PDF context")
		return 0
	}
	return pdfCtx.PageCount
}
