package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/models"
	"github.com/spectrumcare/caredoc/internal/services/text"
)

// OCRClientFactory acquires a fresh OCR session per extraction. Sessions hold
// a native Tesseract handle, so the extractor releases each one on every exit
// path.
type OCRClientFactory func() (interfaces.OCRClient, error)

// tesseractClient wraps a gosseract client behind the OCRClient interface.
type tesseractClient struct {
	client *gosseract.Client
}

func (c *tesseractClient) SetImage(data []byte) error {
	return c.client.SetImageFromBytes(data)
}

func (c *tesseractClient) Text() (string, error) {
	return c.client.Text()
}

func (c *tesseractClient) Close() error {
	return c.client.Close()
}

// NewTesseractFactory returns an OCRClientFactory backed by the local
// Tesseract installation, configured for the given language codes.
func NewTesseractFactory(languages []string) OCRClientFactory {
	return func() (interfaces.OCRClient, error) {
		client := gosseract.NewClient()
		if len(languages) > 0 {
			if err := client.SetLanguage(languages...); err != nil {
				client.Close()
				return nil, err
			}
		}
		return &tesseractClient{client: client}, nil
	}
}

// ImageExtractor runs OCR over image buffers.
type ImageExtractor struct {
	factory OCRClientFactory
	timeout time.Duration
	logger  arbor.ILogger
}

// NewImageExtractor creates an OCR-backed image text extractor. A timeout
// of zero leaves recognition bounded only by the caller's context.
func NewImageExtractor(factory OCRClientFactory, timeout time.Duration, logger arbor.ILogger) *ImageExtractor {
	return &ImageExtractor{factory: factory, timeout: timeout, logger: logger}
}

// Format reports the handled document format.
func (e *ImageExtractor) Format() models.DocumentFormat {
	return models.FormatImage
}

// Extract acquires an OCR session, recognizes text, and releases the session
// on every path. Unreadable or text-free images produce the failure
// placeholder, logged for operational visibility.
func (e *ImageExtractor) Extract(ctx context.Context, data []byte) (models.ExtractedText, error) {
	result := models.ExtractedText{SourceFormat: models.FormatImage}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// Recognition blocks inside the native Tesseract handle, so the session
	// lives entirely in the worker goroutine and is released there even when
	// the deadline fires first.
	type ocrOutcome struct {
		text string
		err  error
	}
	outcomeCh := make(chan ocrOutcome, 1)

	go func() {
		client, err := e.factory()
		if err != nil {
			outcomeCh <- ocrOutcome{err: fmt.Errorf("failed to acquire OCR session: %w", err)}
			return
		}
		defer func() {
			if cerr := client.Close(); cerr != nil {
				e.logger.Warn().Err(cerr).Msg("Failed to release OCR session")
			}
		}()

		if err := client.SetImage(data); err != nil {
			outcomeCh <- ocrOutcome{err: fmt.Errorf("OCR could not load image: %w", err)}
			return
		}

		recognized, err := client.Text()
		outcomeCh <- ocrOutcome{text: recognized, err: err}
	}()

	var recognized string
	select {
	case outcome := <-outcomeCh:
		if outcome.err != nil {
			e.logger.Warn().Err(outcome.err).Msg("OCR recognition failed")
			result.Text = PlaceholderImageFailed
			return result, nil
		}
		recognized = outcome.text
	case <-ctx.Done():
		e.logger.Warn().Err(ctx.Err()).Msg("OCR recognition abandoned")
		result.Text = PlaceholderImageFailed
		return result, nil
	}

	extracted := text.Normalize(recognized)
	if strings.TrimSpace(extracted) == "" {
		result.Text = PlaceholderImageFailed
		return result, nil
	}

	result.Text = extracted
	result.Succeeded = true
	return result, nil
}
