package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/models"
	"github.com/spectrumcare/caredoc/internal/services/text"
)

// WordExtractor unpacks OOXML word documents and pulls the raw text content
// of word/document.xml.
type WordExtractor struct {
	logger arbor.ILogger
}

// NewWordExtractor creates a Word document text extractor
func NewWordExtractor(logger arbor.ILogger) *WordExtractor {
	return &WordExtractor{logger: logger}
}

// Format reports the handled document format.
func (e *WordExtractor) Format() models.DocumentFormat {
	return models.FormatWord
}

// Extract unpacks the archive-based document format and walks the XML for
// character data. Corrupt archives, missing document.xml, and truncated XML
// all come back as the failure placeholder, never an error.
func (e *WordExtractor) Extract(ctx context.Context, data []byte) (models.ExtractedText, error) {
	result := models.ExtractedText{SourceFormat: models.FormatWord}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to open Word document archive")
		result.Text = PlaceholderWordFailed
		return result, nil
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		e.logger.Warn().Msg("Word archive has no word/document.xml")
		result.Text = PlaceholderWordFailed
		return result, nil
	}

	rc, err := docFile.Open()
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to open word/document.xml")
		result.Text = PlaceholderWordFailed
		return result, nil
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to read word/document.xml")
		result.Text = PlaceholderWordFailed
		return result, nil
	}

	extracted := text.Normalize(stripDocumentXML(raw))
	if strings.TrimSpace(extracted) == "" {
		result.Text = PlaceholderWordFailed
		return result, nil
	}

	result.Text = extracted
	result.Succeeded = true
	return result, nil
}

// stripDocumentXML walks the document XML and keeps character data, inserting
// line breaks at paragraph and break boundaries.
func stripDocumentXML(raw []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Truncated or malformed XML: keep whatever was collected.
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return buf.String()
}
