package sniff

import (
	"bytes"

	"github.com/spectrumcare/caredoc/internal/models"
)

// signature pairs a magic-byte prefix with the format it identifies.
// Order matters: first match wins.
type signature struct {
	magic  []byte
	format models.DocumentFormat
}

var signatures = []signature{
	{magic: []byte{0x25, 0x50, 0x44, 0x46}, format: models.FormatPDF},   // %PDF
	{magic: []byte{0x50, 0x4B, 0x03, 0x04}, format: models.FormatWord},  // ZIP local file header (OOXML)
	{magic: []byte{0xFF, 0xD8}, format: models.FormatImage},             // JPEG
	{magic: []byte{0x89, 0x50, 0x4E, 0x47}, format: models.FormatImage}, // PNG
}

// DetectFormat classifies a byte buffer by its leading magic bytes. Declared
// MIME types and file extensions are caller-controlled and never consulted.
// Total function: buffers shorter than a signature simply don't match it, and
// anything unrecognized comes back as FormatUnknown - DetectFormat never
// guesses.
func DetectFormat(data []byte) models.DocumentFormat {
	for _, sig := range signatures {
		if len(data) >= len(sig.magic) && bytes.HasPrefix(data, sig.magic) {
			return sig.format
		}
	}

	if looksLikeText(data) {
		return models.FormatPlainText
	}

	return models.FormatUnknown
}

// minTextSample is the longest magic-byte prefix. Buffers shorter than this
// cannot be distinguished from a truncated signature, so the text heuristic
// never claims them and they fall through to FormatUnknown.
const minTextSample = 4

// looksLikeText reports whether the leading bytes are plausible UTF-8 text:
// no NUL bytes and a low proportion of control characters in the first 512
// bytes.
func looksLikeText(data []byte) bool {
	if len(data) < minTextSample {
		return false
	}

	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}

	control := 0
	for _, b := range sample {
		if b == 0x00 {
			return false
		}
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			control++
		}
	}

	return control*10 < len(sample)
}
