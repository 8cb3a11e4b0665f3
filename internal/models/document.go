package models

// DocumentFormat is the true on-disk format of an uploaded document,
// determined from content rather than the declared MIME type.
type DocumentFormat string

const (
	FormatPDF       DocumentFormat = "pdf"
	FormatWord      DocumentFormat = "word"
	FormatImage     DocumentFormat = "image"
	FormatPlainText DocumentFormat = "text"
	FormatUnknown   DocumentFormat = "unknown"
)

// RawDocument is one uploaded document as it enters the pipeline.
// The declared MIME type and document type are caller-supplied and untrusted;
// format detection always goes by content.
type RawDocument struct {
	Data         []byte `json:"-"`
	FileName     string `json:"file_name,omitempty"`
	DeclaredMIME string `json:"declared_mime,omitempty"`
	DocumentType string `json:"document_type,omitempty"` // e.g. "assessment", "medical report" - prompt context only
	CaseID       string `json:"case_id,omitempty"`       // opaque attribution identifier, passed through unchanged
}

// ExtractedText is the normalized text pulled from a RawDocument, with
// provenance. When extraction cannot produce usable text the Text field
// carries a human-readable placeholder and Succeeded is false; callers check
// the flag rather than pattern-matching the placeholder string.
type ExtractedText struct {
	Text         string         `json:"text"`
	SourceFormat DocumentFormat `json:"source_format"`
	Succeeded    bool           `json:"succeeded"`
	PageCount    int            `json:"page_count,omitempty"` // PDF only, 0 when unknown
}

// QualityBucket is a coarse classification of extracted-text quality.
type QualityBucket string

const (
	QualityExcellent QualityBucket = "excellent"
	QualityGood      QualityBucket = "good"
	QualityFair      QualityBucket = "fair"
	QualityPoor      QualityBucket = "poor"
)

// DocumentMetadata is derived purely from extracted text and recomputed on
// every run. ReadabilityScore follows Flesch Reading Ease and may be negative
// for very dense text.
type DocumentMetadata struct {
	WordCount            int           `json:"word_count"`
	ReadabilityScore     float64       `json:"readability_score"`
	Language             string        `json:"language"`
	Quality              QualityBucket `json:"quality"`
	ExtractionConfidence float64       `json:"extraction_confidence"` // [0,1]
}
