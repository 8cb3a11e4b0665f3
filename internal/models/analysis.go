package models

import "time"

// EntityType classifies a medical entity extracted from document text.
type EntityType string

const (
	EntityCondition    EntityType = "condition"
	EntityMedication   EntityType = "medication"
	EntityProcedure    EntityType = "procedure"
	EntityTest         EntityType = "test"
	EntityProfessional EntityType = "professional"
	EntityFacility     EntityType = "facility"
)

// MedicalEntity is one entity found by the entity-extraction pass. Order in
// the containing slice follows the order of the model response, which is not
// guaranteed to match document order.
type MedicalEntity struct {
	Type         EntityType `json:"type"`
	Text         string     `json:"text"`
	Confidence   float64    `json:"confidence"` // [0,1]
	Context      string     `json:"context,omitempty"`
	StandardCode string     `json:"standard_code,omitempty"` // ICD/SNOMED code when the model supplies one
}

// Severity is the coarse severity classification reported by the
// domain-insight pass.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityUnknown  Severity = "unknown"
)

// DomainInsights is the fixed-shape record produced by the domain-insight
// pass. The zero-value-with-unknown-severity form returned by
// DefaultDomainInsights is a first-class "nothing could be determined" state,
// distinct from a genuine all-empty set of findings.
type DomainInsights struct {
	Indicators         []string        `json:"indicators"`
	Milestones         []string        `json:"milestones"`
	Observations       []string        `json:"observations"`
	Strengths          []string        `json:"strengths"`
	Challenges         []string        `json:"challenges"`
	DiagnosticCriteria map[string]bool `json:"diagnostic_criteria"`
	Severity           Severity        `json:"severity"`
}

// DefaultDomainInsights returns the explicit unknown state used when the
// domain-insight pass fails or is skipped.
func DefaultDomainInsights() DomainInsights {
	return DomainInsights{
		Indicators:         []string{},
		Milestones:         []string{},
		Observations:       []string{},
		Strengths:          []string{},
		Challenges:         []string{},
		DiagnosticCriteria: map[string]bool{},
		Severity:           SeverityUnknown,
	}
}

// Importance ranks a timeline event.
type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

// TimelineEvent is one dated event extracted from document text. Dates are
// parsed from free text and may be the model's best estimate when the source
// wording is vague.
type TimelineEvent struct {
	ID                 string     `json:"id"`
	Date               time.Time  `json:"date"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Category           string     `json:"category,omitempty"`
	Importance         Importance `json:"importance"`
	SourceDocumentType string     `json:"source_document_type,omitempty"`
	RelatedDocumentIDs []string   `json:"related_document_ids"`
	RelatedPeopleIDs   []string   `json:"related_people_ids"`
}

// AnalysisResult is the terminal aggregate of one pipeline run. It is
// assembled once and not mutated afterwards. OverallConfidence is a simple
// heuristic average, not a calibrated estimate.
type AnalysisResult struct {
	ID                string            `json:"id"`
	CaseID            string            `json:"case_id,omitempty"`
	DocumentType      string            `json:"document_type,omitempty"`
	ExtractedText     ExtractedText     `json:"extracted_text"`
	Metadata          DocumentMetadata  `json:"metadata"`
	MedicalEntities   []MedicalEntity   `json:"medical_entities"`
	DomainInsights    DomainInsights    `json:"domain_insights"`
	KeyInformation    map[string]string `json:"key_information"`
	IdentifiedNeeds   []string          `json:"identified_needs"`
	Recommendations   []string          `json:"recommendations"`
	Timeline          []TimelineEvent   `json:"timeline"`
	OverallConfidence float64           `json:"overall_confidence"` // [0,1]
	ProcessedAt       time.Time         `json:"processed_at"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
