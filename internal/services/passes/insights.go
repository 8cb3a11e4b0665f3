package passes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spectrumcare/caredoc/internal/models"
)

// ExtractDomainInsights pulls autism-support insights from the document text.
// The declared document type is passed through as prompt context only. On any
// failure the caller substitutes models.DefaultDomainInsights, an explicit
// "nothing could be determined" state.
func (r *Runner) ExtractDomainInsights(ctx context.Context, text, documentType string) (models.DomainInsights, error) {
	instruction := fmt.Sprintf(`You are a specialist in autism support documentation.

Task: Extract autism-specific insights from this %s document.

Rules:
- indicators: behaviors or traits suggesting autism spectrum characteristics
- milestones: developmental milestones mentioned (met, delayed, or missed)
- observations: clinical or educational observations about the person
- strengths: reported strengths and abilities
- challenges: reported difficulties and support needs
- diagnostic_criteria: named diagnostic criteria mapped to whether the document indicates they are met
- severity: one of "mild", "moderate", "severe", or "unknown" if the document does not say

Output Format (JSON only, no markdown fences):
{
  "indicators": ["..."],
  "milestones": ["..."],
  "observations": ["..."],
  "strengths": ["..."],
  "challenges": ["..."],
  "diagnostic_criteria": {"social communication deficits": true},
  "severity": "moderate"
}

If a category doesn't apply, use an empty array or object.

Document Content:
%s`, documentType, truncateForPrompt(text, promptTextLimit))

	startTime := time.Now()
	response, err := r.chatJSON(ctx, "domain-insight", instruction)
	if err != nil {
		return models.DefaultDomainInsights(), err
	}

	var insights models.DomainInsights
	if err := json.Unmarshal([]byte(response), &insights); err != nil {
		return models.DefaultDomainInsights(), fmt.Errorf("domain-insight pass returned unparseable JSON: %w", err)
	}

	// Normalize nil collections and out-of-enum severity.
	if insights.Indicators == nil {
		insights.Indicators = []string{}
	}
	if insights.Milestones == nil {
		insights.Milestones = []string{}
	}
	if insights.Observations == nil {
		insights.Observations = []string{}
	}
	if insights.Strengths == nil {
		insights.Strengths = []string{}
	}
	if insights.Challenges == nil {
		insights.Challenges = []string{}
	}
	if insights.DiagnosticCriteria == nil {
		insights.DiagnosticCriteria = map[string]bool{}
	}
	switch insights.Severity {
	case models.SeverityMild, models.SeverityModerate, models.SeveritySevere:
	default:
		insights.Severity = models.SeverityUnknown
	}

	r.logger.Debug().
		Int("indicator_count", len(insights.Indicators)).
		Str("severity", string(insights.Severity)).
		Dur("duration", time.Since(startTime)).
		Msg("Domain insight extraction completed")

	return insights, nil
}
