package passes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spectrumcare/caredoc/internal/models"
)

// GenerateRecommendations produces next-step recommendations from the
// document text, the key facts, and the domain insights extracted earlier.
func (r *Runner) GenerateRecommendations(ctx context.Context, text string, keyInformation map[string]string, insights models.DomainInsights) ([]string, error) {
	var contextParts []string
	if len(keyInformation) > 0 {
		facts := make([]string, 0, len(keyInformation))
		for key, value := range keyInformation {
			facts = append(facts, fmt.Sprintf("%s: %s", key, value))
		}
		contextParts = append(contextParts, "Key facts: "+strings.Join(facts, "; "))
	}
	if len(insights.Challenges) > 0 {
		contextParts = append(contextParts, "Challenges: "+strings.Join(insights.Challenges, "; "))
	}
	if len(insights.Strengths) > 0 {
		contextParts = append(contextParts, "Strengths: "+strings.Join(insights.Strengths, "; "))
	}

	priorContext := ""
	if len(contextParts) > 0 {
		priorContext = "\n\nPreviously extracted context:\n- " + strings.Join(contextParts, "\n- ")
	}

	instruction := fmt.Sprintf(`You are an autism support planning specialist.

Task: Generate practical recommendations for the family and care team based on this document.%s

Rules:
- Each recommendation is one short actionable sentence
- Recommendations should build on reported strengths and address reported challenges
- Include follow-up or review steps where the document suggests them
- Aim for 3-8 recommendations

Output Format (JSON only, no markdown fences):
{
  "recommendations": ["...", "..."]
}

If no recommendations can be made, use an empty array.

Document Content:
%s`, priorContext, truncateForPrompt(text, promptTextLimit))

	startTime := time.Now()
	response, err := r.chatJSON(ctx, "recommendation", instruction)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("recommendation pass returned unparseable JSON: %w", err)
	}
	if parsed.Recommendations == nil {
		parsed.Recommendations = []string{}
	}

	r.logger.Debug().
		Int("recommendation_count", len(parsed.Recommendations)).
		Dur("duration", time.Since(startTime)).
		Msg("Recommendation generation completed")

	return parsed.Recommendations, nil
}
