package passes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spectrumcare/caredoc/internal/models"
)

// IdentifyNeeds derives a list of support needs from the document text and
// the insights already extracted from it.
func (r *Runner) IdentifyNeeds(ctx context.Context, text string, insights models.DomainInsights) ([]string, error) {
	insightContext := ""
	if len(insights.Challenges) > 0 || len(insights.Indicators) > 0 {
		insightContext = fmt.Sprintf(`

Previously extracted insights to consider:
- Indicators: %s
- Challenges: %s
- Severity: %s`,
			strings.Join(insights.Indicators, "; "),
			strings.Join(insights.Challenges, "; "),
			insights.Severity)
	}

	instruction := fmt.Sprintf(`You are an autism support planning specialist.

Task: Identify the concrete support needs indicated by this document.%s

Rules:
- Each need is one short actionable sentence (e.g. "Speech and language therapy twice weekly")
- Cover educational, therapeutic, medical, and daily-living needs where indicated
- Only include needs the document or insights actually support

Output Format (JSON only, no markdown fences):
{
  "needs": ["...", "..."]
}

If no needs can be identified, use an empty array.

Document Content:
%s`, insightContext, truncateForPrompt(text, promptTextLimit))

	startTime := time.Now()
	response, err := r.chatJSON(ctx, "needs", instruction)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Needs []string `json:"needs"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("needs pass returned unparseable JSON: %w", err)
	}
	if parsed.Needs == nil {
		parsed.Needs = []string{}
	}

	r.logger.Debug().
		Int("need_count", len(parsed.Needs)).
		Dur("duration", time.Since(startTime)).
		Msg("Needs identification completed")

	return parsed.Needs, nil
}
