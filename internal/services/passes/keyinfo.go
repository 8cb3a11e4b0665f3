package passes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ExtractKeyInformation pulls the headline facts out of a document as a flat
// string-to-string map (dates, names, diagnoses, scores, referrals).
func (r *Runner) ExtractKeyInformation(ctx context.Context, text, documentType string) (map[string]string, error) {
	instruction := fmt.Sprintf(`You are a document analysis specialist.

Task: Extract the key factual information from this %s document as a flat set of named facts.

Rules:
- Use short snake_case keys (e.g. "assessment_date", "clinician_name", "diagnosis", "next_review")
- Values are plain strings taken from or summarizing the document
- Include only facts the document actually states
- Aim for the 5-15 most important facts

Output Format (JSON only, no markdown fences):
{
  "key_information": {
    "assessment_date": "2023-04-15",
    "clinician_name": "Dr. Jane Smith",
    "diagnosis": "Autism Spectrum Disorder, Level 2"
  }
}

If nothing can be extracted, use an empty object.

Document Content:
%s`, documentType, truncateForPrompt(text, promptTextLimit))

	startTime := time.Now()
	response, err := r.chatJSON(ctx, "key-information", instruction)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		KeyInformation map[string]string `json:"key_information"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("key-information pass returned unparseable JSON: %w", err)
	}
	if parsed.KeyInformation == nil {
		parsed.KeyInformation = map[string]string{}
	}

	r.logger.Debug().
		Int("fact_count", len(parsed.KeyInformation)).
		Dur("duration", time.Since(startTime)).
		Msg("Key information extraction completed")

	return parsed.KeyInformation, nil
}
