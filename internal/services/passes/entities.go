package passes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spectrumcare/caredoc/internal/models"
)

var validEntityTypes = map[models.EntityType]bool{
	models.EntityCondition:    true,
	models.EntityMedication:   true,
	models.EntityProcedure:    true,
	models.EntityTest:         true,
	models.EntityProfessional: true,
	models.EntityFacility:     true,
}

// ExtractMedicalEntities identifies medical entities mentioned in the
// document text. Entities with an unrecognized type or empty text are dropped
// rather than surfaced with a broken shape; confidences are clamped to [0,1].
func (r *Runner) ExtractMedicalEntities(ctx context.Context, text string) ([]models.MedicalEntity, error) {
	instruction := fmt.Sprintf(`You are a medical document analysis specialist.

Task: Identify all medical entities mentioned in the document below.

Rules:
- Classify each entity as one of: condition, medication, procedure, test, professional, facility
- Report a confidence between 0.0 and 1.0 for each entity
- Include a short surrounding context snippet for each entity
- Include a standard code (ICD-10 or SNOMED) only when you are certain of it
- List entities in the order they appear in your analysis

Output Format (JSON only, no markdown fences):
{
  "entities": [
    {"type": "condition", "text": "autism spectrum disorder", "confidence": 0.95, "context": "diagnosed with autism spectrum disorder in 2021", "standard_code": "F84.0"}
  ]
}

If no entities are found, use an empty array.

Document Content:
%s`, truncateForPrompt(text, promptTextLimit))

	startTime := time.Now()
	response, err := r.chatJSON(ctx, "medical-entity", instruction)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Entities []models.MedicalEntity `json:"entities"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("medical-entity pass returned unparseable JSON: %w", err)
	}

	entities := make([]models.MedicalEntity, 0, len(parsed.Entities))
	for _, entity := range parsed.Entities {
		if entity.Text == "" || !validEntityTypes[entity.Type] {
			continue
		}
		entity.Confidence = clampConfidence(entity.Confidence)
		entities = append(entities, entity)
	}

	r.logger.Debug().
		Int("entity_count", len(entities)).
		Dur("duration", time.Since(startTime)).
		Msg("Medical entity extraction completed")

	return entities, nil
}
