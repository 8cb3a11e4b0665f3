package passes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/llmtest"
	"github.com/spectrumcare/caredoc/internal/models"
)

func newTestRunner(mock interfaces.LLMService) *Runner {
	return NewRunner(mock, llmtest.FastRetryConfig(), common.GetLogger())
}

func TestCleanMarkdownFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"uppercase fence", "```JSON\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownFences(tt.input))
		})
	}
}

func TestExtractMedicalEntities(t *testing.T) {
	t.Run("parses and filters entities", func(t *testing.T) {
		mock := llmtest.NewMockLLM("```json\n" + `{
			"entities": [
				{"type": "condition", "text": "autism spectrum disorder", "confidence": 0.95, "context": "diagnosed with ASD"},
				{"type": "medication", "text": "melatonin", "confidence": 1.7},
				{"type": "spaceship", "text": "not a medical thing", "confidence": 0.9},
				{"type": "condition", "text": "", "confidence": 0.5}
			]
		}` + "\n```")
		runner := newTestRunner(mock)

		entities, err := runner.ExtractMedicalEntities(context.Background(), "some document text")
		require.NoError(t, err)
		require.Len(t, entities, 2)
		assert.Equal(t, models.EntityCondition, entities[0].Type)
		assert.Equal(t, "autism spectrum disorder", entities[0].Text)
		// Confidence above 1 is clamped
		assert.Equal(t, 1.0, entities[1].Confidence)
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		runner := newTestRunner(llmtest.NewMockLLM("this is not json"))
		_, err := runner.ExtractMedicalEntities(context.Background(), "text")
		require.Error(t, err)
	})

	t.Run("provider failure is an error", func(t *testing.T) {
		runner := newTestRunner(llmtest.NewFailingLLM(errors.New("connection refused")))
		_, err := runner.ExtractMedicalEntities(context.Background(), "text")
		require.Error(t, err)
	})
}

func TestExtractDomainInsights(t *testing.T) {
	t.Run("normalizes nil collections and bad severity", func(t *testing.T) {
		mock := llmtest.NewMockLLM(`{"indicators": ["limited eye contact"], "severity": "catastrophic"}`)
		runner := newTestRunner(mock)

		insights, err := runner.ExtractDomainInsights(context.Background(), "text", "assessment")
		require.NoError(t, err)
		assert.Equal(t, []string{"limited eye contact"}, insights.Indicators)
		assert.NotNil(t, insights.Milestones)
		assert.NotNil(t, insights.DiagnosticCriteria)
		assert.Equal(t, models.SeverityUnknown, insights.Severity)
	})

	t.Run("valid severity preserved", func(t *testing.T) {
		mock := llmtest.NewMockLLM(`{"severity": "moderate"}`)
		runner := newTestRunner(mock)

		insights, err := runner.ExtractDomainInsights(context.Background(), "text", "assessment")
		require.NoError(t, err)
		assert.Equal(t, models.SeverityModerate, insights.Severity)
	})

	t.Run("failure returns the unknown default", func(t *testing.T) {
		runner := newTestRunner(llmtest.NewFailingLLM(errors.New("boom")))
		insights, err := runner.ExtractDomainInsights(context.Background(), "text", "assessment")
		require.Error(t, err)
		assert.Equal(t, models.DefaultDomainInsights(), insights)
	})
}

func TestExtractKeyInformation(t *testing.T) {
	t.Run("parses fact map", func(t *testing.T) {
		mock := llmtest.NewMockLLM(`{"key_information": {"assessment_date": "2023-04-15", "clinician_name": "Dr. Jane Smith"}}`)
		runner := newTestRunner(mock)

		facts, err := runner.ExtractKeyInformation(context.Background(), "text", "assessment")
		require.NoError(t, err)
		assert.Equal(t, "2023-04-15", facts["assessment_date"])
		assert.Len(t, facts, 2)
	})

	t.Run("missing map becomes empty", func(t *testing.T) {
		runner := newTestRunner(llmtest.NewMockLLM(`{}`))
		facts, err := runner.ExtractKeyInformation(context.Background(), "text", "assessment")
		require.NoError(t, err)
		assert.NotNil(t, facts)
		assert.Empty(t, facts)
	})
}

func TestExtractTimeline(t *testing.T) {
	t.Run("sorts events and defaults importance", func(t *testing.T) {
		mock := llmtest.NewMockLLM(`{
			"events": [
				{"date": "2023-04-15", "title": "Review meeting", "importance": "high"},
				{"date": "2021-09-01", "title": "Initial assessment", "importance": "urgent"},
				{"date": "not a date", "title": "Mystery event"},
				{"date": "2022-06-10", "title": ""}
			]
		}`)
		runner := newTestRunner(mock)

		events, err := runner.ExtractTimeline(context.Background(), "text", "medical report")
		require.NoError(t, err)
		require.Len(t, events, 2)

		// Chronological regardless of response order
		assert.Equal(t, "Initial assessment", events[0].Title)
		assert.Equal(t, "Review meeting", events[1].Title)
		assert.True(t, events[0].Date.Before(events[1].Date))

		// Out-of-enum importance defaults to medium
		assert.Equal(t, models.ImportanceMedium, events[0].Importance)
		assert.Equal(t, models.ImportanceHigh, events[1].Importance)

		for _, event := range events {
			assert.NotEmpty(t, event.ID)
			assert.Equal(t, "medical report", event.SourceDocumentType)
			assert.NotNil(t, event.RelatedDocumentIDs)
			assert.NotNil(t, event.RelatedPeopleIDs)
		}
	})

	t.Run("loose date forms accepted", func(t *testing.T) {
		date, ok := parseTimelineDate("January 5, 2022")
		require.True(t, ok)
		assert.Equal(t, time.Date(2022, time.January, 5, 0, 0, 0, 0, time.UTC), date)

		date, ok = parseTimelineDate("2021")
		require.True(t, ok)
		assert.Equal(t, 2021, date.Year())

		_, ok = parseTimelineDate("last spring")
		assert.False(t, ok)
	})
}

func TestIdentifyNeeds(t *testing.T) {
	mock := llmtest.NewMockLLM(`{"needs": ["Speech and language therapy twice weekly"]}`)
	runner := newTestRunner(mock)

	insights := models.DefaultDomainInsights()
	insights.Challenges = []string{"expressive language delay"}

	needs, err := runner.IdentifyNeeds(context.Background(), "text", insights)
	require.NoError(t, err)
	assert.Equal(t, []string{"Speech and language therapy twice weekly"}, needs)

	// Prior insights flow into the prompt
	require.Len(t, mock.Requests, 1)
	assert.Contains(t, mock.Requests[0], "expressive language delay")
}

func TestGenerateRecommendations(t *testing.T) {
	mock := llmtest.NewMockLLM(`{"recommendations": ["Request an updated sensory profile", "Book a review in six months"]}`)
	runner := newTestRunner(mock)

	recommendations, err := runner.GenerateRecommendations(context.Background(), "text",
		map[string]string{"diagnosis": "ASD Level 2"}, models.DefaultDomainInsights())
	require.NoError(t, err)
	assert.Len(t, recommendations, 2)

	require.Len(t, mock.Requests, 1)
	assert.Contains(t, mock.Requests[0], "ASD Level 2")
}
