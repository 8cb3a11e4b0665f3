package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/llmtest"
	"github.com/spectrumcare/caredoc/internal/models"
	"github.com/spectrumcare/caredoc/internal/services/extract"
	"github.com/spectrumcare/caredoc/internal/services/passes"
)

// Prompt markers that distinguish the six pass instructions.
const (
	markerEntities        = "Identify all medical entities"
	markerInsights        = "autism-specific insights"
	markerKeyInfo         = "key factual information"
	markerTimeline        = "Extract dated events"
	markerNeeds           = "concrete support needs"
	markerRecommendations = "practical recommendations"
)

// emptySelectiveLLM answers every pass with its empty result.
func emptySelectiveLLM() *llmtest.SelectiveLLM {
	return llmtest.NewSelectiveLLM(`{}`).
		Respond(markerEntities, `{"entities": []}`).
		Respond(markerInsights, `{"severity": "unknown"}`).
		Respond(markerKeyInfo, `{"key_information": {}}`).
		Respond(markerTimeline, `{"events": []}`).
		Respond(markerNeeds, `{"needs": []}`).
		Respond(markerRecommendations, `{"recommendations": []}`)
}

func newTestOrchestrator(t *testing.T, llmService interfaces.LLMService) *Orchestrator {
	t.Helper()
	logger := common.GetLogger()
	cfg := &common.PipelineConfig{
		PassTimeout:      "10s",
		BatchConcurrency: 1,
	}
	extractor := extract.NewService(nil, 0, logger)
	runner := passes.NewRunner(llmService, llmtest.FastRetryConfig(), logger)
	return NewOrchestrator(extractor, runner, NewJobTracker(), cfg, logger)
}

func plainTextDoc() *models.RawDocument {
	return &models.RawDocument{
		Data: []byte("Assessment conducted on 2023-04-15 by Dr. Jane Smith. " +
			"The assessment found moderate difficulties with expressive language. " +
			"Recommendation: speech and language therapy twice weekly."),
		FileName:     "assessment.txt",
		DocumentType: "assessment",
		CaseID:       "case_42",
	}
}

func TestProcessDocumentBestEffortAggregation(t *testing.T) {
	// Timeline pass fails; everything else succeeds.
	mock := emptySelectiveLLM().
		Respond(markerEntities, `{"entities": [{"type": "condition", "text": "expressive language disorder", "confidence": 0.9}]}`).
		Respond(markerInsights, `{"indicators": ["expressive language delay"], "severity": "moderate"}`).
		Respond(markerKeyInfo, `{"key_information": {"assessment_date": "2023-04-15"}}`).
		Respond(markerNeeds, `{"needs": ["Speech and language therapy"]}`).
		Respond(markerRecommendations, `{"recommendations": ["Book a six-month review"]}`)
	mock.Fail(markerTimeline, errors.New("connection reset"))

	orchestrator := newTestOrchestrator(t, mock)

	result, err := orchestrator.ProcessDocument(context.Background(), plainTextDoc(), models.DefaultProcessOptions())
	require.NoError(t, err)
	require.NotNil(t, result)

	// Failed pass degrades to empty, everything else is populated
	assert.Empty(t, result.Timeline)
	require.Len(t, result.MedicalEntities, 1)
	assert.Equal(t, []string{"expressive language delay"}, result.DomainInsights.Indicators)
	assert.Equal(t, "2023-04-15", result.KeyInformation["assessment_date"])
	assert.Equal(t, []string{"Speech and language therapy"}, result.IdentifiedNeeds)
	assert.Equal(t, []string{"Book a six-month review"}, result.Recommendations)
	assert.True(t, result.ExtractedText.Succeeded)
	assert.Equal(t, "case_42", result.CaseID)

	// The job still completed
	jobs := orchestrator.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobStatusCompleted, jobs[0].Status)
	assert.Equal(t, 100, jobs[0].Progress)

	// (0.9 entity mean + found-indicator bonus 0.8 + metadata confidence) / 3
	expected := (result.Metadata.ExtractionConfidence + 0.9 + insightFoundBonus) / 3
	assert.InDelta(t, expected, result.OverallConfidence, 1e-9)
}

// progressProbe records the job's tracked progress at every Chat call.
type progressProbe struct {
	inner        interfaces.LLMService
	orchestrator *Orchestrator
	observed     []int
}

func (p *progressProbe) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	for _, job := range p.orchestrator.ListJobs() {
		p.observed = append(p.observed, job.Progress)
	}
	return p.inner.Chat(ctx, messages)
}

func (p *progressProbe) HealthCheck(ctx context.Context) error { return nil }
func (p *progressProbe) Close() error                          { return nil }

func TestProcessDocumentProgressMonotonic(t *testing.T) {
	probe := &progressProbe{inner: emptySelectiveLLM()}
	orchestrator := newTestOrchestrator(t, probe)
	probe.orchestrator = orchestrator

	_, err := orchestrator.ProcessDocument(context.Background(), plainTextDoc(), models.DefaultProcessOptions())
	require.NoError(t, err)

	require.NotEmpty(t, probe.observed)
	for i := 1; i < len(probe.observed); i++ {
		assert.GreaterOrEqual(t, probe.observed[i], probe.observed[i-1],
			"progress regressed: %v", probe.observed)
	}

	jobs := orchestrator.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, 100, jobs[0].Progress)
	assert.Equal(t, models.JobStatusCompleted, jobs[0].Status)
}

func TestProcessDocumentFatalExtractionFailure(t *testing.T) {
	orchestrator := newTestOrchestrator(t, emptySelectiveLLM())

	doc := &models.RawDocument{Data: nil, FileName: "empty.bin"}
	result, err := orchestrator.ProcessDocument(context.Background(), doc, models.DefaultProcessOptions())
	require.Error(t, err)
	assert.Nil(t, result)

	jobs := orchestrator.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobStatusFailed, jobs[0].Status)
	assert.Less(t, jobs[0].Progress, 100)
	assert.NotEmpty(t, jobs[0].Error)
}

// cancellingLLM cancels the run's context during the first pass, simulating a
// caller abort mid-pipeline.
type cancellingLLM struct {
	inner  interfaces.LLMService
	cancel context.CancelFunc
	fired  bool
}

func (c *cancellingLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if !c.fired {
		c.fired = true
		response, err := c.inner.Chat(ctx, messages)
		c.cancel()
		return response, err
	}
	return c.inner.Chat(ctx, messages)
}

func (c *cancellingLLM) HealthCheck(ctx context.Context) error { return nil }
func (c *cancellingLLM) Close() error                          { return nil }

func TestProcessDocumentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wrapped := &cancellingLLM{inner: emptySelectiveLLM(), cancel: cancel}
	orchestrator := newTestOrchestrator(t, wrapped)

	result, err := orchestrator.ProcessDocument(ctx, plainTextDoc(), models.DefaultProcessOptions())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)

	jobs := orchestrator.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobStatusFailed, jobs[0].Status)
	assert.Less(t, jobs[0].Progress, 100)
	assert.Contains(t, jobs[0].Error, "cancelled")
}

// markerCancellingLLM cancels the run's context while serving the pass whose
// prompt contains marker, simulating an abort during the last pipeline stage.
type markerCancellingLLM struct {
	inner  interfaces.LLMService
	cancel context.CancelFunc
	marker string
}

func (c *markerCancellingLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	response, err := c.inner.Chat(ctx, messages)
	for _, msg := range messages {
		if strings.Contains(msg.Content, c.marker) {
			c.cancel()
		}
	}
	return response, err
}

func (c *markerCancellingLLM) HealthCheck(ctx context.Context) error { return nil }
func (c *markerCancellingLLM) Close() error                          { return nil }

func TestProcessDocumentCancellationDuringFinalPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Recommendations is the last gated pass; cancelling there must not let
	// the job slide into completed.
	wrapped := &markerCancellingLLM{inner: emptySelectiveLLM(), cancel: cancel, marker: markerRecommendations}
	orchestrator := newTestOrchestrator(t, wrapped)

	result, err := orchestrator.ProcessDocument(ctx, plainTextDoc(), models.DefaultProcessOptions())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)

	jobs := orchestrator.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobStatusFailed, jobs[0].Status)
	assert.Less(t, jobs[0].Progress, 100)
	assert.Contains(t, jobs[0].Error, "cancelled")
}

func TestProcessDocumentScannedPDFScenario(t *testing.T) {
	orchestrator := newTestOrchestrator(t, emptySelectiveLLM())

	// 50-byte buffer with a PDF signature but no extractable text
	data := append([]byte("%PDF-1.4"), make([]byte, 42)...)
	doc := &models.RawDocument{Data: data, FileName: "scan.pdf", DocumentType: "medical report"}

	result, err := orchestrator.ProcessDocument(context.Background(), doc, models.DefaultProcessOptions())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, models.FormatPDF, result.ExtractedText.SourceFormat)
	assert.False(t, result.ExtractedText.Succeeded)
	assert.True(t, strings.HasPrefix(result.ExtractedText.Text, "["), "expected placeholder text, got %q", result.ExtractedText.Text)

	// Downstream passes found nothing in the placeholder
	assert.Empty(t, result.MedicalEntities)
	assert.Empty(t, result.DomainInsights.Indicators)
	assert.Equal(t, models.SeverityUnknown, result.DomainInsights.Severity)
	assert.Equal(t, models.QualityPoor, result.Metadata.Quality)

	// Overall confidence: metadata confidence, entity default, empty-insight bonus
	expected := (result.Metadata.ExtractionConfidence + defaultEntityConfidence + insightEmptyBonus) / 3
	assert.InDelta(t, expected, result.OverallConfidence, 1e-9)

	jobs := orchestrator.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobStatusCompleted, jobs[0].Status)
}

func TestBatchProcessDocumentsPartialFailure(t *testing.T) {
	orchestrator := newTestOrchestrator(t, emptySelectiveLLM())

	docs := []*models.RawDocument{
		plainTextDoc(),
		{Data: nil, FileName: "broken.bin"}, // fatal: empty buffer
		plainTextDoc(),
	}

	results := orchestrator.BatchProcessDocuments(context.Background(), docs, models.DefaultProcessOptions())
	assert.Len(t, results, 2)

	// All three jobs were tracked; the failed one reads failed
	jobs := orchestrator.ListJobs()
	require.Len(t, jobs, 3)
	failed := 0
	for _, job := range jobs {
		if job.Status == models.JobStatusFailed {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestGetJobStatusUnknown(t *testing.T) {
	orchestrator := newTestOrchestrator(t, emptySelectiveLLM())
	_, ok := orchestrator.GetJobStatus("job_unknown")
	assert.False(t, ok)
}

func TestOptionalPassesSkipped(t *testing.T) {
	mock := emptySelectiveLLM()
	orchestrator := newTestOrchestrator(t, mock)

	result, err := orchestrator.ProcessDocument(context.Background(), plainTextDoc(), models.ProcessOptions{})
	require.NoError(t, err)

	assert.Empty(t, result.Timeline)
	assert.Empty(t, result.IdentifiedNeeds)
	assert.Empty(t, result.Recommendations)
	assert.NotNil(t, result.Timeline)
	assert.NotNil(t, result.IdentifiedNeeds)
	assert.NotNil(t, result.Recommendations)
}
