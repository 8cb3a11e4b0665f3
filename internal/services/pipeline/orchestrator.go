package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/models"
	"github.com/spectrumcare/caredoc/internal/services/extract"
	"github.com/spectrumcare/caredoc/internal/services/passes"
	"github.com/spectrumcare/caredoc/internal/services/text"
)

// Confidence components for the overall score when a pass produced nothing.
const (
	defaultEntityConfidence = 0.5
	insightFoundBonus       = 0.8
	insightEmptyBonus       = 0.6
)

// Orchestrator drives the full analysis sequence for one document: extract,
// score, then the analytical passes, aggregating partial successes into one
// AnalysisResult. Text extraction is the only stage allowed to abort a run;
// every analytical pass degrades to its default value on failure.
type Orchestrator struct {
	extractor *extract.Service
	runner    *passes.Runner
	tracker   *JobTracker
	config    *common.PipelineConfig
	logger    arbor.ILogger
}

// NewOrchestrator creates a pipeline orchestrator. The job tracker is owned
// by the caller so status reads and the retention sweeper can share it.
func NewOrchestrator(extractor *extract.Service, runner *passes.Runner, tracker *JobTracker, config *common.PipelineConfig, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		runner:    runner,
		tracker:   tracker,
		config:    config,
		logger:    logger,
	}
}

// ProcessDocument runs the full pipeline for one document.
func (o *Orchestrator) ProcessDocument(ctx context.Context, raw *models.RawDocument, opts models.ProcessOptions) (*models.AnalysisResult, error) {
	_, result, err := o.processDocument(ctx, raw, opts)
	return result, err
}

// processDocument is the worker behind ProcessDocument and the batch variant.
// It returns the job id so batch callers can key their result map.
func (o *Orchestrator) processDocument(ctx context.Context, raw *models.RawDocument, opts models.ProcessOptions) (string, *models.AnalysisResult, error) {
	jobID := common.NewJobID()
	o.tracker.Start(jobID, raw.DocumentType, raw.CaseID)

	o.logger.Info().
		Str("job_id", jobID).
		Str("document_type", raw.DocumentType).
		Str("case_id", raw.CaseID).
		Int("size_bytes", len(raw.Data)).
		Msg("Starting document processing")

	startTime := time.Now()

	// Text extraction is the one fatal stage: without text nothing
	// downstream is meaningful.
	extracted, err := o.extractor.Extract(ctx, raw.Data)
	if err != nil {
		o.tracker.Fail(jobID, err.Error())
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("Text extraction failed")
		return jobID, nil, fmt.Errorf("text extraction failed for job %s: %w", jobID, err)
	}
	o.tracker.UpdateProgress(jobID, 20, "text extracted")

	metadata := text.ComputeMetadata(extracted.Text)
	o.tracker.UpdateProgress(jobID, 30, "metadata computed")

	if err := o.checkCancelled(ctx, jobID); err != nil {
		return jobID, nil, err
	}

	entities := o.runEntityPass(ctx, jobID, extracted.Text)
	o.tracker.UpdateProgress(jobID, 40, "medical entities extracted")

	if err := o.checkCancelled(ctx, jobID); err != nil {
		return jobID, nil, err
	}

	insights := o.runInsightPass(ctx, jobID, extracted.Text, raw.DocumentType)
	o.tracker.UpdateProgress(jobID, 60, "domain insights extracted")

	if err := o.checkCancelled(ctx, jobID); err != nil {
		return jobID, nil, err
	}

	keyInformation := o.runKeyInfoPass(ctx, jobID, extracted.Text, raw.DocumentType)
	o.tracker.UpdateProgress(jobID, 70, "key information extracted")

	timeline := []models.TimelineEvent{}
	if opts.ExtractTimeline {
		if err := o.checkCancelled(ctx, jobID); err != nil {
			return jobID, nil, err
		}
		timeline = o.runTimelinePass(ctx, jobID, extracted.Text, raw.DocumentType)
		o.tracker.UpdateProgress(jobID, 80, "timeline extracted")
	}

	identifiedNeeds := []string{}
	if opts.IdentifyNeeds {
		if err := o.checkCancelled(ctx, jobID); err != nil {
			return jobID, nil, err
		}
		identifiedNeeds = o.runNeedsPass(ctx, jobID, extracted.Text, insights)
		o.tracker.UpdateProgress(jobID, 85, "needs identified")
	}

	recommendations := []string{}
	if opts.GenerateRecommendations {
		if err := o.checkCancelled(ctx, jobID); err != nil {
			return jobID, nil, err
		}
		recommendations = o.runRecommendationPass(ctx, jobID, extracted.Text, keyInformation, insights)
		o.tracker.UpdateProgress(jobID, 90, "recommendations generated")
	}

	// Cancellation during the final gated pass would otherwise degrade that
	// pass and complete the job anyway.
	if err := o.checkCancelled(ctx, jobID); err != nil {
		return jobID, nil, err
	}

	// Re-sort defensively: a pass ordering claim is never trusted for a
	// downstream invariant.
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Date.Before(timeline[j].Date)
	})

	now := time.Now()
	result := &models.AnalysisResult{
		ID:                common.NewResultID(),
		CaseID:            raw.CaseID,
		DocumentType:      raw.DocumentType,
		ExtractedText:     extracted,
		Metadata:          metadata,
		MedicalEntities:   entities,
		DomainInsights:    insights,
		KeyInformation:    keyInformation,
		IdentifiedNeeds:   identifiedNeeds,
		Recommendations:   recommendations,
		Timeline:          timeline,
		OverallConfidence: overallConfidence(metadata, entities, insights),
		ProcessedAt:       now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	o.tracker.Complete(jobID)

	o.logger.Info().
		Str("job_id", jobID).
		Str("result_id", result.ID).
		Float64("confidence", result.OverallConfidence).
		Int("entity_count", len(entities)).
		Dur("duration", time.Since(startTime)).
		Msg("Document processing completed")

	return jobID, result, nil
}

// BatchProcessDocuments processes documents with at most the configured
// concurrency (sequential when the bound is 1 or less). A document whose run
// fails is logged and skipped; the batch itself never errors.
func (o *Orchestrator) BatchProcessDocuments(ctx context.Context, docs []*models.RawDocument, opts models.ProcessOptions) map[string]*models.AnalysisResult {
	results := make(map[string]*models.AnalysisResult)
	if len(docs) == 0 {
		return results
	}

	concurrency := o.config.BatchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(docs) {
		concurrency = len(docs)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)

	for i, doc := range docs {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, raw *models.RawDocument) {
			defer wg.Done()
			defer func() { <-sem }()

			jobID, result, err := o.processDocument(ctx, raw, opts)
			if err != nil {
				o.logger.Warn().
					Err(err).
					Int("batch_index", index).
					Str("file_name", raw.FileName).
					Msg("Skipping failed document in batch")
				return
			}

			mu.Lock()
			results[jobID] = result
			mu.Unlock()
		}(i, doc)
	}

	wg.Wait()

	o.logger.Info().
		Int("submitted", len(docs)).
		Int("succeeded", len(results)).
		Msg("Batch processing finished")

	return results
}

// GetJobStatus returns the tracked job record, or false if unknown.
func (o *Orchestrator) GetJobStatus(jobID string) (*models.ProcessingJob, bool) {
	return o.tracker.Get(jobID)
}

// ListJobs returns a snapshot of all tracked jobs.
func (o *Orchestrator) ListJobs() []*models.ProcessingJob {
	return o.tracker.List()
}

// Tracker exposes the underlying job tracker for the retention sweeper.
func (o *Orchestrator) Tracker() *JobTracker {
	return o.tracker
}

// checkCancelled marks the job failed when the caller's context has been
// cancelled, so an aborted run is never reported as silently completed.
func (o *Orchestrator) checkCancelled(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		o.tracker.Fail(jobID, "cancelled: "+err.Error())
		o.logger.Warn().Str("job_id", jobID).Msg("Processing cancelled")
		return fmt.Errorf("processing cancelled for job %s: %w", jobID, err)
	}
	return nil
}

// passContext bounds a single analytical pass with the configured timeout.
func (o *Orchestrator) passContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.config.PassTimeoutDuration())
}

func (o *Orchestrator) runEntityPass(ctx context.Context, jobID, docText string) []models.MedicalEntity {
	passCtx, cancel := o.passContext(ctx)
	defer cancel()

	entities, err := o.runner.ExtractMedicalEntities(passCtx, docText)
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", jobID).Msg("Entity pass failed, continuing with empty result")
		return []models.MedicalEntity{}
	}
	return entities
}

func (o *Orchestrator) runInsightPass(ctx context.Context, jobID, docText, documentType string) models.DomainInsights {
	passCtx, cancel := o.passContext(ctx)
	defer cancel()

	insights, err := o.runner.ExtractDomainInsights(passCtx, docText, documentType)
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", jobID).Msg("Insight pass failed, continuing with unknown default")
		return models.DefaultDomainInsights()
	}
	return insights
}

func (o *Orchestrator) runKeyInfoPass(ctx context.Context, jobID, docText, documentType string) map[string]string {
	passCtx, cancel := o.passContext(ctx)
	defer cancel()

	keyInformation, err := o.runner.ExtractKeyInformation(passCtx, docText, documentType)
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", jobID).Msg("Key-information pass failed, continuing with empty result")
		return map[string]string{}
	}
	return keyInformation
}

func (o *Orchestrator) runTimelinePass(ctx context.Context, jobID, docText, documentType string) []models.TimelineEvent {
	passCtx, cancel := o.passContext(ctx)
	defer cancel()

	timeline, err := o.runner.ExtractTimeline(passCtx, docText, documentType)
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", jobID).Msg("Timeline pass failed, continuing with empty result")
		return []models.TimelineEvent{}
	}
	return timeline
}

func (o *Orchestrator) runNeedsPass(ctx context.Context, jobID, docText string, insights models.DomainInsights) []string {
	passCtx, cancel := o.passContext(ctx)
	defer cancel()

	needs, err := o.runner.IdentifyNeeds(passCtx, docText, insights)
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", jobID).Msg("Needs pass failed, continuing with empty result")
		return []string{}
	}
	return needs
}

func (o *Orchestrator) runRecommendationPass(ctx context.Context, jobID, docText string, keyInformation map[string]string, insights models.DomainInsights) []string {
	passCtx, cancel := o.passContext(ctx)
	defer cancel()

	recommendations, err := o.runner.GenerateRecommendations(passCtx, docText, keyInformation, insights)
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", jobID).Msg("Recommendation pass failed, continuing with empty result")
		return []string{}
	}
	return recommendations
}

// overallConfidence is the unweighted average of the metadata extraction
// confidence, the mean entity confidence, and a fixed insight bonus. A simple
// heuristic, not a calibrated estimate.
func overallConfidence(metadata models.DocumentMetadata, entities []models.MedicalEntity, insights models.DomainInsights) float64 {
	entityConfidence := defaultEntityConfidence
	if len(entities) > 0 {
		sum := 0.0
		for _, entity := range entities {
			sum += entity.Confidence
		}
		entityConfidence = sum / float64(len(entities))
	}

	insightBonus := insightEmptyBonus
	if len(insights.Indicators) > 0 {
		insightBonus = insightFoundBonus
	}

	return (metadata.ExtractionConfidence + entityConfidence + insightBonus) / 3
}

var _ interfaces.Pipeline = (*Orchestrator)(nil)
