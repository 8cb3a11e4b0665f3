package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/handlers"
	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/services/extract"
	"github.com/spectrumcare/caredoc/internal/services/llm"
	"github.com/spectrumcare/caredoc/internal/services/passes"
	"github.com/spectrumcare/caredoc/internal/services/pipeline"
	"github.com/spectrumcare/caredoc/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	LLMService interfaces.LLMService
	Extractor  *extract.Service
	PassRunner *passes.Runner
	Pipeline   *pipeline.Orchestrator
	Sweeper    *pipeline.Sweeper

	// HTTP handlers
	DocumentHandler *handlers.DocumentHandler
	JobHandler      *handlers.JobHandler
	ResultHandler   *handlers.ResultHandler
	StatusHandler   *handlers.StatusHandler
}

// New wires the full application: storage, LLM provider, extraction service,
// pass runner, pipeline orchestrator, retention sweeper, and HTTP handlers.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	llmService, err := llm.NewLLMService(cfg, storageManager.KeyValueStorage(), logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	}

	ocrFactory := extract.NewTesseractFactory(cfg.OCR.Languages)
	extractor := extract.NewService(ocrFactory, cfg.OCR.TimeoutDuration(), logger)

	retry := &llm.RetryConfig{
		MaxRetries:        cfg.Pipeline.PassMaxRetries,
		InitialBackoff:    llm.DefaultInitialBackoff,
		MaxBackoff:        llm.DefaultMaxBackoff,
		BackoffMultiplier: llm.DefaultBackoffMultiplier,
	}
	runner := passes.NewRunner(llmService, retry, logger)

	tracker := pipeline.NewJobTracker()
	orchestrator := pipeline.NewOrchestrator(extractor, runner, tracker, &cfg.Pipeline, logger)

	sweeper, err := pipeline.NewSweeper(tracker, &cfg.Pipeline, logger)
	if err != nil {
		llmService.Close()
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize job sweeper: %w", err)
	}

	application := &App{
		Config:         cfg,
		Logger:         logger,
		StorageManager: storageManager,
		LLMService:     llmService,
		Extractor:      extractor,
		PassRunner:     runner,
		Pipeline:       orchestrator,
		Sweeper:        sweeper,

		DocumentHandler: handlers.NewDocumentHandler(orchestrator, storageManager.ResultStorage(), cfg.Server.MaxUploadSize, logger),
		JobHandler:      handlers.NewJobHandler(orchestrator, logger),
		ResultHandler:   handlers.NewResultHandler(storageManager.ResultStorage(), logger),
		StatusHandler:   handlers.NewStatusHandler(llmService, storageManager.ResultStorage(), logger),
	}

	sweeper.Start()

	logger.Info().
		Str("llm_provider", string(cfg.LLM.Provider)).
		Str("storage_path", cfg.Storage.Badger.Path).
		Msg("Application initialized")

	return application, nil
}

// Close closes all application resources
func (a *App) Close() error {
	var firstErr error

	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
			firstErr = err
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
