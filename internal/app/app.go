package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/common"
	"github.com/ternarybob/causa/internal/handlers"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/queue"
	"github.com/ternarybob/causa/internal/services/assets"
	"github.com/ternarybob/causa/internal/services/content"
	"github.com/ternarybob/causa/internal/services/extract"
	"github.com/ternarybob/causa/internal/services/insight"
	"github.com/ternarybob/causa/internal/services/llm"
	"github.com/ternarybob/causa/internal/services/processing"
	"github.com/ternarybob/causa/internal/services/summary"
	"github.com/ternarybob/causa/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Pipeline
	ContentStore *content.Store
	LLMService   interfaces.LLMService
	Extractor    interfaces.Extractor
	Processor    *processing.Processor
	Pool         *queue.Pool
	Sweeper      *processing.Sweeper

	// Collaborator-facing services
	AssetService   *assets.Service
	InsightService interfaces.InsightService
	SummaryService interfaces.SummaryService

	// HTTP handlers
	AssetHandler   *handlers.AssetHandler
	InsightHandler *handlers.InsightHandler
	SummaryHandler *handlers.SummaryHandler
	StatusHandler  *handlers.StatusHandler
}

// New creates and wires the application. Services are constructed bottom-up:
// storage, content store, LLM provider, extraction, the worker pool, then the
// collaborator-facing services and handlers.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	store, err := content.NewStore(config.Storage.Filesystem.AssetsDir, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize content store: %w", err)
	}
	a.ContentStore = store

	// nil LLM service is a supported degraded mode: OCR returns the
	// unavailable marker and insight runs fail with a clear message
	llmService, err := llm.NewLLMService(config, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	a.LLMService = llmService
	if llmService == nil {
		logger.Warn().Msg("No LLM provider configured, OCR and insight runs degraded")
	}

	a.Extractor = extract.NewDispatcher(&config.Extraction, llmService, logger)
	a.Processor = processing.NewProcessor(storageManager, a.Extractor, &config.Extraction, logger)
	a.Pool = queue.NewPool(config.Queue.Concurrency, a.Processor.Process, logger)
	a.Sweeper = processing.NewSweeper(storageManager, a.Pool, logger)

	a.AssetService = assets.NewService(storageManager, store, a.Pool, &config.Uploads, logger)
	a.InsightService = insight.NewService(storageManager, llmService, insight.NewLoggingTaskBoard(logger), &config.Insight, logger)
	a.SummaryService = summary.NewService(storageManager, logger)

	a.AssetHandler = handlers.NewAssetHandler(a.AssetService, config.Uploads.MaxFileSize, logger)
	a.InsightHandler = handlers.NewInsightHandler(a.InsightService, logger)
	a.SummaryHandler = handlers.NewSummaryHandler(a.SummaryService, logger)
	a.StatusHandler = handlers.NewStatusHandler(a.Pool, logger)

	return a, nil
}

// Start begins background work: the stuck-asset sweep schedule
func (a *App) Start() error {
	if err := a.Sweeper.Start(a.Config.Queue.SweepSchedule); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	return nil
}

// Shutdown stops background work and releases resources in reverse
// construction order.
func (a *App) Shutdown(ctx context.Context) error {
	a.Sweeper.Stop()
	a.Pool.Shutdown()

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("LLM service close failed")
		}
	}

	if err := a.StorageManager.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}

	a.Logger.Info().Msg("Application stopped")
	return nil
}
