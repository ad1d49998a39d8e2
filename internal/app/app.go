package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/handlers"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/crawler"
	"github.com/ternarybob/neighborhood/internal/services/discovery"
	"github.com/ternarybob/neighborhood/internal/services/embeddings"
	"github.com/ternarybob/neighborhood/internal/services/events"
	"github.com/ternarybob/neighborhood/internal/services/index"
	"github.com/ternarybob/neighborhood/internal/services/ingestion"
	"github.com/ternarybob/neighborhood/internal/services/llm"
	"github.com/ternarybob/neighborhood/internal/services/pdf"
	"github.com/ternarybob/neighborhood/internal/services/projects"
	"github.com/ternarybob/neighborhood/internal/services/scheduler"
	"github.com/ternarybob/neighborhood/internal/services/transcript"
	"github.com/ternarybob/neighborhood/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	// Retrieval
	Encoder  interfaces.Encoder
	Indexes  *index.Registry
	Backends *llm.Factory

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Ingestion and project services
	Collectors       map[models.DataSourceType]interfaces.Collector
	Ingestion        *ingestion.Orchestrator
	ProjectService   *projects.Service
	DiscoveryService *discovery.Service
	unwatch          func()

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	ProjectHandler   *handlers.ProjectHandler
	DiscoveryHandler *handlers.DiscoveryHandler
	ChatHandler      *handlers.ChatHandler
	JobHandler       *handlers.JobHandler
	SchedulerHandler *handlers.SchedulerHandler
	WSHandler        *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	// Start workers only after every listener is subscribed
	if err := app.Ingestion.Start(app.ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to start ingestion: %w", err)
	}

	if cfg.Scheduler.Enabled {
		if err := app.SchedulerService.Start(cfg.Scheduler.Schedule); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	logger.Info().
		Str("index_backend", cfg.Index.Backend).
		Str("embeddings", cfg.Embeddings.Provider).
		Int("collectors", len(app.Collectors)).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.StorageManager.StartMaintenance(a.ctx)
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices initializes all business services in dependency order:
// encoder, index registry, backends, collectors, then the services built on them.
func (a *App) initServices() error {
	var err error

	a.Encoder, err = embeddings.NewEncoder(a.Config.Embeddings, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}

	a.Indexes, err = index.NewRegistry(a.Config, a.Encoder, a.StorageManager.CatalogStorage(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create index registry: %w", err)
	}

	a.Backends = llm.NewFactory(a.Config.LLM, a.Logger)
	a.EventService = events.NewService(a.Logger)
	a.Collectors = a.newCollectors()

	a.Ingestion = ingestion.NewOrchestrator(
		a.Config,
		a.StorageManager.ProjectStorage(),
		a.StorageManager.JobStorage(),
		a.Indexes,
		a.Collectors,
		a.EventService,
		a.Logger,
	)

	a.ProjectService = projects.NewService(
		a.Config,
		a.StorageManager.ProjectStorage(),
		a.StorageManager.JobStorage(),
		a.Indexes,
		a.Backends,
		a.Logger,
	)
	a.unwatch = a.ProjectService.Watch(a.Ingestion)

	a.DiscoveryService = discovery.NewService(a.Backends, a.Logger)
	a.SchedulerService = scheduler.NewService(a.StorageManager.ProjectStorage(), a.Ingestion, a.Logger)
	return nil
}

// newCollectors maps every source type that has a collector. rss_feed and
// reddit are absent, so their jobs fail as unsupported.
func (a *App) newCollectors() map[models.DataSourceType]interfaces.Collector {
	crawlerClient := &http.Client{Timeout: a.Config.Crawler.RequestTimeout.Duration()}
	transcripts := transcript.NewServiceFromConfig(a.ctx, a.Config.Transcript, crawlerClient, a.Logger)
	extractor := pdf.NewExtractor(nil, a.Logger)

	return map[models.DataSourceType]interfaces.Collector{
		models.DataSourceWebsite:         crawler.NewStaticCollector(a.Config.Crawler, crawlerClient, a.Logger),
		models.DataSourceWebsiteRendered: crawler.NewRenderedCollector(a.Config.Crawler, a.Logger),
		models.DataSourceYouTubePlaylist: transcript.PlaylistCollector{Service: transcripts},
		models.DataSourceYouTubeVideo:    transcript.VideoCollector{Service: transcripts},
		models.DataSourcePDFURL:          pdf.NewURLCollector(extractor, a.Logger),
		models.DataSourcePDFUpload:       pdf.NewUploadCollector(extractor, a.Logger),
	}
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.ProjectService, a.Logger)
	a.ProjectHandler = handlers.NewProjectHandler(a.ProjectService, a.Ingestion, a.Logger)
	a.DiscoveryHandler = handlers.NewDiscoveryHandler(a.ProjectService, a.DiscoveryService, a.Logger)
	a.ChatHandler = handlers.NewChatHandler(a.ProjectService, a.Logger)
	a.JobHandler = handlers.NewJobHandler(a.Ingestion, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.Ingestion, a.Logger, &a.Config.WebSocket)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.WSHandler != nil {
		a.WSHandler.Close()
	}
	if a.unwatch != nil {
		a.unwatch()
	}

	if a.Ingestion != nil {
		a.Ingestion.Stop()
		a.Logger.Info().Msg("Ingestion workers stopped")
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.Indexes != nil {
		if err := a.Indexes.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close index registry")
		}
	}

	if a.Encoder != nil {
		if err := a.Encoder.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close encoder")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
