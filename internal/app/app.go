package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"surveillance/internal/config"
	"surveillance/internal/handlers"
	"surveillance/internal/logger"
	"surveillance/internal/repository/sqlite"
	"surveillance/internal/routes"
	"surveillance/internal/services"
	"surveillance/internal/services/ai"
	"surveillance/internal/services/alerts"
	"surveillance/internal/services/camera"
	"surveillance/internal/services/engine"
	"surveillance/internal/services/storage"
	"surveillance/internal/services/target"
	"surveillance/internal/services/vision"
	"surveillance/internal/services/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	archiver *storage.Archiver
	cameras  *camera.Manager
	detector *ai.DNNDetector
	embedder ai.Embedder
	hub      *websocket.HubService
	pipeline *services.Pipeline
	server   *http.Server

	// sessions counts websocket handlers; cancelSessions ends their request
	// contexts through the server's BaseContext.
	sessions       *handlers.Sessions
	cancelSessions context.CancelFunc
}

func NewApp() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	detector, err := ai.NewDNNDetector(cfg, log.Named("detector"))
	if err != nil {
		return nil, fmt.Errorf("failed to load detector: %w", err)
	}

	var embedder ai.Embedder
	if e, err := ai.NewDNNEmbedder(cfg, log.Named("embedder")); err != nil {
		log.Warning("Target matching disabled: %v", err)
		embedder = ai.UnavailableEmbedder{Reason: err}
	} else {
		embedder = e
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		detector.Close()
		return nil, err
	}
	evidenceRepo := sqlite.NewEvidenceRepository(db)

	var mirror storage.Mirror
	if cfg.MinIOEnabled() {
		m, err := storage.NewMinIOMirror(cfg, log.Named("minio"))
		if err != nil {
			log.Warning("Evidence mirroring disabled: %v", err)
		} else {
			mirror = m
		}
	}
	archiver := storage.NewArchiver(evidenceRepo, mirror, cfg.ArchiveWorkers, cfg.ArchiveQueueSize, log.Named("archiver"))

	store, err := storage.NewStore(cfg.EvidenceDirectory, vision.EncodeJPEG, archiver, log.Named("evidence"))
	if err != nil {
		archiver.Close(context.Background())
		db.Close()
		detector.Close()
		return nil, err
	}

	classes := ai.NewClassMap(detector.ClassNames(), cfg.PersonClasses, cfg.WeaponClasses)
	if len(classes.OfInterest()) == 0 {
		log.Warning("None of the configured person/weapon classes are known to the detector")
	}

	registry := target.NewRegistry(vision.DecodeImage, embedder, cfg.TargetThreshold, log.Named("target"))
	orchestrator := engine.New(detector, embedder, registry, store, vision.NewPainter(), engine.Options{
		Classes:            classes,
		ConfidenceFloor:    cfg.ConfidenceFloor,
		IoUFloor:           cfg.IoUFloor,
		ProximityThreshold: cfg.ProximityThreshold,
	}, log.Named("engine"))

	cameras := camera.NewManager(vision.OpenCapture, camera.Options{
		RetryInterval: cfg.ReadRetryInterval,
	}, log.Named("camera"))

	hub := websocket.NewHubService(log.Named("alerts"))
	pipeline := services.NewPipeline(cameras, orchestrator, alerts.NewLedger(cfg.AlertCapacity), registry, hub, vision.EncodeJPEG, log)

	a := &App{
		config:   cfg,
		logger:   log,
		db:       db,
		archiver: archiver,
		cameras:  cameras,
		detector: detector,
		embedder: embedder,
		hub:      hub,
		pipeline: pipeline,
	}
	sessionCtx, cancelSessions := context.WithCancel(context.Background())
	a.sessions = handlers.NewSessions()
	a.cancelSessions = cancelSessions
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           routes.SetupRoutes(pipeline, hub, evidenceRepo, a.sessions, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return sessionCtx },
	}
	return a, nil
}

// Run opens the cameras and serves HTTP until ctx is cancelled or the server
// fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	if err := a.cameras.Open(a.config.CameraSources); err != nil {
		return err
	}

	a.logger.Info("🚀 Surveillance backend")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("📷 Cameras: %v", a.cameras.Cameras())
	a.logger.Info("📁 Evidence: %s", a.config.EvidenceDirectory)
	a.logger.Info("🤖 AI Model: %s", a.config.ModelPath)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	}
	return nil
}

// shutdown ends every request, websocket viewers included, before the
// detector and embedder networks are closed.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.cancelSessions()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warning("HTTP shutdown: %v", err)
	}
	sessionsDone := a.sessions.Close(ctx) == nil
	if !sessionsDone {
		a.logger.Warning("Websocket handlers still running after %s", shutdownTimeout)
	}

	a.cameras.Shutdown()

	if err := a.archiver.Close(ctx); err != nil {
		a.logger.Warning("Archiver did not drain: %v", err)
	}

	if sessionsDone {
		if err := a.detector.Close(); err != nil {
			a.logger.Warning("Error closing detector: %v", err)
		}
		if c, ok := a.embedder.(interface{ Close() error }); ok {
			c.Close()
		}
	} else {
		a.logger.Warning("Leaving detection models open, a viewer may still use them")
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warning("Error closing database: %v", err)
	}

	a.logger.Info("🛑 Shutdown complete")
	a.logger.Sync()
}
