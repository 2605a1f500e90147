package routes

import (
	"net/http"

	"surveillance/internal/config"
	"surveillance/internal/handlers"
	"surveillance/internal/logger"
	"surveillance/internal/middleware"
	"surveillance/internal/repository"
	"surveillance/internal/services"
	"surveillance/internal/services/storage"
	"surveillance/internal/services/websocket"
)

// SetupRoutes registers every endpoint and wraps the mux with the CORS
// middleware. Websocket handlers are counted by sessions.
func SetupRoutes(pipeline *services.Pipeline, hub *websocket.HubService, evidence repository.EvidenceRepository, sessions *handlers.Sessions, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", handlers.StatusHandler(logger))

	// Live viewing, tracked so shutdown can wait for it
	mux.HandleFunc("GET /ws/stream/{id}", sessions.Track(handlers.StreamWebsocketHandler(pipeline, cfg.PollInterval, logger)))
	mux.HandleFunc("GET /ws/alerts", sessions.Track(handlers.AlertFeedHandler(hub, logger)))

	// API endpoints
	mux.HandleFunc("GET /api/alerts", handlers.AlertsHandler(pipeline, logger))
	mux.HandleFunc("GET /api/cameras", handlers.CamerasHandler(pipeline, logger))
	mux.HandleFunc("POST /upload_target", handlers.UploadTargetHandler(pipeline, cfg.MaxUploadMB, logger))
	mux.HandleFunc("DELETE /api/target", handlers.ClearTargetHandler(pipeline, logger))

	// Evidence
	mux.HandleFunc("GET /api/evidence", handlers.EvidenceListHandler(evidence, logger))
	mux.HandleFunc("GET /api/evidence/stats", handlers.EvidenceStatsHandler(evidence, logger))
	mux.HandleFunc("DELETE /api/evidence", handlers.DeleteEvidenceHandler(evidence, cfg.EvidenceDirectory, logger))
	mux.Handle("GET "+storage.URLPrefix, http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(cfg.EvidenceDirectory))))

	// Log endpoints
	mux.HandleFunc("GET /logs/{level}", handlers.ShowLogsHandler(cfg.LogDirectory))
	mux.HandleFunc("POST /logs/{level}/clear", handlers.ClearLogsHandler(logger))

	return middleware.CORSMiddleware(mux)
}
