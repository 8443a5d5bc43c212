package routes

import (
	"net/http"

	"spatialsearch/internal/config"
	"spatialsearch/internal/handler"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/middleware"
	"spatialsearch/internal/service"
)

// SetupRoutes registers the API endpoints, snapshot and frontend file serving,
// and wraps the mux with the CORS middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/stream", handler.StreamHandler(manager, logger))
	mux.HandleFunc("/api/status", handler.StatusHandler(manager, logger))
	mux.HandleFunc("/api/status/ws", handler.StatusWebsocketHandler(manager, logger))
	mux.HandleFunc("/api/data", handler.DataHandler(manager, cfg.PublicURL, logger))
	mux.HandleFunc("/api/reset", handler.ResetHandler(manager, logger))

	// Log endpoints
	mux.HandleFunc("/api/logs", handler.ShowLogsHandler(logger))
	mux.HandleFunc("/api/logs/clear", handler.ClearLogsHandler(logger))

	// Snapshots
	mux.Handle("/uploads/", handler.UploadsHandler(cfg.UploadDirectory))

	// Frontend
	mux.HandleFunc("/style.css", handler.StaticFileHandler(cfg.StaticDirectory, "style.css"))
	mux.HandleFunc("/script.js", handler.StaticFileHandler(cfg.StaticDirectory, "script.js"))
	mux.HandleFunc("/", handler.StaticFileHandler(cfg.StaticDirectory, "index.html"))

	return middleware.CORSMiddleware(mux)
}
