package handler

import (
	"net/http"
	"time"

	"spatialsearch/internal/logger"
	"spatialsearch/internal/service"
)

// StatusHandler returns the scan and video countdowns.
func StatusHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet, logger) {
			return
		}
		writeJSON(w, http.StatusOK, manager.GetReporter().Snapshot(time.Now()), logger)
	}
}
