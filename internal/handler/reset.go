package handler

import (
	"net/http"

	"spatialsearch/internal/dto"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/service"
)

// ResetHandler deletes every spatial log row and every snapshot file.
func ResetHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost, logger) {
			return
		}

		if err := manager.GetGateway().Reset(); err != nil {
			logger.Error("Reset failed: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "failed to clear data", logger)
			return
		}

		logger.Info("🧹 Spatial log and snapshots cleared")
		writeJSON(w, http.StatusOK, dto.ResetResult{Status: "cleared"}, logger)
	}
}
