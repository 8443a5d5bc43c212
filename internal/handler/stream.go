package handler

import (
	"net/http"
	"strconv"

	"spatialsearch/internal/logger"
	"spatialsearch/internal/service"
	"spatialsearch/internal/service/stream"
)

// StreamHandler serves the live MJPEG stream. ?annotated=true selects the
// frames with detection boxes drawn on them.
func StreamHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet, logger) {
			return
		}

		annotated := false
		if raw := r.URL.Query().Get("annotated"); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "annotated must be a boolean", logger)
				return
			}
			annotated = value
		}

		w.Header().Set("Content-Type", stream.ContentType)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.WriteHeader(http.StatusOK)

		if err := manager.GetStreamer().Serve(r.Context(), w, annotated); err != nil {
			logger.Info("Stream client %s went away: %v", r.RemoteAddr, err)
		}
	}
}
