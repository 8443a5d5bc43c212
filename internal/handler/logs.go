package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"spatialsearch/internal/logger"
)

// ShowLogsHandler serves the log file selected by ?level= as text/plain.
func ShowLogsHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level, ok := logLevel(w, r, log)
		if !ok {
			return
		}
		serveLogFile(w, r, log.Dir(), logger.FileName(level))
	}
}

// serveLogFile is a helper that sets headers and serves a log file if it exists.
func serveLogFile(w http.ResponseWriter, r *http.Request, logDir, filename string) {
	filePath := filepath.Join(logDir, filename)

	if _, err := os.Stat(filePath); logDir == "" || os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found: " + filename))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	http.ServeFile(w, r, filePath)
}

// ClearLogsHandler truncates the log file selected by ?level=.
func ClearLogsHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost, log) {
			return
		}
		level, ok := logLevel(w, r, log)
		if !ok {
			return
		}

		if err := log.CleanLogs(level); err != nil {
			log.Error("Failed to clear %s logs: %v", level, err)
			writeJSONError(w, http.StatusInternalServerError, "failed to clear logs", log)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"}, log)
	}
}

// logLevel reads ?level=, defaulting to info.
func logLevel(w http.ResponseWriter, r *http.Request, log *logger.Logger) (string, bool) {
	level := r.URL.Query().Get("level")
	if level == "" {
		level = logger.LevelInfo
	}
	if !logger.ValidLevel(level) {
		writeJSONError(w, http.StatusBadRequest, "level must be info, warning or error", log)
		return "", false
	}
	return level, true
}
