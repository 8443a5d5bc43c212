package handler

import (
	"net/http"
	"strings"

	"spatialsearch/internal/dto"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/model"
	"spatialsearch/internal/service"
)

const (
	historyTimeLayout = "15:04:05"
	historyDateLayout = "2006-01-02"
)

// DataHandler returns the spatial log grouped by object name.
func DataHandler(manager *service.Manager, publicURL string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet, logger) {
			return
		}

		logs, err := manager.GetRepository().GetAll()
		if err != nil {
			logger.Error("Failed to read spatial log: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "failed to read spatial log", logger)
			return
		}

		writeJSON(w, http.StatusOK, GroupHistory(logs, publicURL), logger)
	}
}

// GroupHistory groups logs by object name. Groups are ordered by the first
// appearance of their name and keep the order of logs inside each group, so
// ascending input gives ascending histories. Times are rendered in UTC.
func GroupHistory(logs []model.SpatialLog, publicURL string) []dto.ObjectHistory {
	base := strings.TrimRight(publicURL, "/") + "/uploads/"

	groups := make([]dto.ObjectHistory, 0)
	index := make(map[string]int)

	for _, l := range logs {
		i, ok := index[l.ObjectName]
		if !ok {
			i = len(groups)
			index[l.ObjectName] = i
			groups = append(groups, dto.ObjectHistory{Name: l.ObjectName, History: []dto.HistoryEntry{}})
		}

		ts := l.Timestamp.UTC()
		groups[i].History = append(groups[i].History, dto.HistoryEntry{
			Time: ts.Format(historyTimeLayout),
			Date: ts.Format(historyDateLayout),
			X:    l.X,
			Y:    l.Y,
			W:    l.W,
			H:    l.H,
			Conf: l.Confidence,
			Img:  base + l.ImageFilename,
		})
	}

	return groups
}
