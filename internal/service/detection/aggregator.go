package detection

import (
	"time"

	"spatialsearch/internal/dto"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/service/state"
	"spatialsearch/internal/threshold"
)

// Persister stores one scan window's snapshot and rows.
type Persister interface {
	Persist(at time.Time, frame *state.Frame, candidates []dto.DetectionCandidate) error
}

// Aggregator filters detections and decides when a scan window is persisted.
type Aggregator struct {
	thresholds *threshold.Table
	timer      *state.ScanTimer
	interval   time.Duration
	persister  Persister
	logger     *logger.Logger
}

// NewAggregator creates an Aggregator persisting at most once per interval.
func NewAggregator(thresholds *threshold.Table, timer *state.ScanTimer, interval time.Duration, persister Persister, logger *logger.Logger) *Aggregator {
	return &Aggregator{
		thresholds: thresholds,
		timer:      timer,
		interval:   interval,
		persister:  persister,
		logger:     logger,
	}
}

// Select drops candidates below their label's threshold and keeps the most
// confident one per label. Ties keep the first seen. The result is ordered by
// the first appearance of each label.
func (a *Aggregator) Select(candidates []dto.DetectionCandidate) []dto.DetectionCandidate {
	best := make([]dto.DetectionCandidate, 0, len(candidates))
	index := make(map[string]int, len(candidates))

	for _, c := range candidates {
		if !a.thresholds.Accepts(c.Label, c.Confidence) {
			continue
		}
		if i, ok := index[c.Label]; ok {
			if c.Confidence > best[i].Confidence {
				best[i] = c
			}
			continue
		}
		index[c.Label] = len(best)
		best = append(best, c)
	}

	return best
}

// Process handles one detection tick. When the scan window is due the
// selection is persisted (if non-empty) and the window restarts at now, hit or
// miss. It reports whether a persist was attempted.
func (a *Aggregator) Process(now time.Time, frame *state.Frame, candidates []dto.DetectionCandidate) bool {
	best := a.Select(candidates)

	if !a.timer.Due(now, a.interval) {
		return false
	}
	defer a.timer.Reset(now)

	if len(best) == 0 || frame == nil {
		return false
	}

	if err := a.persister.Persist(now, frame, best); err != nil {
		a.logger.Error("Failed to persist scan window: %v", err)
	} else {
		a.logger.Info("📸 Scan window persisted with %d object(s)", len(best))
	}
	return true
}
