package detection

import (
	"context"
	"fmt"
	"time"

	"spatialsearch/internal/dto"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/service/state"
)

// Result is what a model returns for one frame.
type Result struct {
	Candidates []dto.DetectionCandidate
	Annotated  *state.Frame // visualization of the same frame, may be nil
}

// Detector runs object detection on a frame. Implementations must not modify
// the frame they are given.
type Detector interface {
	Detect(frame *state.Frame) (Result, error)
}

// Engine runs the detector on the latest raw frame at a fixed cadence.
type Engine struct {
	shared     *state.Shared
	detector   Detector
	aggregator *Aggregator
	interval   time.Duration
	logger     *logger.Logger
}

// NewEngine creates an Engine ticking every interval.
func NewEngine(shared *state.Shared, detector Detector, aggregator *Aggregator, interval time.Duration, logger *logger.Logger) *Engine {
	return &Engine{
		shared:     shared,
		detector:   detector,
		aggregator: aggregator,
		interval:   interval,
		logger:     logger,
	}
}

// Run ticks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("🤖 Detection engine started, tick every %v", e.interval)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("🤖 Detection engine stopped")
			return
		case now := <-ticker.C:
			e.Tick(now)
		}
	}
}

// Tick processes the latest raw frame once. It is a no-op until the frame
// source published its first frame.
func (e *Engine) Tick(now time.Time) {
	frame := e.shared.Raw.Load()
	if frame == nil {
		return
	}

	result, err := e.detect(frame)
	if err != nil {
		e.logger.Warning("Detection failed, skipping frame: %v", err)
		result = Result{}
	}

	if result.Annotated != nil {
		e.shared.Annotated.Store(result.Annotated)
	}

	e.aggregator.Process(now, frame, result.Candidates)
}

// detect isolates the loop from detector panics.
func (e *Engine) detect(frame *state.Frame) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	return e.detector.Detect(frame)
}
