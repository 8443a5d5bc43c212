package status

import (
	"context"
	"encoding/json"
	"time"

	"spatialsearch/internal/dto"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/service/state"
)

// Publisher fans a message out to connected clients.
type Publisher interface {
	Broadcast(ctx context.Context, message []byte)
}

// Reporter reads the countdowns from shared state. It never writes to it.
type Reporter struct {
	shared       *state.Shared
	scanInterval time.Duration
	logger       *logger.Logger
}

func NewReporter(shared *state.Shared, scanInterval time.Duration, logger *logger.Logger) *Reporter {
	return &Reporter{shared: shared, scanInterval: scanInterval, logger: logger}
}

// Snapshot returns the time left until the next scan window and the seconds
// left in the current pass over the video.
func (r *Reporter) Snapshot(now time.Time) dto.Status {
	return dto.Status{
		ScanRemainingMS:   r.shared.Scan.Remaining(now, r.scanInterval).Milliseconds(),
		VideoRemainingSec: r.shared.Playback().RemainingSeconds(),
	}
}

// Publish pushes a snapshot to p every interval until ctx is cancelled.
func (r *Reporter) Publish(ctx context.Context, p Publisher, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			message, err := json.Marshal(r.Snapshot(now))
			if err != nil {
				r.logger.Error("Failed to marshal status: %v", err)
				continue
			}
			p.Broadcast(ctx, message)
		}
	}
}
