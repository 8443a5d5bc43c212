package capture

import (
	"context"
	"time"

	"spatialsearch/internal/logger"
	"spatialsearch/internal/service/state"
)

// DefaultFPS is assumed when the container does not report a frame rate.
const DefaultFPS = 30

// VideoSource is a seekable decoded video. Implementations return frames
// already rotated into display orientation.
type VideoSource interface {
	// Read decodes the next frame; ok is false at end of stream or on error.
	Read() (frame *state.Frame, ok bool)
	// Skip advances past n frames without decoding them.
	Skip(n int)
	// Seek moves the read position to frame pos.
	Seek(pos int) error
	// Position is the index of the next frame to be read.
	Position() int
	FrameCount() int
	FPS() float64
}

// FrameSource plays a VideoSource in an endless loop and publishes every frame
// into the shared raw slot.
type FrameSource struct {
	video  VideoSource
	shared *state.Shared
	speed  int
	logger *logger.Logger

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewFrameSource creates a FrameSource advancing speed frames per iteration.
func NewFrameSource(video VideoSource, shared *state.Shared, speed int, logger *logger.Logger) *FrameSource {
	if speed < 1 {
		speed = 1
	}
	return &FrameSource{
		video:  video,
		shared: shared,
		speed:  speed,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Run reads frames until ctx is cancelled. End of stream never stops the loop:
// the source is rewound and playback continues from the first frame.
func (s *FrameSource) Run(ctx context.Context) {
	fps := s.video.FPS()
	if fps <= 0 {
		fps = DefaultFPS
	}
	delay := time.Duration(float64(time.Second) / fps)
	total := s.video.FrameCount()

	s.logger.Info("🎞️  Frame source started: %d frames @ %.2f fps, speed x%d", total, fps, s.speed)

	rewound := false
	for ctx.Err() == nil {
		frame, ok := s.video.Read()
		if !ok {
			if rewound {
				// Rewinding did not help, the source itself is failing.
				if !s.sleep(ctx, delay) {
					break
				}
			}
			if err := s.video.Seek(0); err != nil {
				s.logger.Warning("Failed to rewind video source: %v", err)
			}
			rewound = true
			continue
		}
		rewound = false

		if s.speed > 1 {
			s.video.Skip(s.speed - 1)
		}

		s.shared.SetPlayback(state.Playback{
			Position:    s.video.Position(),
			TotalFrames: total,
			FPS:         fps,
			Speed:       s.speed,
		})
		s.shared.Raw.Store(frame)

		if !s.sleep(ctx, delay) {
			break
		}
	}

	s.logger.Info("🎞️  Frame source stopped")
}

// sleepContext waits for d, returning false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
