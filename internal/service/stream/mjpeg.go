// Package stream pushes the latest frame of a shared slot to HTTP clients as
// a multipart JPEG (MJPEG) stream.
package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"spatialsearch/internal/logger"
	"spatialsearch/internal/service/state"
)

const (
	Boundary    = "frame"
	ContentType = "multipart/x-mixed-replace; boundary=" + Boundary
)

// Encoder turns a frame into JPEG bytes.
type Encoder interface {
	EncodeJPEG(frame *state.Frame) ([]byte, error)
}

// Streamer serves one MJPEG stream per connection. Every connection runs its
// own ticker; a slow client misses ticks instead of queueing frames.
type Streamer struct {
	shared   *state.Shared
	encoder  Encoder
	interval time.Duration
	logger   *logger.Logger
}

func NewStreamer(shared *state.Shared, encoder Encoder, interval time.Duration, logger *logger.Logger) *Streamer {
	return &Streamer{
		shared:   shared,
		encoder:  encoder,
		interval: interval,
		logger:   logger,
	}
}

// Serve writes chunks to w until ctx is done or a write fails. annotated
// selects the annotated slot instead of the raw one.
func (s *Streamer) Serve(ctx context.Context, w io.Writer, annotated bool) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	flusher, _ := w.(http.Flusher)

	var (
		last    *state.Frame
		encoded []byte
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frame := s.shared.Frame(annotated)
		if frame == nil {
			continue
		}

		if frame != last {
			data, err := s.encoder.EncodeJPEG(frame)
			if err != nil {
				s.logger.Warning("Failed to encode stream frame: %v", err)
				continue
			}
			last, encoded = frame, data
		}

		if err := WriteChunk(w, encoded); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// WriteChunk writes one multipart part holding a JPEG image.
func WriteChunk(w io.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\n\r\n", Boundary); err != nil {
		return fmt.Errorf("failed to write part header: %w", err)
	}
	if _, err := w.Write(jpeg); err != nil {
		return fmt.Errorf("failed to write part body: %w", err)
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return fmt.Errorf("failed to write part trailer: %w", err)
	}
	return nil
}
