// Package state holds the values shared between the independently paced
// pipeline loops. Every field is read and written through atomics: writers
// overwrite, readers never block and see either the latest completed write
// or the empty value at startup.
package state

import (
	"math"
	"sync/atomic"
	"time"
)

// Frame is a decoded picture. It is immutable once published into a Slot;
// consumers that need to mutate pixels must copy Data first.
type Frame struct {
	Data       []byte // raw pixels, row-major
	Width      int
	Height     int
	Type       int // OpenCV mat type (CV_8UC3 for BGR frames)
	CapturedAt time.Time
}

// Slot is a single-value overwrite buffer.
type Slot[T any] struct {
	v atomic.Pointer[T]
}

// Store replaces the held value.
func (s *Slot[T]) Store(v *T) {
	s.v.Store(v)
}

// Load returns the latest value, nil until the first Store.
func (s *Slot[T]) Load() *T {
	return s.v.Load()
}

// ScanTimer remembers when the last scan window closed.
type ScanTimer struct {
	last atomic.Int64 // unix nanos
}

// Reset marks now as the start of a new scan window.
func (t *ScanTimer) Reset(now time.Time) {
	t.last.Store(now.UnixNano())
}

// Last returns the start of the current scan window.
func (t *ScanTimer) Last() time.Time {
	return time.Unix(0, t.last.Load())
}

// Due reports whether a full interval elapsed since the last reset.
func (t *ScanTimer) Due(now time.Time, interval time.Duration) bool {
	return now.Sub(t.Last()) >= interval
}

// Remaining returns how long until the window is due, never negative.
func (t *ScanTimer) Remaining(now time.Time, interval time.Duration) time.Duration {
	left := interval - now.Sub(t.Last())
	if left < 0 {
		return 0
	}
	return left
}

// Playback describes where the looping video source currently is.
type Playback struct {
	Position    int
	TotalFrames int
	FPS         float64
	Speed       int
}

// RemainingSeconds is floor((total - position) / fps / speed), never negative.
func (p Playback) RemainingSeconds() int {
	if p.FPS <= 0 || p.Speed <= 0 || p.TotalFrames <= p.Position {
		return 0
	}
	return int(math.Floor(float64(p.TotalFrames-p.Position) / p.FPS / float64(p.Speed)))
}

// Shared bundles everything the loops exchange.
type Shared struct {
	Raw       Slot[Frame]
	Annotated Slot[Frame]
	Scan      ScanTimer
	playback  Slot[Playback]
}

// NewShared returns shared state whose scan window starts at now.
func NewShared(now time.Time) *Shared {
	s := &Shared{}
	s.Scan.Reset(now)
	return s
}

// SetPlayback publishes a new playback position.
func (s *Shared) SetPlayback(p Playback) {
	s.playback.Store(&p)
}

// Playback returns the latest playback position, the zero value before the
// first frame was read.
func (s *Shared) Playback() Playback {
	if p := s.playback.Load(); p != nil {
		return *p
	}
	return Playback{}
}

// Frame returns the raw or annotated slot content.
func (s *Shared) Frame(annotated bool) *Frame {
	if annotated {
		return s.Annotated.Load()
	}
	return s.Raw.Load()
}
