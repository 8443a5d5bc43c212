package imaging

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"spatialsearch/internal/service/state"
)

// VideoFile decodes a video file with OpenCV. Frames come out rotated 90°
// counter-clockwise, the orientation the demo footage was recorded in.
type VideoFile struct {
	path    string
	capture *gocv.VideoCapture
	mat     gocv.Mat
	rotated gocv.Mat
}

// OpenVideoFile opens path for decoding.
func OpenVideoFile(path string) (*VideoFile, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video %s could not be opened", path)
	}

	return &VideoFile{
		path:    path,
		capture: capture,
		mat:     gocv.NewMat(),
		rotated: gocv.NewMat(),
	}, nil
}

// Read decodes the next frame. The returned Frame owns its pixel buffer.
func (v *VideoFile) Read() (*state.Frame, bool) {
	if ok := v.capture.Read(&v.mat); !ok || v.mat.Empty() {
		return nil, false
	}

	if err := gocv.Rotate(v.mat, &v.rotated, gocv.Rotate90CounterClockwise); err != nil {
		return nil, false
	}

	return MatToFrame(v.rotated, time.Now()), true
}

// Skip grabs n frames without decoding them.
func (v *VideoFile) Skip(n int) {
	if n > 0 {
		v.capture.Grab(n)
	}
}

func (v *VideoFile) Seek(pos int) error {
	v.capture.Set(gocv.VideoCapturePosFrames, float64(pos))
	if got := v.Position(); got != pos {
		return fmt.Errorf("seek %s to frame %d landed on %d", v.path, pos, got)
	}
	return nil
}

func (v *VideoFile) Position() int {
	return int(v.capture.Get(gocv.VideoCapturePosFrames))
}

func (v *VideoFile) FrameCount() int {
	return int(v.capture.Get(gocv.VideoCaptureFrameCount))
}

func (v *VideoFile) FPS() float64 {
	return v.capture.Get(gocv.VideoCaptureFPS)
}

// Close releases the decoder and its scratch buffers.
func (v *VideoFile) Close() error {
	v.mat.Close()
	v.rotated.Close()
	return v.capture.Close()
}
