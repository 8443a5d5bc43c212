// Package imaging converts between the pipeline's plain Frame values and
// OpenCV matrices, and holds the OpenCV-backed video and JPEG adapters.
package imaging

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"spatialsearch/internal/service/state"
)

// DefaultJPEGQuality is used when a codec is built with an out of range quality.
const DefaultJPEGQuality = 90

var ErrEmptyFrame = errors.New("frame has no pixels")

// MatToFrame copies the pixels of mat into a new Frame.
func MatToFrame(mat gocv.Mat, capturedAt time.Time) *state.Frame {
	return &state.Frame{
		Data:       mat.ToBytes(),
		Width:      mat.Cols(),
		Height:     mat.Rows(),
		Type:       int(mat.Type()),
		CapturedAt: capturedAt,
	}
}

// FrameToMat builds a Mat holding a private copy of the frame pixels, so the
// caller may draw on it. The caller must Close it.
func FrameToMat(frame *state.Frame) (gocv.Mat, error) {
	if frame == nil || len(frame.Data) == 0 || frame.Width <= 0 || frame.Height <= 0 {
		return gocv.NewMat(), ErrEmptyFrame
	}

	view, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatType(frame.Type), frame.Data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap frame: %w", err)
	}
	defer view.Close()

	return view.Clone(), nil
}

// JPEGCodec encodes frames as JPEG at a fixed quality.
type JPEGCodec struct {
	Quality int
}

// NewJPEGCodec creates a codec; quality outside 1..100 falls back to DefaultJPEGQuality.
func NewJPEGCodec(quality int) *JPEGCodec {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &JPEGCodec{Quality: quality}
}

// EncodeJPEG returns the JPEG bytes of frame.
func (c *JPEGCodec) EncodeJPEG(frame *state.Frame) ([]byte, error) {
	mat, err := FrameToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return encodeMat(mat, c.Quality)
}

func encodeMat(mat gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
