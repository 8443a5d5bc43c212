package dto

// BBox is a bounding box normalized to the frame size, all coordinates in [0,1].
type BBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Valid reports whether the box is inside the unit square and non-degenerate.
func (b BBox) Valid() bool {
	return b.X1 >= 0 && b.Y1 >= 0 && b.X2 <= 1 && b.Y2 <= 1 && b.X1 < b.X2 && b.Y1 < b.Y2
}

// Clamp limits every coordinate to [0,1].
func (b BBox) Clamp() BBox {
	return BBox{X1: clamp01(b.X1), Y1: clamp01(b.Y1), X2: clamp01(b.X2), Y2: clamp01(b.Y2)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DetectionCandidate is one model detection, scoped to a single detection tick.
type DetectionCandidate struct {
	Label      string
	Confidence float64
	Box        BBox
}
