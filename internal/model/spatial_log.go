package model

import "time"

// SpatialLog is one persisted detection. Coordinates are percentages of the
// frame size; all rows written in one scan window share ImageFilename.
type SpatialLog struct {
	ID            int64     `json:"id"`
	ObjectName    string    `json:"object_name"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	W             float64   `json:"w"`
	H             float64   `json:"h"`
	Confidence    float64   `json:"confidence"`
	Timestamp     time.Time `json:"timestamp"`
	ImageFilename string    `json:"image_filename"`
}
