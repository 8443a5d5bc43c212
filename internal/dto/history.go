package dto

// HistoryEntry is one sighting of an object as returned by /api/data.
type HistoryEntry struct {
	Time string  `json:"time"` // 15:04:05
	Date string  `json:"date"` // 2006-01-02
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Conf float64 `json:"conf"`
	Img  string  `json:"img"`
}

// ObjectHistory groups every sighting of one label.
type ObjectHistory struct {
	Name    string         `json:"name"`
	History []HistoryEntry `json:"history"`
}

// Status is the countdown payload of /api/status.
type Status struct {
	ScanRemainingMS   int64 `json:"scan_remaining_ms"`
	VideoRemainingSec int   `json:"video_remaining_sec"`
}

// ResetResult is the payload of /api/reset.
type ResetResult struct {
	Status string `json:"status"`
}
