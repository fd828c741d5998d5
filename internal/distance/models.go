package distance

// Sample is one raw pointer or touch event as delivered by the browser.
type Sample struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// Point is a recorded touch location in device pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is the segment between two consecutive points. Distance is in millimetres.
type Line struct {
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
	Distance float64 `json:"distance"`
}

// TouchLogEntry is the persisted record of a single sample.
type TouchLogEntry struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	TimeMillis int64   `json:"time_millis"`
}

type Summary struct {
	Key           string  `json:"key"`
	DPI           float64 `json:"dpi"`
	TotalDistance float64 `json:"total_distance_mm"`
	PointCount    int     `json:"point_count"`
	LineCount     int     `json:"line_count"`
}

// Snapshot is what stream subscribers receive after every update.
type Snapshot struct {
	Key           string  `json:"key"`
	Points        []Point `json:"points"`
	Lines         []Line  `json:"lines"`
	TotalDistance float64 `json:"total_distance_mm"`
}

type OpenRequest struct {
	Key string  `json:"key"`
	DPI float64 `json:"dpi"`
}
