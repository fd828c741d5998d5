package accuracy

import "github.com/bwlee-dix/h-stuido-dev-research/internal/shared/geom"

// MeasureRequest pairs a target's bounding box with the pointer-down
// location that was aimed at it.
type MeasureRequest struct {
	Target  geom.Rect `json:"target"`
	ClientX float64   `json:"clientX"`
	ClientY float64   `json:"clientY"`
}

// Measurement is the outcome of one aimed touch. Accuracy is the share of
// the touch square that landed on the target, in percent.
type Measurement struct {
	Target      geom.Rect `json:"target"`
	TouchArea   geom.Rect `json:"touch_area"`
	OverlapRect geom.Rect `json:"overlap_rect"`
	OverlapSize float64   `json:"overlap_size"`
	TouchSize   float64   `json:"touch_size"`
	Accuracy    float64   `json:"accuracy"`
	TimeMillis  int64     `json:"time_millis"`
}

type Latest struct {
	Accuracy float64 `json:"accuracy"`
}
