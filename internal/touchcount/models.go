package touchcount

// Touch is one contact point from a touch event's changed list.
type Touch struct {
	Identifier int     `json:"identifier"`
	ClientX    float64 `json:"clientX"`
	ClientY    float64 `json:"clientY"`
}

// TouchEvent mirrors a browser touch event: Changed are the contacts the
// event is about, Active is how many contacts remain on the surface.
type TouchEvent struct {
	Changed []Touch `json:"changedTouches"`
	Active  int     `json:"activeTouches"`
}

type Coordinate struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	TimeMillis int64   `json:"time_millis"`
}

// Data is the persisted counter set. A multi-finger gesture counts as a
// single start and a single end.
type Data struct {
	TouchStartCount  int          `json:"touchStartCount"`
	TouchEndCount    int          `json:"touchEndCount"`
	TouchCancelCount int          `json:"touchCancelCount"`
	TotalTouches     int          `json:"totalTouches"`
	ActiveTouches    int          `json:"activeTouches"`
	TouchCoordinates []Coordinate `json:"touchCoordinates"`
}

func (d Data) clone() Data {
	d.TouchCoordinates = append(make([]Coordinate, 0, len(d.TouchCoordinates)), d.TouchCoordinates...)
	return d
}
