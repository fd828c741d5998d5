package geom

import "math"

const (
	// MillimetresPerInch converts inch based densities to metric lengths.
	MillimetresPerInch = 25.4
	// DefaultDPI is the CSS reference pixel density.
	DefaultDPI = 96.0
)

// Distance returns the planar Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// PixelsToMillimetres converts a pixel length at the given density.
func PixelsToMillimetres(px, dpi float64) float64 {
	return px * (MillimetresPerInch / dpi)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }
func (r Rect) Area() float64   { return r.Width() * r.Height() }

// Intersect returns the overlapping rectangle, or a zero-size rectangle
// anchored at the clipped origin when r and o are disjoint.
func (r Rect) Intersect(o Rect) Rect {
	left := math.Max(r.Left, o.Left)
	top := math.Max(r.Top, o.Top)
	width := math.Max(0, math.Min(r.Right, o.Right)-left)
	height := math.Max(0, math.Min(r.Bottom, o.Bottom)-top)
	return Rect{Left: left, Top: top, Right: left + width, Bottom: top + height}
}

// Overlap returns the intersection area of r and o.
func (r Rect) Overlap(o Rect) float64 {
	return r.Intersect(o).Area()
}

// SquareAround is the bounding box of a circle of the given radius.
func SquareAround(x, y, radius float64) Rect {
	return Rect{Left: x - radius, Top: y - radius, Right: x + radius, Bottom: y + radius}
}
