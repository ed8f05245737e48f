package models

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Clamp restricts the rectangle to a width x height frame. The result may be
// empty when the rectangle lies entirely outside the frame.
func (r Rect) Clamp(width, height int) Rect {
	x1 := max(0, r.X)
	y1 := max(0, r.Y)
	x2 := min(width, r.X+r.W)
	y2 := min(height, r.Y+r.H)
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Expand grows the rectangle by dx pixels on each horizontal side and dy
// pixels on each vertical side.
func (r Rect) Expand(dx, dy int) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, W: r.W + 2*dx, H: r.H + 2*dy}
}

// Union returns the bounding box of both rectangles.
func (r Rect) Union(o Rect) Rect {
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.W, o.X+o.W)
	y2 := max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Overlaps reports whether the rectangles share any area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// IoU computes intersection-over-union between the rectangles.
func (r Rect) IoU(o Rect) float64 {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.W, o.X+o.W)
	y2 := min(r.Y+r.H, o.Y+o.H)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	inter := float64((x2 - x1) * (y2 - y1))
	union := float64(r.W*r.H+o.W*o.H) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
