package board

// Circle is a round area of effect centered on a point
type Circle struct {
	Center Position
	Radius float64
}

// Contains reports whether the point lies inside the circle. Points exactly on
// the edge count as inside, matching how templates highlight grid squares.
func (c Circle) Contains(p Position) bool {
	dx := p.X - c.Center.X
	dy := p.Y - c.Center.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// Wall is a line segment that blocks sight
type Wall struct {
	A Position
	B Position
}

// Blocks reports whether the wall segment intersects the sight line from..to
func (w Wall) Blocks(from, to Position) bool {
	return segmentsIntersect(from, to, w.A, w.B)
}

// segmentsIntersect reports whether segments p1p2 and p3p4 intersect
func segmentsIntersect(p1, p2, p3, p4 Position) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear touching cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

func cross(a, b, c Position) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p Position) bool {
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}
