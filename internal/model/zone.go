package model

// Point is a single polygon vertex in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zone represents a user-defined polygonal region of interest over the
// video frame plane. The polygon is an ordered vertex list; anything with
// fewer than 3 points is degenerate and counts nobody.
type Zone struct {
	ID      int64   `json:"id"`
	UserID  int64   `json:"user_id"`
	Name    string  `json:"name"`
	Polygon []Point `json:"coordinates"`
}

// Degenerate reports whether the zone polygon cannot enclose any area.
func (z *Zone) Degenerate() bool {
	if len(z.Polygon) < 3 {
		return true
	}
	// Shoelace area; zero means the vertices are collinear.
	var area float64
	for i := range z.Polygon {
		j := (i + 1) % len(z.Polygon)
		area += z.Polygon[i].X*z.Polygon[j].Y - z.Polygon[j].X*z.Polygon[i].Y
	}
	return area == 0
}
