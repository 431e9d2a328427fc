package zone

import (
	"image"
	"sync"

	"crowdwatch/internal/model"
)

// Stats is the occupancy result for one zone at one frame.
type Stats struct {
	Count   int
	Entries int
	Exits   int
}

// Engine computes per-zone occupancy and frame-to-frame entry/exit deltas.
// It owns the per-user previous-count state; the session manager resets a
// user's state whenever a new session starts so deltas never leak between
// unrelated analysis runs.
//
// Entries and exits are net occupancy deltas, not identity-level crossing
// events: a track leaving and another entering in the same frame cancel
// out. Daily summaries are defined in terms of this metric, so the
// approximation is kept deliberately.
type Engine struct {
	mu       sync.Mutex
	previous map[int64]map[int64]int // userID -> zoneID -> last observed count
}

// NewEngine creates an empty occupancy engine.
func NewEngine() *Engine {
	return &Engine{previous: make(map[int64]map[int64]int)}
}

// Compute counts the centroids inside each zone and diffs against the last
// observed counts for this user. The previous count is overwritten after
// the diff; the first observation of a user+zone pair diffs against zero.
// Degenerate polygons yield zero counts without failing.
func (e *Engine) Compute(userID int64, zones []model.Zone, centroids []image.Point) map[int64]Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev, ok := e.previous[userID]
	if !ok {
		prev = make(map[int64]int)
		e.previous[userID] = prev
	}

	out := make(map[int64]Stats, len(zones))
	for _, zone := range zones {
		count := 0
		if !zone.Degenerate() {
			for _, c := range centroids {
				if polygonContains(zone.Polygon, float64(c.X), float64(c.Y)) {
					count++
				}
			}
		}

		previous := prev[zone.ID]
		entries := count - previous
		if entries < 0 {
			entries = 0
		}
		exits := previous - count
		if exits < 0 {
			exits = 0
		}

		prev[zone.ID] = count
		out[zone.ID] = Stats{Count: count, Entries: entries, Exits: exits}
	}

	return out
}

// Reset drops a user's previous-count state. Called on every session
// (re)start.
func (e *Engine) Reset(userID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.previous, userID)
}

// polygonContains tests point membership inclusive of the boundary: a
// centroid exactly on an edge or vertex counts as inside.
func polygonContains(polygon []model.Point, x, y float64) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	for i := 0; i < n; i++ {
		if onSegment(polygon[i], polygon[(i+1)%n], x, y) {
			return true
		}
	}

	// Ray casting toward +X.
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > y) != (pj.Y > y) {
			xCross := pi.X + (y-pi.Y)*(pj.X-pi.X)/(pj.Y-pi.Y)
			if x < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// onSegment reports whether (x,y) lies on the closed segment a-b.
func onSegment(a, b model.Point, x, y float64) bool {
	cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
	if cross != 0 {
		return false
	}
	if x < min(a.X, b.X) || x > max(a.X, b.X) {
		return false
	}
	if y < min(a.Y, b.Y) || y > max(a.Y, b.Y) {
		return false
	}
	return true
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
