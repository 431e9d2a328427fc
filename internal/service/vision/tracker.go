package vision

import "image"

// Track is one tracked person for the current frame. Confirmed becomes
// true once the underlying lineage has been matched often enough for its
// identity to be considered stable; unconfirmed tracks are discarded by
// the pipeline.
type Track struct {
	ID        int
	Box       image.Rectangle
	Confirmed bool
}

// Centroid returns the box center, the point used for zone membership and
// density accumulation.
func (t Track) Centroid() image.Point {
	return image.Pt((t.Box.Min.X+t.Box.Max.X)/2, (t.Box.Min.Y+t.Box.Max.Y)/2)
}

// minMatchIoU is the overlap below which a detection is considered a new
// person rather than a continuation of an existing track.
const minMatchIoU = 0.3

type trackState struct {
	id     int
	box    image.Rectangle
	hits   int
	misses int
}

// Tracker assigns stable identifiers to detections across consecutive
// frames by greedy IoU association. It is stateful: Update must be called
// with frames in chronological order, and an instance must never be shared
// across independent streams. The session manager constructs one tracker
// per session for exactly that reason.
type Tracker struct {
	tracks  []*trackState
	nextID  int
	maxAge  int
	minHits int
}

// NewTracker creates a tracker. maxAge is how many consecutive unmatched
// frames a track survives; minHits how many matches confirm an identity.
func NewTracker(maxAge, minHits int) *Tracker {
	if maxAge < 1 {
		maxAge = 1
	}
	if minHits < 1 {
		minHits = 1
	}
	return &Tracker{nextID: 1, maxAge: maxAge, minHits: minHits}
}

// Update consumes the current frame's detections and returns the live
// track set. Unmatched detections open tentative tracks; tracks unmatched
// for longer than maxAge are dropped.
func (t *Tracker) Update(detections []Detection) []Track {
	matchedTrack := make([]bool, len(t.tracks))
	matchedDet := make([]bool, len(detections))

	// Greedy association: repeatedly take the best remaining IoU pair.
	for {
		best := -1.0
		bestTrack, bestDet := -1, -1
		for ti, tr := range t.tracks {
			if matchedTrack[ti] {
				continue
			}
			for di, det := range detections {
				if matchedDet[di] {
					continue
				}
				if iou := boxIoU(tr.box, det.Box); iou > best {
					best = iou
					bestTrack, bestDet = ti, di
				}
			}
		}
		if bestTrack < 0 || best < minMatchIoU {
			break
		}

		matchedTrack[bestTrack] = true
		matchedDet[bestDet] = true
		tr := t.tracks[bestTrack]
		tr.box = detections[bestDet].Box
		tr.hits++
		tr.misses = 0
	}

	for di, det := range detections {
		if matchedDet[di] {
			continue
		}
		t.tracks = append(t.tracks, &trackState{
			id:   t.nextID,
			box:  det.Box,
			hits: 1,
		})
		t.nextID++
	}

	survivors := t.tracks[:0]
	var out []Track
	for ti, tr := range t.tracks {
		if ti < len(matchedTrack) && !matchedTrack[ti] {
			tr.misses++
		}
		if tr.misses > t.maxAge {
			continue
		}
		survivors = append(survivors, tr)
		out = append(out, Track{
			ID:        tr.id,
			Box:       tr.box,
			Confirmed: tr.hits >= t.minHits,
		})
	}
	t.tracks = survivors

	return out
}

// boxIoU computes intersection-over-union of two rectangles.
func boxIoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
