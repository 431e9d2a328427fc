package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"crowdwatch/internal/model"
)

var (
	trackBoxColor  = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	trackTextColor = color.RGBA{R: 0, G: 255, B: 255, A: 0}
	zoneLineColor  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	zoneTextColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	zoneLabelFill  = color.RGBA{R: 0, G: 0, B: 0, A: 0}
)

// Overlay draws track boxes with identifiers and zone polygons with
// per-zone count labels onto a copy of the source frame. Rendering is
// purely cosmetic; the pipeline drops the overlay and keeps the counts if
// anything here fails.
type Overlay struct{}

// NewOverlay creates a renderer.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// Render returns the annotated copy of base. The caller owns the returned
// Mat.
func (o *Overlay) Render(base gocv.Mat, tracks []Track, zones []model.Zone, counts map[int64]int) (gocv.Mat, error) {
	if base.Empty() {
		return gocv.Mat{}, fmt.Errorf("cannot render overlay on empty frame")
	}

	out := base.Clone()

	for _, tr := range tracks {
		gocv.Rectangle(&out, tr.Box, trackBoxColor, 2)
		label := fmt.Sprintf("ID %d", tr.ID)
		gocv.PutText(&out, label, image.Pt(tr.Box.Min.X, tr.Box.Min.Y-10), gocv.FontHersheySimplex, 0.6, trackTextColor, 2)
	}

	for _, zone := range zones {
		if len(zone.Polygon) < 2 {
			continue
		}

		pts := make([]image.Point, 0, len(zone.Polygon))
		var sumX, sumY float64
		for _, p := range zone.Polygon {
			pts = append(pts, image.Pt(int(p.X), int(p.Y)))
			sumX += p.X
			sumY += p.Y
		}

		ptsVec := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
		gocv.Polylines(&out, ptsVec, true, zoneLineColor, 2)
		ptsVec.Close()

		cx := int(sumX / float64(len(zone.Polygon)))
		cy := int(sumY / float64(len(zone.Polygon)))
		label := fmt.Sprintf("%s: %d", zone.Name, counts[zone.ID])

		// Filled backdrop so the label stays readable over busy frames.
		size := gocv.GetTextSize(label, gocv.FontHersheySimplex, 0.6, 2)
		gocv.Rectangle(&out, image.Rect(cx, cy-size.Y-8, cx+size.X+8, cy+6), zoneLabelFill, -1)
		gocv.PutText(&out, label, image.Pt(cx+4, cy-2), gocv.FontHersheySimplex, 0.6, zoneTextColor, 2)
	}

	return out, nil
}
