package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Heatmap renders a spatial density field from track centroids: fixed
// intensity spikes diffused by a Gaussian blur, mapped through the jet
// colormap and alpha-blended over the source frame. Given the same
// centroids and frame the output is byte-identical; there is no randomness
// anywhere in the chain.
type Heatmap struct {
	kernel int
}

// NewHeatmap creates a generator with the given blur kernel side. Even
// values are bumped to the next odd number, which OpenCV requires.
func NewHeatmap(kernel int) *Heatmap {
	if kernel < 3 {
		kernel = 3
	}
	if kernel%2 == 0 {
		kernel++
	}
	return &Heatmap{kernel: kernel}
}

// Render composites the density field over base. Centroids outside the
// frame bounds are discarded. The caller owns the returned Mat.
func (h *Heatmap) Render(base gocv.Mat, centroids []image.Point) (gocv.Mat, error) {
	if base.Empty() {
		return gocv.Mat{}, fmt.Errorf("cannot render heatmap on empty frame")
	}

	rows, cols := base.Rows(), base.Cols()

	density := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
	defer density.Close()

	for _, c := range centroids {
		if c.X < 0 || c.X >= cols || c.Y < 0 || c.Y >= rows {
			continue
		}
		density.SetUCharAt(c.Y, c.X, 255)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(density, &blurred, image.Pt(h.kernel, h.kernel), 0, 0, gocv.BorderDefault)

	colored := gocv.NewMat()
	defer colored.Close()
	gocv.ApplyColorMap(blurred, &colored, gocv.ColormapJet)

	composited := gocv.NewMat()
	gocv.AddWeighted(base, 0.5, colored, 0.5, 0, &composited)
	if composited.Empty() {
		composited.Close()
		return gocv.Mat{}, fmt.Errorf("heatmap compositing produced empty frame")
	}

	return composited, nil
}
