package vision

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"crowdwatch/internal/logger"
)

// ErrModelUnavailable is returned by every Detect call when the detection
// network failed to initialize at startup. Analysis requests fail fast
// instead of silently reporting empty frames.
var ErrModelUnavailable = errors.New("detection model unavailable")

// personClassID is the person class in the COCO SSD label set.
const personClassID = 1

// Detection is one axis-aligned box emitted by the detector.
type Detection struct {
	Box        image.Rectangle
	Confidence float64
	Label      string
}

// Detector wraps a gocv DNN and filters its output to person boxes.
// Detect calls are deterministic given the frame and model weights; the
// detector holds no per-frame state, but the underlying net is not safe for
// concurrent Forward calls, so instances are handed out through a Pool.
type Detector struct {
	net       gocv.Net
	available bool
	confMin   float64
	logger    *logger.Logger
}

// NewDetector loads the detection network from the model and config files.
// A missing or unloadable model leaves the detector in an unavailable
// state; it is still constructed so the server can start and report the
// condition per request.
func NewDetector(modelPath, configPath string, confMin float64, log *logger.Logger) *Detector {
	d := &Detector{confMin: confMin, logger: log}

	if err := d.initializeNet(modelPath, configPath); err != nil {
		log.Warning("Could not initialize detection network: %v", err)
		return d
	}

	return d
}

func (d *Detector) initializeNet(modelPath, configPath string) error {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", modelPath)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", configPath)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return fmt.Errorf("failed to set network backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return fmt.Errorf("failed to set network target: %w", err)
	}

	d.net = net
	d.available = true
	d.logger.Info("Detection network initialized successfully")
	return nil
}

// Available reports whether the network loaded at startup.
func (d *Detector) Available() bool {
	return d.available
}

// DetectPersons runs one forward pass and returns person boxes above the
// confidence threshold. An empty result is valid: nobody in frame.
func (d *Detector) DetectPersons(frame gocv.Mat) ([]Detection, error) {
	if !d.available {
		return nil, ErrModelUnavailable
	}
	if frame.Empty() {
		return nil, fmt.Errorf("cannot detect on empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	var results []Detection

	outputReshaped := output.Reshape(1, output.Total()/7)
	defer outputReshaped.Close()

	for i := 0; i < outputReshaped.Rows(); i++ {
		confidence := float64(outputReshaped.GetFloatAt(i, 2))
		if confidence < d.confMin {
			continue
		}
		if int(outputReshaped.GetFloatAt(i, 1)) != personClassID {
			continue
		}

		x1 := int(outputReshaped.GetFloatAt(i, 3) * float32(frame.Cols()))
		y1 := int(outputReshaped.GetFloatAt(i, 4) * float32(frame.Rows()))
		x2 := int(outputReshaped.GetFloatAt(i, 5) * float32(frame.Cols()))
		y2 := int(outputReshaped.GetFloatAt(i, 6) * float32(frame.Rows()))

		results = append(results, Detection{
			Box:        image.Rect(x1, y1, x2, y2),
			Confidence: confidence,
			Label:      "person",
		})
	}

	return results, nil
}

// Close releases the network.
func (d *Detector) Close() {
	if d.available {
		d.net.Close()
	}
}
