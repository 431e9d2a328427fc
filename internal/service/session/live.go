package session

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"crowdwatch/internal/logger"
	"crowdwatch/internal/service/vision"
)

// deviceCapture is the capture surface Live needs from a camera device.
// gocv.VideoCapture satisfies it; tests substitute a stub.
type deviceCapture interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// Live is the singleton session for the shared camera device. One mutex
// guards start, stop and every read, so raw preview pulls and analysis
// pulls never interleave a torn frame. Stop releases the device
// synchronously and resets the session to an un-started state; a
// subsequent Start re-opens the device cleanly.
type Live struct {
	mu         sync.Mutex
	capture    deviceCapture
	running    bool
	device     int
	tracker    *vision.Tracker
	newTracker func() *vision.Tracker
	openDevice func(device int) (deviceCapture, error)
	logger     *logger.Logger
}

// NewLive creates the live session for the given camera device ID. The
// device is not opened until Start.
func NewLive(device int, newTracker func() *vision.Tracker, log *logger.Logger) *Live {
	return &Live{
		device:     device,
		tracker:    newTracker(),
		newTracker: newTracker,
		openDevice: openCameraDevice,
		logger:     log,
	}
}

func openCameraDevice(device int) (deviceCapture, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: camera device %d: %v", ErrMediaOpen, device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: camera device %d", ErrMediaOpen, device)
	}
	return capture, nil
}

// Start opens the camera device if needed and marks the session running.
// Idempotent: starting a running session is a no-op.
func (l *Live) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}

	if l.capture == nil {
		capture, err := l.openDevice(l.device)
		if err != nil {
			return err
		}
		l.capture = capture
	}

	l.running = true
	l.logger.Info("Live session started on device %d", l.device)
	return nil
}

// Stop releases the capture device synchronously and resets the live
// session so the next Start re-opens the device. Idempotent. The fresh
// tracker guarantees no identity state survives across live runs.
func (l *Live) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.capture != nil {
		if err := l.capture.Close(); err != nil {
			l.logger.Error("Failed to release camera device: %v", err)
		}
		l.capture = nil
	}
	if l.running {
		l.logger.Info("Live session stopped")
	}
	l.running = false
	l.tracker = l.newTracker()
}

// Running reports whether the live session is active.
func (l *Live) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Read pulls one frame from the device. Both the raw preview stream and
// the analysis path use this entry point, serialized on the device lock.
// Reads on a stopped session fail fast with ErrSessionStopped instead of
// hanging.
func (l *Live) Read() (gocv.Mat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running || l.capture == nil {
		return gocv.Mat{}, ErrSessionStopped
	}

	frame := gocv.NewMat()
	if ok := l.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, fmt.Errorf("failed to read live frame")
	}
	return frame, nil
}

// Tracker returns the tracker bound to the current live run.
func (l *Live) Tracker() *vision.Tracker {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker
}
