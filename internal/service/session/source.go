package session

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// Error taxonomy for session handling. ErrEndOfStream is a normal
// termination signal, not a failure: callers map it to finished=true.
var (
	ErrMediaOpen       = errors.New("unable to open media")
	ErrNoActiveSession = errors.New("no active analysis session")
	ErrSessionStopped  = errors.New("live session stopped")
	ErrEndOfStream     = errors.New("end of stream")
)

// FrameSource yields frames in sequence order from some piece of media.
// Read's second return is false at end of stream or on a read failure;
// truncated media is normal termination, not an error.
type FrameSource interface {
	Read() (gocv.Mat, bool)
	TotalFrames() int
	Close() error
}

type videoFileSource struct {
	capture *gocv.VideoCapture
	total   int
}

// OpenVideoFile opens an uploaded video as a FrameSource. A missing path
// or unopenable container yields ErrMediaOpen.
func OpenVideoFile(path string) (FrameSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMediaOpen, path)
	}

	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaOpen, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", ErrMediaOpen, path)
	}

	return &videoFileSource{
		capture: capture,
		total:   int(capture.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

func (s *videoFileSource) Read() (gocv.Mat, bool) {
	frame := gocv.NewMat()
	if ok := s.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, false
	}
	return frame, true
}

func (s *videoFileSource) TotalFrames() int {
	return s.total
}

func (s *videoFileSource) Close() error {
	return s.capture.Close()
}
