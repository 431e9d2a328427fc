package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// EncodeJPEG encodes a frame as JPEG and returns an owned byte slice.
func EncodeJPEG(frame gocv.Mat) ([]byte, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("cannot encode empty frame")
	}

	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
