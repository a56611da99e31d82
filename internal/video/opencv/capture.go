// Package opencv adapts gocv to the frame source, marker decoder and
// snapshot annotator interfaces.
package opencv

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/framesource"
)

var errEmptyFrame = errors.New("empty frame")

type Opener struct{}

func NewOpener() *Opener {
	return &Opener{}
}

// Open connects to address. gocv offers no cancellable open, so ctx is only
// checked before dialing.
func (o *Opener) Open(ctx context.Context, address string) (framesource.VideoStream, error) {
	const op = "video.opencv.Open"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	capture, err := gocv.OpenVideoCapture(address)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !capture.IsOpened() {
		capture.Close()

		return nil, fmt.Errorf("%s: stream could not be opened", op)
	}

	return &Stream{capture: capture, mat: gocv.NewMat()}, nil
}

type Stream struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

func (s *Stream) SetBufferSize(n int) error {
	s.capture.Set(gocv.VideoCaptureBufferSize, float64(n))

	return nil
}

// Read returns a frame backed by the stream's buffer.
func (s *Stream) Read() (models.Frame, error) {
	const op = "video.opencv.Stream.Read"

	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return models.Frame{}, fmt.Errorf("%s: %w", op, errEmptyFrame)
	}

	data, err := s.mat.DataPtrUint8()
	if err != nil {
		return models.Frame{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Frame{
		Data:     data,
		Width:    s.mat.Cols(),
		Height:   s.mat.Rows(),
		Channels: s.mat.Channels(),
	}, nil
}

func (s *Stream) Close() error {
	err := s.mat.Close()

	return errors.Join(err, s.capture.Close())
}

// matFromFrame copies frame into a new Mat the caller must close.
func matFromFrame(frame models.Frame) (gocv.Mat, error) {
	typ := gocv.MatTypeCV8UC3
	switch frame.Channels {
	case 1:
		typ = gocv.MatTypeCV8UC1
	case 4:
		typ = gocv.MatTypeCV8UC4
	}

	return gocv.NewMatFromBytes(frame.Height, frame.Width, typ, frame.Data)
}
