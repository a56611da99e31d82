package framesource

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
)

// VideoStream is an open connection to a network camera.
// Frames returned by Read may share memory with the stream and are only
// valid until the next Read or Close.
type VideoStream interface {
	SetBufferSize(n int) error
	Read() (models.Frame, error)
	Close() error
}

type VideoOpener interface {
	Open(ctx context.Context, address string) (VideoStream, error)
}

// Source grabs single frames from cameras, allowing at most one open
// connection per camera at a time.
type Source struct {
	log        *slog.Logger
	opener     VideoOpener
	bufferSize int
	now        func() time.Time

	mu    sync.Mutex
	locks map[int64]chan struct{}
}

func New(log *slog.Logger, opener VideoOpener, bufferSize int) *Source {
	if bufferSize <= 0 {
		bufferSize = 1
	}

	return &Source{
		log:        log,
		opener:     opener,
		bufferSize: bufferSize,
		now:        time.Now,
		locks:      make(map[int64]chan struct{}),
	}
}

// CaptureError reports which stage of a capture failed. It matches
// errs.ErrCameraUnavailable or errs.ErrNoFrame with errors.Is.
type CaptureError struct {
	CameraID int64
	Stage    string
	Kind     error
	Err      error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("camera %d: %s: %v", e.CameraID, e.Stage, e.Kind)
	}

	return fmt.Sprintf("camera %d: %s: %v: %v", e.CameraID, e.Stage, e.Kind, e.Err)
}

func (e *CaptureError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// Capture opens the camera, reads the most recent frame and closes the
// connection again. The returned frame owns its pixel buffer.
func (s *Source) Capture(ctx context.Context, cam models.Camera) (models.Frame, error) {
	const op = "service.framesource.Capture"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("camera_id", cam.CameraID),
	)

	if strings.TrimSpace(cam.RTSPURL) == "" {
		return models.Frame{}, &CaptureError{CameraID: cam.CameraID, Stage: "open", Kind: errs.ErrNoAddress}
	}

	lock := s.lock(cam.CameraID)

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return models.Frame{}, fmt.Errorf("%s: %w", op, ctx.Err())
	}
	defer func() { <-lock }()

	stream, err := s.opener.Open(ctx, cam.RTSPURL)
	if err != nil {
		log.Warn("failed to open stream", sl.Err(err))

		return models.Frame{}, &CaptureError{CameraID: cam.CameraID, Stage: "open", Kind: errs.ErrCameraUnavailable, Err: err}
	}
	defer func() {
		if err := stream.Close(); err != nil {
			log.Warn("failed to close stream", sl.Err(err))
		}
	}()

	if err := stream.SetBufferSize(s.bufferSize); err != nil {
		log.Debug("buffer size not applied", sl.Err(err))
	}

	frame, err := stream.Read()
	if err != nil {
		log.Warn("failed to read frame", sl.Err(err))

		return models.Frame{}, &CaptureError{CameraID: cam.CameraID, Stage: "read", Kind: errs.ErrNoFrame, Err: err}
	}

	if frame.Empty() {
		return models.Frame{}, &CaptureError{CameraID: cam.CameraID, Stage: "read", Kind: errs.ErrNoFrame}
	}

	frame.Data = slices.Clone(frame.Data)
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = s.now()
	}

	log.Debug("frame captured", slog.Int("width", frame.Width), slog.Int("height", frame.Height))

	return frame, nil
}

func (s *Source) lock(cameraID int64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[cameraID]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[cameraID] = l
	}

	return l
}

// Refresh drops locks of cameras that are no longer configured. A lock held
// by a running capture is kept until a later refresh.
func (s *Source) Refresh(cameraIDs []int64) {
	keep := make(map[int64]struct{}, len(cameraIDs))
	for _, id := range cameraIDs {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, l := range s.locks {
		if _, ok := keep[id]; ok || len(l) == cap(l) {
			continue
		}

		delete(s.locks, id)
	}
}
