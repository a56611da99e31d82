package calibration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
)

type CameraStore interface {
	Camera(ctx context.Context, cameraID int64) (models.Camera, error)
	UpdateScaleFactor(ctx context.Context, cameraID int64, scale float64) error
}

type FrameSource interface {
	Capture(ctx context.Context, cam models.Camera) (models.Frame, error)
}

type Detector interface {
	Detect(frame models.Frame, cameraID int64) ([]models.DetectionRecord, error)
}

type Prober interface {
	Probe(ctx context.Context, address string) error
}

type Service struct {
	log      *slog.Logger
	cameras  CameraStore
	source   FrameSource
	detector Detector
	prober   Prober
}

// New builds the calibration service. prober may be nil to skip the RTSP pre-flight.
func New(log *slog.Logger, cameras CameraStore, source FrameSource, detector Detector, prober Prober) *Service {
	return &Service{
		log:      log,
		cameras:  cameras,
		source:   source,
		detector: detector,
		prober:   prober,
	}
}

// Calibrate derives a camera's scale factor from a marker of known physical
// size: scale = markerSize / reference width in pixels. The widest visible
// marker is used.
func (s *Service) Calibrate(ctx context.Context, cameraID int64, markerSize float64) (models.Calibration, error) {
	const op = "service.calibration.Calibrate"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("camera_id", cameraID),
		slog.Float64("marker_size", markerSize),
	)

	if markerSize <= 0 {
		return models.Calibration{}, fmt.Errorf("%s: %w", op, errs.ErrInvalidMarkSize)
	}

	cam, err := s.cameras.Camera(ctx, cameraID)
	if err != nil {
		log.Error("failed to load camera", sl.Err(err))

		return models.Calibration{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.prober != nil {
		if err := s.prober.Probe(ctx, cam.RTSPURL); err != nil {
			log.Warn("camera did not answer probe", sl.Err(err))

			return models.Calibration{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	frame, err := s.source.Capture(ctx, cam)
	if err != nil {
		log.Error("failed to capture frame", sl.Err(err))

		return models.Calibration{}, fmt.Errorf("%s: %w", op, err)
	}

	detections, err := s.detector.Detect(frame, cameraID)
	if err != nil {
		log.Error("failed to detect markers", sl.Err(err))

		return models.Calibration{}, fmt.Errorf("%s: %w", op, err)
	}

	var widest *models.DetectionRecord
	for i := range detections {
		if widest == nil || detections[i].ReferenceWidth > widest.ReferenceWidth {
			widest = &detections[i]
		}
	}

	if widest == nil || widest.ReferenceWidth == 0 {
		log.Warn("no usable marker in frame")

		return models.Calibration{}, fmt.Errorf("%s: %w", op, errs.ErrNoMarkers)
	}

	res := models.Calibration{
		CameraID:       cameraID,
		MarkerSize:     markerSize,
		ReferenceWidth: widest.ReferenceWidth,
		ScaleFactor:    markerSize / float64(widest.ReferenceWidth),
		MarkerName:     widest.Name,
	}

	if err := s.cameras.UpdateScaleFactor(ctx, cameraID, res.ScaleFactor); err != nil {
		log.Error("failed to save scale factor", sl.Err(err))

		return models.Calibration{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("camera calibrated",
		slog.Int("reference_width", res.ReferenceWidth),
		slog.Float64("scale_factor", res.ScaleFactor),
	)

	return res, nil
}
