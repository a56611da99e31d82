package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
)

type Decoder interface {
	Decode(frame models.Frame) ([]models.RawDetection, error)
}

type AnchorStore interface {
	AnchorByName(ctx context.Context, name string) (models.MarkerAnchor, error)
	CreateAnchor(ctx context.Context, anchor models.MarkerAnchor) (models.MarkerAnchor, error)
}

type MeasurementSaver interface {
	CreateMeasurement(ctx context.Context, m models.Measurement) (models.Measurement, error)
}

// Mirror receives every persisted row, e.g. for a time-series copy.
type Mirror interface {
	AnchorCreated(cameraID int64, anchor models.MarkerAnchor)
	MeasurementAdded(cameraID int64, anchor models.MarkerAnchor, m models.Measurement)
}

type Engine struct {
	log          *slog.Logger
	decoder      Decoder
	anchors      AnchorStore
	measurements MeasurementSaver
	mirror       Mirror
	threshold    int
	now          func() time.Time
}

type Option func(*Engine)

func WithMirror(m Mirror) Option {
	return func(e *Engine) { e.mirror = m }
}

func WithDedupThreshold(px int) Option {
	return func(e *Engine) { e.threshold = px }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(log *slog.Logger, decoder Decoder, anchors AnchorStore, measurements MeasurementSaver, opts ...Option) *Engine {
	e := &Engine{
		log:          log,
		decoder:      decoder,
		anchors:      anchors,
		measurements: measurements,
		threshold:    DefaultDedupThreshold,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Detect decodes and deduplicates the markers in frame without touching storage.
func (e *Engine) Detect(frame models.Frame, cameraID int64) ([]models.DetectionRecord, error) {
	const op = "service.tracking.Detect"

	raw, err := e.decoder.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return Accept(raw, cameraID, e.threshold), nil
}

// Resolve detects the markers in frame and records each one against the
// registry: a first sighting creates the anchor, later sightings append a
// measurement. Storage failures are contained per detection.
func (e *Engine) Resolve(ctx context.Context, frame models.Frame, cameraID int64) ([]models.DetectionRecord, error) {
	const op = "service.tracking.Resolve"

	log := e.log.With(
		slog.String("op", op),
		slog.Int64("camera_id", cameraID),
	)

	records, err := e.Detect(frame, cameraID)
	if err != nil {
		log.Error("failed to decode frame", sl.Err(err))

		return nil, err
	}

	for i := range records {
		rec := &records[i]

		// Work left over after the cycle deadline is dropped, not written late.
		if err := ctx.Err(); err != nil {
			rec.Resolution = models.ResolutionSkipped
			rec.Err = err
			rec.Error = err.Error()

			continue
		}

		if err := e.record(ctx, cameraID, rec); err != nil {
			log.Error("failed to persist detection", slog.String("name", rec.Name), sl.Err(err))

			rec.Resolution = models.ResolutionSkipped
			rec.Err = err
			rec.Error = err.Error()
		}
	}

	log.Debug("frame resolved", slog.Int("markers", len(records)))

	return records, nil
}

func (e *Engine) record(ctx context.Context, cameraID int64, rec *models.DetectionRecord) error {
	anchor, err := e.anchors.AnchorByName(ctx, rec.Name)
	if err == nil {
		return e.addMeasurement(ctx, cameraID, anchor, rec)
	}

	if !errors.Is(err, errs.ErrAnchorNotFound) {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	created, err := e.anchors.CreateAnchor(ctx, models.MarkerAnchor{
		NameROI:     rec.Name,
		InitialX:    rec.Center.X,
		InitialY:    rec.Center.Y,
		InitialTime: e.now(),
	})

	switch {
	case err == nil:
		rec.Resolution = models.ResolutionAnchorCreated
		rec.QRCodeID = created.QRCodeID

		if e.mirror != nil {
			e.mirror.AnchorCreated(cameraID, created)
		}

		return nil
	case errors.Is(err, errs.ErrAnchorExists):
		// Another camera registered the name first; this sighting becomes a measurement.
		anchor, err := e.anchors.AnchorByName(ctx, rec.Name)
		if err != nil {
			return err
		}

		return e.addMeasurement(ctx, cameraID, anchor, rec)
	default:
		return err
	}
}

func (e *Engine) addMeasurement(ctx context.Context, cameraID int64, anchor models.MarkerAnchor, rec *models.DetectionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := e.measurements.CreateMeasurement(ctx, models.Measurement{
		X:            rec.Center.X,
		Y:            rec.Center.Y,
		QRCodeID:     anchor.QRCodeID,
		TrackingTime: e.now(),
	})
	if err != nil {
		return err
	}

	rec.Resolution = models.ResolutionMeasurementAdded
	rec.QRCodeID = anchor.QRCodeID
	rec.MeasurementID = m.MeasurementID

	if e.mirror != nil {
		e.mirror.MeasurementAdded(cameraID, anchor, m)
	}

	return nil
}
