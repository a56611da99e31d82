package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
)

type CameraProvider interface {
	CamerasByIDs(ctx context.Context, ids ...int64) (map[int64]models.Camera, error)
}

type AnchorProvider interface {
	AnchorsByIDs(ctx context.Context, ids ...int64) (map[int64]models.MarkerAnchor, error)
}

type MeasurementProvider interface {
	Measurements(ctx context.Context, qrCodeID int64, from, to time.Time) ([]models.Measurement, error)
}

type Request struct {
	MovableQRCodeID int64
	FixedQRCodeID   int64
	MovableCameraID int64
	FixedCameraID   int64
	Interval        models.Interval
	From            time.Time
	To              time.Time
}

// ValidationError is returned for requests that cannot be computed as asked.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error, format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...), Err: err}
}

type Calculator struct {
	log          *slog.Logger
	cameras      CameraProvider
	anchors      AnchorProvider
	measurements MeasurementProvider
	loc          *time.Location
}

// New builds a calculator. Buckets are cut in loc; nil means UTC.
func New(log *slog.Logger, cameras CameraProvider, anchors AnchorProvider, measurements MeasurementProvider, loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}

	return &Calculator{
		log:          log,
		cameras:      cameras,
		anchors:      anchors,
		measurements: measurements,
		loc:          loc,
	}
}

func (c *Calculator) Compute(ctx context.Context, req Request) ([]models.SettlementPoint, error) {
	const op = "service.settlement.Compute"

	log := c.log.With(
		slog.String("op", op),
		slog.Int64("qr_code_id_movable", req.MovableQRCodeID),
		slog.Int64("qr_code_id_fixed", req.FixedQRCodeID),
	)

	interval, err := models.ParseInterval(string(req.Interval))
	if err != nil {
		return nil, invalid(errs.ErrInvalidInterval, "unknown interval %q", req.Interval)
	}
	req.Interval = interval

	if req.From.IsZero() || req.To.IsZero() || req.To.Before(req.From) {
		return nil, invalid(errs.ErrInvalidTimeRange, "time_from must not be after time_to")
	}

	cams, err := c.cameras.CamerasByIDs(ctx, req.MovableCameraID, req.FixedCameraID)
	if err != nil {
		log.Error("failed to load cameras", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sb, err := scale(cams, req.MovableCameraID)
	if err != nil {
		return nil, err
	}

	sa, err := scale(cams, req.FixedCameraID)
	if err != nil {
		return nil, err
	}

	anchors, err := c.anchors.AnchorsByIDs(ctx, req.MovableQRCodeID, req.FixedQRCodeID)
	if err != nil {
		log.Error("failed to load anchors", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	movable, ok := anchors[req.MovableQRCodeID]
	if !ok {
		return nil, invalid(errs.ErrAnchorNotFound, "qr code %d not found", req.MovableQRCodeID)
	}

	fixed, ok := anchors[req.FixedQRCodeID]
	if !ok {
		return nil, invalid(errs.ErrAnchorNotFound, "qr code %d not found", req.FixedQRCodeID)
	}

	movableSeries, err := c.measurements.Measurements(ctx, movable.QRCodeID, req.From, req.To)
	if err != nil {
		log.Error("failed to load movable measurements", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fixedSeries, err := c.measurements.Measurements(ctx, fixed.QRCodeID, req.From, req.To)
	if err != nil {
		log.Error("failed to load fixed measurements", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return Series(Input{
		Movable: Bucket(movableSeries, req.Interval, c.loc),
		Fixed:   Bucket(fixedSeries, req.Interval, c.loc),
		YM0:     float64(movable.InitialY),
		YR0:     float64(fixed.InitialY),
		Sb:      sb,
		Sa:      sa,
	}), nil
}

func scale(cams map[int64]models.Camera, id int64) (float64, error) {
	cam, ok := cams[id]
	if !ok {
		return 0, invalid(errs.ErrCameraNotFound, "camera %d not found", id)
	}

	if cam.ScaleFactor == nil {
		return 0, invalid(errs.ErrScaleNotCalibrated, "camera %d has no conversion rate", id)
	}

	return *cam.ScaleFactor, nil
}

// Bucket averages the Y coordinate of ms per interval bucket. Keys are bucket
// labels in models.BucketLayout, which sort chronologically.
func Bucket(ms []models.Measurement, interval models.Interval, loc *time.Location) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, m := range ms {
		key := interval.Truncate(m.TrackingTime.In(loc)).Format(models.BucketLayout)
		sums[key] += float64(m.Y)
		counts[key]++
	}

	avg := make(map[string]float64, len(sums))
	for k, sum := range sums {
		avg[k] = sum / float64(counts[k])
	}

	return avg
}

type Input struct {
	Movable map[string]float64
	Fixed   map[string]float64
	YM0     float64
	YR0     float64
	Sb      float64
	Sa      float64
}

// Series computes (ym - ym0)*Sb - (yr - yr0)*Sa over the union of buckets,
// falling back to the initial Y where one side has no reading.
func Series(in Input) []models.SettlementPoint {
	seen := make(map[string]struct{}, len(in.Movable)+len(in.Fixed))
	keys := make([]string, 0, len(in.Movable)+len(in.Fixed))

	for _, series := range []map[string]float64{in.Movable, in.Fixed} {
		for k := range series {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	res := make([]models.SettlementPoint, 0, len(keys))

	for _, k := range keys {
		ym, ok := in.Movable[k]
		if !ok {
			ym = in.YM0
		}

		yr, ok := in.Fixed[k]
		if !ok {
			yr = in.YR0
		}

		res = append(res, models.SettlementPoint{
			Time:       k,
			Settlement: (ym-in.YM0)*in.Sb - (yr-in.YR0)*in.Sa,
		})
	}

	return res
}

// IsValidation reports whether err should be shown to the caller as a bad request.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
