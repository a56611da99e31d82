package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v3"
	"golang.org/x/sync/errgroup"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
)

const (
	DefaultMaxWorkers   = 4
	DefaultCycleTimeout = 30 * time.Second
)

type CameraProvider interface {
	Cameras(ctx context.Context) ([]models.Camera, error)
}

type FrameSource interface {
	Capture(ctx context.Context, cam models.Camera) (models.Frame, error)
	Refresh(cameraIDs []int64)
}

type Resolver interface {
	Resolve(ctx context.Context, frame models.Frame, cameraID int64) ([]models.DetectionRecord, error)
}

type SnapshotArchiver interface {
	Archive(ctx context.Context, cam models.Camera, frame models.Frame, detections []models.DetectionRecord) (string, error)
}

type Recorder interface {
	CameraProcessed(outcome models.CaptureOutcome)
	CycleFinished(report models.CycleReport)
}

type Options struct {
	MaxWorkers   int
	CycleTimeout time.Duration
}

type Dispatcher struct {
	log      *slog.Logger
	cameras  CameraProvider
	source   FrameSource
	resolver Resolver
	archiver SnapshotArchiver
	recorder Recorder
	opts     Options
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithArchiver(a SnapshotArchiver) Option {
	return func(d *Dispatcher) { d.archiver = a }
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

func New(log *slog.Logger, cameras CameraProvider, source FrameSource, resolver Resolver, opts Options, options ...Option) *Dispatcher {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = DefaultCycleTimeout
	}

	d := &Dispatcher{
		log:      log,
		cameras:  cameras,
		source:   source,
		resolver: resolver,
		opts:     opts,
		now:      time.Now,
	}

	for _, o := range options {
		o(d)
	}

	return d
}

// RunCycle captures and resolves every configured camera once. Cameras still
// running when the cycle timeout fires are reported as timed out.
func (d *Dispatcher) RunCycle(ctx context.Context) (models.CycleReport, error) {
	const op = "service.dispatcher.RunCycle"

	report := models.CycleReport{
		CycleID:   shortuuid.New(),
		StartedAt: d.now(),
		Outcomes:  []models.CaptureOutcome{},
		Failures:  []models.CaptureOutcome{},
	}

	log := d.log.With(
		slog.String("op", op),
		slog.String("cycle_id", report.CycleID),
	)

	cams, err := d.cameras.Cameras(ctx)
	if err != nil {
		log.Error("failed to list cameras", sl.Err(err))

		return report, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]int64, 0, len(cams))
	for _, c := range cams {
		ids = append(ids, c.CameraID)
	}
	d.source.Refresh(ids)

	if len(cams) == 0 {
		log.Info("no cameras configured")

		report.FinishedAt = d.now()

		return report, nil
	}

	log.Info("capture cycle started", slog.Int("cameras", len(cams)), slog.Int("workers", d.opts.MaxWorkers))

	cycleCtx, cancel := context.WithTimeout(ctx, d.opts.CycleTimeout)
	defer cancel()

	var (
		mu        sync.Mutex
		finalized bool
		results   = make(map[int64]models.CaptureOutcome, len(cams))
	)

	done := make(chan struct{})

	go func() {
		defer close(done)

		var g errgroup.Group
		g.SetLimit(d.opts.MaxWorkers)

		for _, cam := range cams {
			if cycleCtx.Err() != nil {
				break
			}

			g.Go(func() error {
				outcome := d.ProcessCamera(cycleCtx, cam)

				mu.Lock()
				defer mu.Unlock()

				// Outcomes that land after the deadline count as timed out.
				if !finalized && cycleCtx.Err() == nil {
					results[cam.CameraID] = outcome
				}

				return nil
			})
		}

		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-cycleCtx.Done():
	}

	mu.Lock()
	finalized = true
	snapshot := results
	mu.Unlock()

	for _, cam := range cams {
		outcome, ok := snapshot[cam.CameraID]
		if !ok {
			outcome = d.unfinished(cycleCtx, cam)
		}

		report.Outcomes = append(report.Outcomes, outcome)
	}

	aggregate(&report)
	report.FinishedAt = d.now()
	report.Timing.Wall = report.FinishedAt.Sub(report.StartedAt)

	if d.recorder != nil {
		for _, o := range report.Outcomes {
			d.recorder.CameraProcessed(o)
		}
		d.recorder.CycleFinished(report)
	}

	log.Info("capture cycle finished",
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("timed_out", report.TimedOut),
		slog.Int("markers", report.Markers),
		slog.Duration("wall", report.Timing.Wall),
	)

	return report, nil
}

func (d *Dispatcher) unfinished(ctx context.Context, cam models.Camera) models.CaptureOutcome {
	outcome := models.CaptureOutcome{
		CameraID:   cam.CameraID,
		CameraName: cam.Name,
		TimedOut:   true,
		Err:        errs.ErrCycleTimeout,
		Reason:     "timed out",
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		outcome.Err = context.Canceled
		outcome.Reason = "canceled"
	}

	return outcome
}

// ProcessCamera runs capture and resolution for one camera. It never panics
// or returns an error; every failure ends up in the outcome.
func (d *Dispatcher) ProcessCamera(ctx context.Context, cam models.Camera) (outcome models.CaptureOutcome) {
	const op = "service.dispatcher.ProcessCamera"

	log := d.log.With(
		slog.String("op", op),
		slog.Int64("camera_id", cam.CameraID),
		slog.String("camera_name", cam.Name),
	)

	outcome = models.CaptureOutcome{
		CameraID:   cam.CameraID,
		CameraName: cam.Name,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("camera worker panicked", slog.Any("panic", r))

			outcome.Success = false
			outcome.Err = fmt.Errorf("%s: panic: %v", op, r)
			outcome.Reason = outcome.Err.Error()
		}
	}()

	if strings.TrimSpace(cam.RTSPURL) == "" {
		log.Warn("camera skipped")

		outcome.Err = errs.ErrNoAddress
		outcome.Reason = "no address"

		return outcome
	}

	start := time.Now()
	frame, err := d.source.Capture(ctx, cam)
	outcome.CaptureDuration = time.Since(start)

	if err != nil {
		log.Error("failed to capture frame", sl.Err(err))

		outcome.Err = err
		outcome.Reason = err.Error()

		return outcome
	}

	start = time.Now()
	detections, err := d.resolver.Resolve(ctx, frame, cam.CameraID)
	outcome.ResolveDuration = time.Since(start)

	if err != nil {
		log.Error("failed to resolve markers", sl.Err(err))

		outcome.Err = err
		outcome.Reason = err.Error()

		return outcome
	}

	outcome.Success = true
	outcome.Markers = len(detections)
	outcome.Detections = detections

	if d.archiver != nil && len(detections) > 0 && ctx.Err() == nil {
		key, err := d.archiver.Archive(ctx, cam, frame, detections)
		if err != nil {
			log.Warn("failed to archive snapshot", sl.Err(err))
		}
		outcome.SnapshotKey = key
	}

	log.Info("camera processed",
		slog.Int("markers", outcome.Markers),
		slog.Duration("capture", outcome.CaptureDuration),
		slog.Duration("resolve", outcome.ResolveDuration),
	)

	return outcome
}

func aggregate(report *models.CycleReport) {
	report.Cameras = len(report.Outcomes)

	for _, o := range report.Outcomes {
		switch {
		case o.Success:
			report.Succeeded++
		case o.TimedOut:
			report.TimedOut++
			report.Failed++
			report.Failures = append(report.Failures, o)
		default:
			report.Failed++
			report.Failures = append(report.Failures, o)
		}

		report.Markers += o.Markers

		report.Timing.CaptureTotal += o.CaptureDuration
		report.Timing.CaptureMax = max(report.Timing.CaptureMax, o.CaptureDuration)
		report.Timing.ResolveTotal += o.ResolveDuration
		report.Timing.ResolveMax = max(report.Timing.ResolveMax, o.ResolveDuration)
	}
}
