package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
)

type ScheduleProvider interface {
	ActiveSchedules(ctx context.Context) ([]models.ScheduleEntry, error)
}

type CycleRunner interface {
	RunCycle(ctx context.Context) (models.CycleReport, error)
}

// Engine evaluates the active schedules once per minute and starts a
// capture cycle whenever one of them matches the current hour and minute.
type Engine struct {
	log       *slog.Logger
	schedules ScheduleProvider
	runner    CycleRunner
	interval  time.Duration
	now       func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	stop    chan struct{}
	running bool
	cycles  sync.WaitGroup
}

type Option func(*Engine)

func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(log *slog.Logger, schedules ScheduleProvider, runner CycleRunner, opts ...Option) *Engine {
	e := &Engine{
		log:       log,
		schedules: schedules,
		runner:    runner,
		interval:  time.Minute,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Matches reports whether any entry falls on the hour and minute of now.
func Matches(now time.Time, entries []models.ScheduleEntry) bool {
	for _, e := range entries {
		if e.CaptureTime.Hour == now.Hour() && e.CaptureTime.Minute == now.Minute() {
			return true
		}
	}

	return false
}

func NextBoundary(now time.Time) time.Time {
	return now.Truncate(time.Minute).Add(time.Minute)
}

// Start arms the first evaluation on the next minute boundary and ticks
// every interval after that. It is a no-op if the engine is running.
func (e *Engine) Start(ctx context.Context) {
	const op = "service.trigger.Start"

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return
	}

	now := e.now()
	first := NextBoundary(now)
	stop := make(chan struct{})

	e.stop = stop
	e.running = true
	e.timer = time.AfterFunc(first.Sub(now), func() {
		e.fire(ctx, stop)

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.fire(ctx, stop)
			}
		}
	})

	e.log.Info("trigger engine started",
		slog.String("op", op),
		slog.Time("first_tick", first),
		slog.Duration("interval", e.interval),
	)
}

// Stop cancels pending ticks. Cycles already running are left to finish,
// as they are when the context given to Start is cancelled.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.timer.Stop()
	close(e.stop)
	e.running = false

	e.log.Info("trigger engine stopped")
}

// Wait blocks until cycles started by the engine have returned.
func (e *Engine) Wait() {
	e.cycles.Wait()
}

func (e *Engine) fire(ctx context.Context, stop <-chan struct{}) {
	e.mu.Lock()
	select {
	case <-stop:
		e.mu.Unlock()
		return
	default:
	}
	e.cycles.Add(1)
	e.mu.Unlock()

	now := e.now()

	// Cancelling ctx ends the tick loop only; a started cycle runs to completion.
	cycleCtx := context.WithoutCancel(ctx)

	go func() {
		defer e.cycles.Done()

		if _, err := e.Tick(cycleCtx, now); err != nil {
			e.log.Error("tick failed", slog.Time("at", now), sl.Err(err))
		}
	}()
}

// Tick evaluates the schedules for now and runs at most one cycle.
// The returned bool reports whether a cycle was started.
func (e *Engine) Tick(ctx context.Context, now time.Time) (bool, error) {
	const op = "service.trigger.Tick"

	log := e.log.With(
		slog.String("op", op),
		slog.String("at", now.Format("15:04")),
	)

	entries, err := e.schedules.ActiveSchedules(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !Matches(now, entries) {
		log.Debug("no schedule matched", slog.Int("active", len(entries)))

		return false, nil
	}

	log.Info("schedule matched, running capture cycle")

	report, err := e.runner.RunCycle(ctx)
	if err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("capture cycle completed",
		slog.String("cycle_id", report.CycleID),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
	)

	return true, nil
}
