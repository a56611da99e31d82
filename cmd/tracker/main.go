package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hieu03092004/CameraTrackingBE/internal/config"
	camerashandler "github.com/hieu03092004/CameraTrackingBE/internal/http-server/handlers/cameras"
	cyclehandler "github.com/hieu03092004/CameraTrackingBE/internal/http-server/handlers/cycles"
	schedulehandler "github.com/hieu03092004/CameraTrackingBE/internal/http-server/handlers/schedules"
	settlementhandler "github.com/hieu03092004/CameraTrackingBE/internal/http-server/handlers/settlement"
	"github.com/hieu03092004/CameraTrackingBE/internal/http-server/middleware/logger"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
	"github.com/hieu03092004/CameraTrackingBE/internal/metrics"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/calibration"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/dispatcher"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/framesource"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/settlement"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/snapshots"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/tracking"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/trigger"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/blob"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/influx"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres"
	anchorstorage "github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres/anchors"
	camerastorage "github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres/cameras"
	measurementstorage "github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres/measurements"
	schedulestorage "github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres/schedules"
	"github.com/hieu03092004/CameraTrackingBE/internal/video/opencv"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting application", slog.String("env", cfg.Env), slog.String("db_driver", cfg.DB.Driver))

	if cfg.DB.Driver == postgres.DriverPostgres && cfg.DB.Password == "" {
		panic("POSTGRES_PASSWORD is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer storage.Close()

	cameraStorage := camerastorage.New(storage)
	scheduleStorage := schedulestorage.New(storage)
	anchorStorage := anchorstorage.New(storage)
	measurementStorage := measurementstorage.New(storage)

	recorder := metrics.New()

	source := framesource.New(log, opencv.NewOpener(), cfg.Capture.BufferSize)

	trackingOpts := []tracking.Option{tracking.WithDedupThreshold(cfg.Capture.DedupThreshold)}

	if cfg.Influx.Enabled {
		mirror, err := influx.New(ctx, log, cfg.Influx)
		if err != nil {
			log.Warn("influx mirror disabled", sl.Err(err))
		} else {
			defer mirror.Close()

			trackingOpts = append(trackingOpts, tracking.WithMirror(mirror))
		}
	}

	engine := tracking.New(log, opencv.NewDecoder(), anchorStorage, measurementStorage, trackingOpts...)

	dispatcherOpts := []dispatcher.Option{dispatcher.WithRecorder(recorder)}

	if cfg.Snapshots.Enabled {
		store, err := blob.Open(ctx, cfg.Snapshots)
		if err != nil {
			panic(err)
		}

		archive := snapshots.New(log, store, opencv.NewAnnotator(cfg.Snapshots.JPEGQuality))

		dispatcherOpts = append(dispatcherOpts, dispatcher.WithArchiver(recorder.WrapArchiver(archive)))
	}

	cycles := dispatcher.New(log, cameraStorage, source, engine, dispatcher.Options{
		MaxWorkers:   cfg.Capture.MaxWorkers,
		CycleTimeout: cfg.Capture.CycleTimeout,
	}, dispatcherOpts...)

	calibrator := calibration.New(log, cameraStorage, source, engine, framesource.NewProber(cfg.Capture.ProbeTimeout))
	calculator := settlement.New(log, cameraStorage, anchorStorage, measurementStorage, time.UTC)

	scheduler := trigger.New(log, scheduleStorage, cycles, trigger.WithInterval(cfg.Capture.Tick))
	scheduler.Start(ctx)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(logger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	cameraHandler := camerashandler.New(log, cameraStorage, calibrator)
	scheduleHandler := schedulehandler.New(log, scheduleStorage)
	settlementHandler := settlementhandler.New(log, calculator)
	cycleHandler := cyclehandler.New(log, cycles, cfg.HTTPServer.CycleTimeout)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/cameras", cameraHandler.Cameras)
		r.Post("/cameras/{id}/calibration", cameraHandler.Calibrate)

		r.Get("/schedule-times", scheduleHandler.Schedules)
		r.Put("/schedule-times/{id}", scheduleHandler.SetActive)

		r.Get("/settlement-chart", settlementHandler.Chart)

		r.Post("/cycles", cycleHandler.Run)
	})

	router.Handle("/metrics", recorder.Handler())

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: max(cfg.HTTPServer.Timeout, cfg.HTTPServer.CycleTimeout),
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("stopping application")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", sl.Err(err))
	}

	scheduler.Wait()

	log.Info("application stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
