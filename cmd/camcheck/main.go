// Command camcheck probes every configured camera over RTSP and then runs a
// single capture cycle, printing the report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hieu03092004/CameraTrackingBE/internal/config"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/dispatcher"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/framesource"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/tracking"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres"
	anchorstorage "github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres/anchors"
	camerastorage "github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres/cameras"
	measurementstorage "github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres/measurements"
	"github.com/hieu03092004/CameraTrackingBE/internal/video/opencv"
)

func main() {
	var probeOnly bool

	flag.BoolVar(&probeOnly, "probe-only", false, "only probe cameras, skip the capture cycle")

	cfg := config.MustLoad()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

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

	cams, err := cameraStorage.Cameras(ctx)
	if err != nil {
		panic(err)
	}

	prober := framesource.NewProber(cfg.Capture.ProbeTimeout)

	unreachable := 0
	for _, cam := range cams {
		camLog := log.With(slog.Int64("camera_id", cam.CameraID), slog.String("name", cam.Name))

		if err := prober.Probe(ctx, cam.RTSPURL); err != nil {
			unreachable++
			camLog.Warn("camera unreachable", sl.Err(err))

			continue
		}

		camLog.Info("camera reachable")
	}

	log.Info("probe finished", slog.Int("cameras", len(cams)), slog.Int("unreachable", unreachable))

	if probeOnly {
		return
	}

	engine := tracking.New(log, opencv.NewDecoder(),
		anchorstorage.New(storage),
		measurementstorage.New(storage),
		tracking.WithDedupThreshold(cfg.Capture.DedupThreshold),
	)

	cycles := dispatcher.New(log, cameraStorage,
		framesource.New(log, opencv.NewOpener(), cfg.Capture.BufferSize),
		engine,
		dispatcher.Options{MaxWorkers: cfg.Capture.MaxWorkers, CycleTimeout: cfg.Capture.CycleTimeout},
	)

	report, err := cycles.RunCycle(ctx)
	if err != nil {
		panic(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(report); err != nil {
		panic(err)
	}
}
