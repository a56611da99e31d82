// Package metrics exposes capture cycle counters and timings for Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
)

const namespace = "tracker"

type Recorder struct {
	registry *prometheus.Registry

	cycles          *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	cameraOutcomes  *prometheus.CounterVec
	captureDuration prometheus.Histogram
	markers         *prometheus.CounterVec
	snapshots       *prometheus.CounterVec
}

// New registers the tracker collectors, plus the Go and process collectors,
// on a private registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Capture cycles by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of capture cycles.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		cameraOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "camera_outcomes_total",
			Help:      "Per-camera results within cycles.",
		}, []string{"result"}),
		captureDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capture_duration_seconds",
			Help:      "Time spent grabbing one frame.",
			Buckets:   prometheus.DefBuckets,
		}),
		markers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_total",
			Help:      "Accepted markers by resolution.",
		}, []string{"outcome"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Annotated snapshot uploads by result.",
		}, []string{"result"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.cycles,
		r.cycleDuration,
		r.cameraOutcomes,
		r.captureDuration,
		r.markers,
		r.snapshots,
	)

	return r
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) CameraProcessed(o models.CaptureOutcome) {
	r.cameraOutcomes.WithLabelValues(outcomeResult(o)).Inc()

	if o.CaptureDuration > 0 {
		r.captureDuration.Observe(o.CaptureDuration.Seconds())
	}

	for _, d := range o.Detections {
		r.markers.WithLabelValues(string(d.Resolution)).Inc()
	}
}

func (r *Recorder) CycleFinished(report models.CycleReport) {
	result := "ok"
	switch {
	case report.Cameras == 0:
		result = "empty"
	case report.Failed == report.Cameras:
		result = "failed"
	case report.Failed > 0:
		result = "partial"
	}

	r.cycles.WithLabelValues(result).Inc()
	r.cycleDuration.Observe(report.Timing.Wall.Seconds())
}

type Archiver interface {
	Archive(ctx context.Context, cam models.Camera, frame models.Frame, detections []models.DetectionRecord) (string, error)
}

type countingArchiver struct {
	next     Archiver
	counters *prometheus.CounterVec
}

// WrapArchiver counts the uploads made through next.
func (r *Recorder) WrapArchiver(next Archiver) Archiver {
	return &countingArchiver{next: next, counters: r.snapshots}
}

func (a *countingArchiver) Archive(ctx context.Context, cam models.Camera, frame models.Frame, detections []models.DetectionRecord) (string, error) {
	key, err := a.next.Archive(ctx, cam, frame, detections)
	if err != nil {
		a.counters.WithLabelValues("error").Inc()

		return key, err
	}

	a.counters.WithLabelValues("stored").Inc()

	return key, nil
}

func outcomeResult(o models.CaptureOutcome) string {
	switch {
	case o.Success:
		return "success"
	case o.TimedOut:
		return "timeout"
	default:
		return "failure"
	}
}
