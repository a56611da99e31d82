package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
)

func TestCameraProcessed(t *testing.T) {
	r := New()

	r.CameraProcessed(models.CaptureOutcome{
		Success:         true,
		CaptureDuration: 200 * time.Millisecond,
		Detections: []models.DetectionRecord{
			{Resolution: models.ResolutionAnchorCreated},
			{Resolution: models.ResolutionMeasurementAdded},
			{Resolution: models.ResolutionMeasurementAdded},
		},
	})
	r.CameraProcessed(models.CaptureOutcome{TimedOut: true})
	r.CameraProcessed(models.CaptureOutcome{Reason: "no address"})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cameraOutcomes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cameraOutcomes.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cameraOutcomes.WithLabelValues("failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.markers.WithLabelValues(string(models.ResolutionMeasurementAdded))))
	assert.Equal(t, 1, testutil.CollectAndCount(r.captureDuration))
}

func TestCycleFinished(t *testing.T) {
	tests := []struct {
		name   string
		report models.CycleReport
		result string
	}{
		{name: "empty", report: models.CycleReport{}, result: "empty"},
		{name: "all ok", report: models.CycleReport{Cameras: 2, Succeeded: 2}, result: "ok"},
		{name: "some failed", report: models.CycleReport{Cameras: 3, Succeeded: 2, Failed: 1}, result: "partial"},
		{name: "all failed", report: models.CycleReport{Cameras: 2, Failed: 2}, result: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			r.CycleFinished(tt.report)

			assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues(tt.result)))
		})
	}
}

type stubArchiver struct{ err error }

func (s stubArchiver) Archive(context.Context, models.Camera, models.Frame, []models.DetectionRecord) (string, error) {
	return "camera_1/x.jpg", s.err
}

func TestArchiverCounts(t *testing.T) {
	r := New()

	_, err := r.WrapArchiver(stubArchiver{}).Archive(context.Background(), models.Camera{}, models.Frame{}, nil)
	require.NoError(t, err)

	_, err = r.WrapArchiver(stubArchiver{err: errors.New("bucket gone")}).Archive(context.Background(), models.Camera{}, models.Frame{}, nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.snapshots.WithLabelValues("stored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.snapshots.WithLabelValues("error")))
}

func TestHandlerServesTrackerMetrics(t *testing.T) {
	r := New()
	r.CycleFinished(models.CycleReport{Cameras: 1, Succeeded: 1, Timing: models.CycleTiming{Wall: time.Second}})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `tracker_cycles_total{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "tracker_cycle_duration_seconds_count 1")
}
