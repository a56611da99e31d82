package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
)

type cameraList struct {
	cams []models.Camera
	err  error
}

func (c cameraList) Cameras(context.Context) ([]models.Camera, error) {
	return c.cams, c.err
}

type fakeSource struct {
	fail    map[int64]error
	block   map[int64]bool
	delay   time.Duration
	panicOn int64

	active    atomic.Int64
	maxActive atomic.Int64

	mu        sync.Mutex
	refreshed []int64
}

func (s *fakeSource) Capture(ctx context.Context, cam models.Camera) (models.Frame, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		cur := s.maxActive.Load()
		if n <= cur || s.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}

	if cam.CameraID == s.panicOn {
		panic("decoder blew up")
	}

	if s.block[cam.CameraID] {
		<-ctx.Done()
		return models.Frame{}, ctx.Err()
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if err := s.fail[cam.CameraID]; err != nil {
		return models.Frame{}, err
	}

	return models.Frame{Data: []byte{1}, Width: 1, Height: 1, Channels: 1}, nil
}

func (s *fakeSource) Refresh(ids []int64) {
	s.mu.Lock()
	s.refreshed = ids
	s.mu.Unlock()
}

type fakeResolver struct {
	markers int
}

func (r fakeResolver) Resolve(_ context.Context, _ models.Frame, _ int64) ([]models.DetectionRecord, error) {
	recs := make([]models.DetectionRecord, r.markers)
	for i := range recs {
		recs[i].Resolution = models.ResolutionMeasurementAdded
	}
	return recs, nil
}

type fakeArchiver struct {
	calls atomic.Int64
	err   error
}

func (a *fakeArchiver) Archive(context.Context, models.Camera, models.Frame, []models.DetectionRecord) (string, error) {
	a.calls.Add(1)
	if a.err != nil {
		return "", a.err
	}
	return "camera_1/snap.jpg", nil
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes int
	cycles   int
}

func (r *countingRecorder) CameraProcessed(models.CaptureOutcome) {
	r.mu.Lock()
	r.outcomes++
	r.mu.Unlock()
}

func (r *countingRecorder) CycleFinished(models.CycleReport) {
	r.mu.Lock()
	r.cycles++
	r.mu.Unlock()
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cams(ids ...int64) []models.Camera {
	res := make([]models.Camera, 0, len(ids))
	for _, id := range ids {
		res = append(res, models.Camera{CameraID: id, Name: "cam", RTSPURL: "rtsp://cam/stream"})
	}
	return res
}

func TestRunCycleEmptyCameraList(t *testing.T) {
	d := New(discard(), cameraList{}, &fakeSource{}, fakeResolver{}, Options{})

	report, err := d.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Cameras)
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, report.Failures)
	assert.NotEmpty(t, report.CycleID)
}

func TestRunCycleIsolatesCameraFailure(t *testing.T) {
	src := &fakeSource{fail: map[int64]error{2: errors.New("connection refused")}}
	rec := &countingRecorder{}
	d := New(discard(), cameraList{cams: cams(1, 2, 3)}, src, fakeResolver{markers: 2}, Options{}, WithRecorder(rec))

	report, err := d.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Cameras)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 4, report.Markers)
	require.Len(t, report.Failures, 1)
	assert.EqualValues(t, 2, report.Failures[0].CameraID)
	assert.Contains(t, report.Failures[0].Reason, "connection refused")

	assert.Equal(t, []int64{1, 2, 3}, src.refreshed)
	assert.Equal(t, 3, rec.outcomes)
	assert.Equal(t, 1, rec.cycles)
}

func TestRunCycleNoAddress(t *testing.T) {
	list := cams(1)
	list = append(list, models.Camera{CameraID: 2, Name: "unwired"})

	d := New(discard(), cameraList{cams: list}, &fakeSource{}, fakeResolver{markers: 1}, Options{})

	report, err := d.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "no address", report.Failures[0].Reason)
	assert.ErrorIs(t, report.Failures[0].Err, errs.ErrNoAddress)
}

func TestRunCycleTimeoutMarksOutstandingCameras(t *testing.T) {
	src := &fakeSource{block: map[int64]bool{2: true}}
	d := New(discard(), cameraList{cams: cams(1, 2, 3)}, src, fakeResolver{markers: 1},
		Options{MaxWorkers: 4, CycleTimeout: 50 * time.Millisecond})

	start := time.Now()
	report, err := d.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.TimedOut)
	require.Len(t, report.Failures, 1)
	assert.True(t, report.Failures[0].TimedOut)
	assert.ErrorIs(t, report.Failures[0].Err, errs.ErrCycleTimeout)
	assert.EqualValues(t, 2, report.Failures[0].CameraID)
}

func TestRunCycleBoundsConcurrency(t *testing.T) {
	src := &fakeSource{delay: 20 * time.Millisecond}
	d := New(discard(), cameraList{cams: cams(1, 2, 3, 4, 5, 6, 7, 8)}, src, fakeResolver{}, Options{MaxWorkers: 2})

	report, err := d.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, report.Succeeded)
	assert.LessOrEqual(t, src.maxActive.Load(), int64(2))
}

func TestRunCycleCameraListFailure(t *testing.T) {
	d := New(discard(), cameraList{err: errors.New("db down")}, &fakeSource{}, fakeResolver{}, Options{})

	_, err := d.RunCycle(context.Background())
	assert.Error(t, err)
}

func TestProcessCameraRecoversPanic(t *testing.T) {
	d := New(discard(), cameraList{cams: cams(1, 2)}, &fakeSource{panicOn: 1}, fakeResolver{}, Options{})

	report, err := d.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Reason, "panic")
}

func TestProcessCameraArchivesOnlyFramesWithMarkers(t *testing.T) {
	archiver := &fakeArchiver{}

	withMarkers := New(discard(), cameraList{}, &fakeSource{}, fakeResolver{markers: 1}, Options{}, WithArchiver(archiver))
	outcome := withMarkers.ProcessCamera(context.Background(), cams(1)[0])
	assert.True(t, outcome.Success)
	assert.Equal(t, "camera_1/snap.jpg", outcome.SnapshotKey)

	empty := New(discard(), cameraList{}, &fakeSource{}, fakeResolver{}, Options{}, WithArchiver(archiver))
	outcome = empty.ProcessCamera(context.Background(), cams(1)[0])
	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.SnapshotKey)

	assert.EqualValues(t, 1, archiver.calls.Load())
}

func TestProcessCameraArchiveFailureKeepsSuccess(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("bucket missing")}
	d := New(discard(), cameraList{}, &fakeSource{}, fakeResolver{markers: 3}, Options{}, WithArchiver(archiver))

	outcome := d.ProcessCamera(context.Background(), cams(1)[0])

	assert.True(t, outcome.Success)
	assert.Equal(t, 3, outcome.Markers)
	assert.Empty(t, outcome.SnapshotKey)
}
