package camerashandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
)

type stubCameras struct {
	cams []models.Camera
	err  error
}

func (s stubCameras) Cameras(context.Context) ([]models.Camera, error) { return s.cams, s.err }

type stubCalibrator struct {
	gotID   int64
	gotSize float64
	err     error
}

func (s *stubCalibrator) Calibrate(_ context.Context, id int64, size float64) (models.Calibration, error) {
	s.gotID, s.gotSize = id, size
	if s.err != nil {
		return models.Calibration{}, s.err
	}

	return models.Calibration{CameraID: id, MarkerSize: size, ReferenceWidth: 50, ScaleFactor: size / 50}, nil
}

func router(h *CameraHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/cameras", h.Cameras)
	r.Post("/cameras/{id}/calibration", h.Calibrate)

	return r
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCameras(t *testing.T) {
	rate := 0.2
	h := New(discard(), stubCameras{cams: []models.Camera{{CameraID: 1, Name: "north", RTSPURL: "rtsp://cam1", ScaleFactor: &rate}}}, &stubCalibrator{})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cameras", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Camera
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "north", got[0].Name)
	assert.InDelta(t, 0.2, *got[0].ScaleFactor, 1e-9)
}

func TestCamerasStorageFailure(t *testing.T) {
	h := New(discard(), stubCameras{err: errors.New("db down")}, &stubCalibrator{})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cameras", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCalibrate(t *testing.T) {
	cal := &stubCalibrator{}
	h := New(discard(), stubCameras{}, cal)

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cameras/7/calibration", strings.NewReader(`{"marker_size": 10}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), cal.gotID)
	assert.InDelta(t, 10.0, cal.gotSize, 1e-9)

	var got models.Calibration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.InDelta(t, 0.2, got.ScaleFactor, 1e-9)
}

func TestCalibrateErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		err    error
		status int
	}{
		{name: "bad id", path: "/cameras/x/calibration", body: `{"marker_size": 1}`, status: http.StatusBadRequest},
		{name: "empty body", path: "/cameras/1/calibration", body: "", status: http.StatusBadRequest},
		{name: "non positive size", path: "/cameras/1/calibration", body: `{"marker_size": 0}`, status: http.StatusBadRequest},
		{name: "unknown camera", path: "/cameras/1/calibration", body: `{"marker_size": 1}`, err: errs.ErrCameraNotFound, status: http.StatusNotFound},
		{name: "no marker", path: "/cameras/1/calibration", body: `{"marker_size": 1}`, err: errs.ErrNoMarkers, status: http.StatusUnprocessableEntity},
		{name: "camera down", path: "/cameras/1/calibration", body: `{"marker_size": 1}`, err: fmt.Errorf("capture: %w", errs.ErrCameraUnavailable), status: http.StatusBadGateway},
		{name: "storage", path: "/cameras/1/calibration", body: `{"marker_size": 1}`, err: errors.New("db down"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(discard(), stubCameras{}, &stubCalibrator{err: tt.err})

			rec := httptest.NewRecorder()
			router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
