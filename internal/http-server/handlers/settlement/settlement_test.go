package settlementhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/settlement"
)

type stubCalculator struct {
	got settlement.Request
	res []models.SettlementPoint
	err error
}

func (s *stubCalculator) Compute(_ context.Context, req settlement.Request) ([]models.SettlementPoint, error) {
	s.got = req

	return s.res, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validQuery = "/settlement-chart?qr_code_id_movable=1&qr_code_id_fixed=2&camera_id_movable=3&camera_id_fixed=4" +
	"&time_from=2025-01-01T00:00:00&time_to=2025-01-02T00:00:00Z"

func TestChart(t *testing.T) {
	calc := &stubCalculator{res: []models.SettlementPoint{{Time: "2025-01-01 10:00:00", Settlement: 12.5}}}
	h := New(discard(), calc)

	rec := httptest.NewRecorder()
	h.Chart(rec, httptest.NewRequest(http.MethodGet, validQuery+"&interval=day", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, int64(1), calc.got.MovableQRCodeID)
	assert.Equal(t, int64(4), calc.got.FixedCameraID)
	assert.Equal(t, models.IntervalDay, calc.got.Interval)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), calc.got.To)

	var got Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Points, 1)
	assert.InDelta(t, 12.5, got.Points[0].Settlement, 1e-9)
}

func TestChartDefaultsToHour(t *testing.T) {
	calc := &stubCalculator{}
	h := New(discard(), calc)

	rec := httptest.NewRecorder()
	h.Chart(rec, httptest.NewRequest(http.MethodGet, validQuery, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.IntervalHour, calc.got.Interval)
}

func TestChartErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{name: "missing ids", query: "/settlement-chart?time_from=2025-01-01&time_to=2025-01-02", status: http.StatusBadRequest},
		{name: "non numeric id", query: strings.Replace(validQuery, "qr_code_id_movable=1", "qr_code_id_movable=abc", 1), status: http.StatusBadRequest},
		{name: "repeated id", query: validQuery + "&qr_code_id_movable=9", status: http.StatusBadRequest},
		{name: "bad interval", query: validQuery + "&interval=week", status: http.StatusBadRequest},
		{name: "bad time", query: "/settlement-chart?qr_code_id_movable=1&qr_code_id_fixed=2&camera_id_movable=3&camera_id_fixed=4&time_from=yesterday&time_to=2025-01-02", status: http.StatusBadRequest},
		{name: "rejected by calculator", query: validQuery, err: &settlement.ValidationError{Msg: "camera 3 has no conversion rate", Err: errs.ErrScaleNotCalibrated}, status: http.StatusBadRequest},
		{name: "storage failure", query: validQuery, err: errors.New("db down"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(discard(), &stubCalculator{err: tt.err})

			rec := httptest.NewRecorder()
			h.Chart(rec, httptest.NewRequest(http.MethodGet, tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestParseQueryTimeLayouts(t *testing.T) {
	for _, raw := range []string{"2025-03-04T05:06:07Z", "2025-03-04T05:06:07", "2025-03-04 05:06:07"} {
		q, err := ParseQuery(url.Values{"time_from": {raw}, "time_to": {raw}})
		require.NoError(t, err, raw)
		assert.Equal(t, time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), q.From, raw)
	}
}
