package settlementhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/http-server/handlers"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/api/response"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
	"github.com/hieu03092004/CameraTrackingBE/internal/services/settlement"
)

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

type SettlementHandler struct {
	log        *slog.Logger
	calculator Calculator
}

type Calculator interface {
	Compute(ctx context.Context, req settlement.Request) ([]models.SettlementPoint, error)
}

func New(log *slog.Logger, calculator Calculator) *SettlementHandler {
	return &SettlementHandler{
		log:        log,
		calculator: calculator,
	}
}

type Query struct {
	MovableQRCodeID int64     `validate:"gt=0"`
	FixedQRCodeID   int64     `validate:"gt=0"`
	MovableCameraID int64     `validate:"gt=0"`
	FixedCameraID   int64     `validate:"gt=0"`
	Interval        string    `validate:"omitempty,oneof=hour day month year"`
	From            time.Time `validate:"required"`
	To              time.Time `validate:"required"`
}

type Response struct {
	Interval models.Interval          `json:"interval"`
	Points   []models.SettlementPoint `json:"data"`
}

func (h *SettlementHandler) Chart(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settlement.Chart"

	reqID := middleware.GetReqID(r.Context())

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", reqID),
	)

	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		log.Error("invalid query", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error(err.Error(), reqID))

		return
	}

	if err := validator.New().Struct(q); err != nil {
		validateErr := err.(validator.ValidationErrors)

		log.Error("invalid request", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

		return
	}

	interval := models.Interval(q.Interval)
	if interval == "" {
		interval = models.IntervalHour
	}

	points, err := h.calculator.Compute(r.Context(), settlement.Request{
		MovableQRCodeID: q.MovableQRCodeID,
		FixedQRCodeID:   q.FixedQRCodeID,
		MovableCameraID: q.MovableCameraID,
		FixedCameraID:   q.FixedCameraID,
		Interval:        interval,
		From:            q.From,
		To:              q.To,
	})
	if err != nil {
		if settlement.IsValidation(err) {
			log.Warn("settlement request rejected", sl.Err(err))

			handlers.Error(w, r, http.StatusBadRequest, response.Error(err.Error(), reqID))

			return
		}

		log.Error("failed to compute settlement", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to compute settlement", reqID))

		return
	}

	render.JSON(w, r, Response{Interval: interval, Points: points})
}

// ParseQuery reads the chart parameters. Missing numbers stay zero and are
// rejected by validation; malformed ones fail here.
func ParseQuery(v url.Values) (Query, error) {
	var (
		q   Query
		err error
	)

	ids := []struct {
		name string
		dst  *int64
	}{
		{"qr_code_id_movable", &q.MovableQRCodeID},
		{"qr_code_id_fixed", &q.FixedQRCodeID},
		{"camera_id_movable", &q.MovableCameraID},
		{"camera_id_fixed", &q.FixedCameraID},
	}

	for _, id := range ids {
		if len(v[id.name]) > 1 {
			return Query{}, fmt.Errorf("%s given more than once", id.name)
		}

		raw := v.Get(id.name)
		if raw == "" {
			continue
		}

		if *id.dst, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return Query{}, fmt.Errorf("%s must be an integer", id.name)
		}
	}

	q.Interval = v.Get("interval")

	if q.From, err = parseTime(v.Get("time_from")); err != nil {
		return Query{}, fmt.Errorf("time_from: %w", err)
	}

	if q.To, err = parseTime(v.Get("time_to")); err != nil {
		return Query{}, fmt.Errorf("time_to: %w", err)
	}

	return q, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.New("unrecognized time format")
}
