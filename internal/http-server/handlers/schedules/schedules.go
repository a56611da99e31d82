package schedulehandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/http-server/handlers"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/api/response"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
)

type ScheduleHandler struct {
	log       *slog.Logger
	schedules ScheduleStore
}

type ScheduleStore interface {
	Schedules(ctx context.Context) ([]models.ScheduleEntry, error)
	SetActive(ctx context.Context, scheduleID int64, active bool) (models.ScheduleEntry, error)
}

func New(log *slog.Logger, schedules ScheduleStore) *ScheduleHandler {
	return &ScheduleHandler{
		log:       log,
		schedules: schedules,
	}
}

// ActiveRequest uses a pointer so that a missing field fails "required"
// instead of reading as false.
type ActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *ScheduleHandler) Schedules(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedules.Schedules"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	entries, err := h.schedules.Schedules(r.Context())
	if err != nil {
		log.Error("failed to list schedules", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to list schedules", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, entries)
}

func (h *ScheduleHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedules.SetActive"

	reqID := middleware.GetReqID(r.Context())

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", reqID),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Error("invalid schedule id", slog.String("id", chi.URLParam(r, "id")))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid schedule id", reqID))

		return
	}

	var req ActiveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")

			handlers.Error(w, r, http.StatusBadRequest, response.Error("empty request", ""))

			return
		}

		log.Error("failed to decode request body", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("failed to decode request", reqID))

		return
	}

	if err := validator.New().Struct(req); err != nil {
		validateErr := err.(validator.ValidationErrors)

		log.Error("invalid request", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

		return
	}

	entry, err := h.schedules.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		if errors.Is(err, errs.ErrScheduleNotFound) {
			log.Error("schedule not found", slog.Int64("schedule_time_id", id))

			handlers.Error(w, r, http.StatusNotFound, response.Error("schedule not found", reqID))

			return
		}

		log.Error("failed to update schedule", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to update schedule", reqID))

		return
	}

	log.Info("schedule updated", slog.Int64("schedule_time_id", id), slog.Bool("is_active", entry.IsActive))

	render.JSON(w, r, entry)
}
