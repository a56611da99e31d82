package camerashandler

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

type CameraHandler struct {
	log        *slog.Logger
	cameras    CameraProvider
	calibrator Calibrator
}

type CameraProvider interface {
	Cameras(ctx context.Context) ([]models.Camera, error)
}

type Calibrator interface {
	Calibrate(ctx context.Context, cameraID int64, markerSize float64) (models.Calibration, error)
}

func New(log *slog.Logger, cameras CameraProvider, calibrator Calibrator) *CameraHandler {
	return &CameraHandler{
		log:        log,
		cameras:    cameras,
		calibrator: calibrator,
	}
}

type CalibrationRequest struct {
	MarkerSize float64 `json:"marker_size" validate:"gt=0"`
}

func (h *CameraHandler) Cameras(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cameras.Cameras"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cams, err := h.cameras.Cameras(r.Context())
	if err != nil {
		log.Error("failed to list cameras", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to list cameras", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, cams)
}

func (h *CameraHandler) Calibrate(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cameras.Calibrate"

	reqID := middleware.GetReqID(r.Context())

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", reqID),
	)

	cameraID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || cameraID <= 0 {
		log.Error("invalid camera id", slog.String("id", chi.URLParam(r, "id")))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid camera id", reqID))

		return
	}

	var req CalibrationRequest
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
		var validateErr validator.ValidationErrors
		if !errors.As(err, &validateErr) {
			handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to validate request", reqID))

			return
		}

		log.Error("invalid request", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

		return
	}

	res, err := h.calibrator.Calibrate(r.Context(), cameraID, req.MarkerSize)
	if err != nil {
		log.Error("failed to calibrate camera", slog.Int64("camera_id", cameraID), sl.Err(err))

		switch {
		case errors.Is(err, errs.ErrInvalidMarkSize):
			handlers.Error(w, r, http.StatusBadRequest, response.Error(err.Error(), reqID))
		case errors.Is(err, errs.ErrCameraNotFound):
			handlers.Error(w, r, http.StatusNotFound, response.Error("camera not found", reqID))
		case errors.Is(err, errs.ErrNoMarkers):
			handlers.Error(w, r, http.StatusUnprocessableEntity, response.Error("no marker visible", reqID))
		case errors.Is(err, errs.ErrCameraUnavailable), errors.Is(err, errs.ErrNoFrame), errors.Is(err, errs.ErrNoAddress):
			handlers.Error(w, r, http.StatusBadGateway, response.Error("camera unavailable", reqID))
		default:
			handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to calibrate camera", reqID))
		}

		return
	}

	render.JSON(w, r, res)
}
