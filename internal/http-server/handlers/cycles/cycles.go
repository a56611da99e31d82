package cyclehandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/http-server/handlers"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/api/response"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
)

type CycleHandler struct {
	log     *slog.Logger
	runner  CycleRunner
	timeout time.Duration
}

type CycleRunner interface {
	RunCycle(ctx context.Context) (models.CycleReport, error)
}

func New(log *slog.Logger, runner CycleRunner, timeout time.Duration) *CycleHandler {
	return &CycleHandler{
		log:     log,
		runner:  runner,
		timeout: timeout,
	}
}

// Run executes one capture cycle outside the schedule and returns its report.
func (h *CycleHandler) Run(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cycles.Run"

	reqID := middleware.GetReqID(r.Context())

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", reqID),
	)

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.runner.RunCycle(ctx)
	if err != nil {
		log.Error("manual cycle failed", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to run capture cycle", reqID))

		return
	}

	log.Info("manual cycle finished", slog.String("cycle_id", report.CycleID))

	render.JSON(w, r, report)
}
