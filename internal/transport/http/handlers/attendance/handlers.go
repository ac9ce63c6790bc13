package attendancehandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"orgflow/internal/domain/attendance"
	"orgflow/internal/domain/leave"
	"orgflow/internal/platform/jobs"
	"orgflow/internal/transport/http/api"
	"orgflow/internal/transport/http/middleware"
	"orgflow/internal/transport/http/shared"
)

type Handler struct {
	Detector *attendance.Detector
	Entries  attendance.StoreAPI
	Jobs     *jobs.Service
}

func NewHandler(detector *attendance.Detector, entries attendance.StoreAPI, jobsSvc *jobs.Service) *Handler {
	return &Handler{Detector: detector, Entries: entries, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Post("/clock-in", h.handleClockIn)
		r.Post("/clock-out", h.handleClockOut)
		r.Get("/entries", h.handleListEntries)
		r.With(middleware.RequireAdmin).Post("/detect", h.handleDetect)
	})
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	entry, err := h.Entries.ClockIn(r.Context(), user.EmployeeID, time.Now().UTC())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "clock_in_failed", "failed to record clock-in", reqID)
		return
	}
	api.Success(w, entry, reqID)
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	entry, err := h.Entries.ClockOut(r.Context(), user.EmployeeID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			api.Fail(w, http.StatusConflict, "state_conflict", "no clock-in recorded today", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "clock_out_failed", "failed to record clock-out", reqID)
		return
	}
	api.Success(w, entry, reqID)
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	to := leave.DateOnly(time.Now().UTC())
	from := to.AddDate(0, -1, 0)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_dates", "from must be YYYY-MM-DD", reqID)
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_dates", "to must be YYYY-MM-DD", reqID)
			return
		}
		to = parsed
	}

	entries, err := h.Entries.ForEmployee(r.Context(), user.EmployeeID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "entries_failed", "failed to list time entries", reqID)
		return
	}
	api.Success(w, entries, reqID)
}

type detectPayload struct {
	Date string `json:"date"`
}

// handleDetect runs the absence detection batch on demand through the
// job runner, defaulting to yesterday when no date is given.
func (h *Handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload detectPayload
	_ = json.NewDecoder(r.Body).Decode(&payload)

	date := leave.DateOnly(time.Now().UTC().AddDate(0, 0, -1))
	if payload.Date != "" {
		parsed, err := shared.ParseDate(payload.Date)
		if err != nil || parsed.IsZero() {
			api.Fail(w, http.StatusBadRequest, "invalid_dates", "date must be YYYY-MM-DD", reqID)
			return
		}
		date = parsed
	}

	summary, err := h.Jobs.RunNow(r.Context(), jobs.JobAttendanceDetection, func(ctx context.Context) (any, error) {
		return h.Detector.Run(ctx, date)
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "detection_failed", "attendance detection failed", reqID)
		return
	}
	api.Success(w, summary, reqID)
}
