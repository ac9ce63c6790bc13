package overtimehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/overtime"
	"orgflow/internal/transport/http/api"
	"orgflow/internal/transport/http/middleware"
	"orgflow/internal/transport/http/shared"
)

type Handler struct {
	Overtime *overtime.Service
}

func NewHandler(svc *overtime.Service) *Handler {
	return &Handler{Overtime: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/overtime", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleSubmit)
		r.Get("/{entryID}", h.handleGet)
		r.Post("/{entryID}/approve", h.handleApprove)
		r.Post("/{entryID}/reject", h.handleReject)
	})
}

type submitPayload struct {
	Date           string  `json:"date"`
	ScheduledHours float64 `json:"scheduledHours"`
	WorkedHours    float64 `json:"workedHours"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	date, err := shared.ParseDate(payload.Date)
	if err != nil || date.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "date must be YYYY-MM-DD", reqID)
		return
	}

	created, err := h.Overtime.Submit(r.Context(), overtime.SubmitParams{
		EmployeeID:     user.EmployeeID,
		Date:           date,
		ScheduledHours: payload.ScheduledHours,
		WorkedHours:    payload.WorkedHours,
	})
	if err != nil {
		h.failOvertime(w, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	entries, err := h.Overtime.ListForEmployee(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overtime_list_failed", "failed to list overtime entries", reqID)
		return
	}
	api.Success(w, entries, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	e, err := h.Overtime.Get(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		h.failOvertime(w, err, reqID)
		return
	}
	api.Success(w, e, reqID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	approved, err := h.Overtime.Approve(r.Context(), chi.URLParam(r, "entryID"), user.EmployeeID)
	if err != nil {
		h.failOvertime(w, err, reqID)
		return
	}
	api.Success(w, approved, reqID)
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload rejectPayload
	_ = json.NewDecoder(r.Body).Decode(&payload)

	rejected, err := h.Overtime.Reject(r.Context(), chi.URLParam(r, "entryID"), user.EmployeeID, payload.Reason)
	if err != nil {
		h.failOvertime(w, err, reqID)
		return
	}
	api.Success(w, rejected, reqID)
}

func (h *Handler) failOvertime(w http.ResponseWriter, err error, reqID string) {
	var stateErr *overtime.StateError
	var dupErr *overtime.DuplicateError
	switch {
	case errors.Is(err, overtime.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "overtime entry not found", reqID)
	case errors.Is(err, overtime.ErrNotAuthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, overtime.ErrInvalidHours), errors.Is(err, overtime.ErrReasonRequired):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case errors.As(err, &dupErr):
		api.Fail(w, http.StatusConflict, "duplicate_entry", dupErr.Error(), reqID)
	case errors.As(err, &stateErr):
		api.Fail(w, http.StatusConflict, "state_conflict", stateErr.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "overtime_failed", "overtime operation failed", reqID)
	}
}
