package shiftshandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"orgflow/internal/domain/auth"
	"orgflow/internal/domain/shifts"
	"orgflow/internal/transport/http/api"
	"orgflow/internal/transport/http/middleware"
	"orgflow/internal/transport/http/shared"
)

type Handler struct {
	Shifts shifts.StoreAPI
}

func NewHandler(store shifts.StoreAPI) *Handler {
	return &Handler{Shifts: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/shifts", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(middleware.RequireAdmin).Post("/", h.handleCreate)
		r.Get("/{assignmentID}", h.handleGet)
	})
}

type createPayload struct {
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.EmployeeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "employeeId is required", reqID)
		return
	}
	date, err := shared.ParseDate(payload.Date)
	if err != nil || date.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "date must be YYYY-MM-DD", reqID)
		return
	}
	start, err := time.Parse(time.RFC3339, payload.StartTime)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "startTime must be RFC3339", reqID)
		return
	}
	end, err := time.Parse(time.RFC3339, payload.EndTime)
	if err != nil || !end.After(start) {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "endTime must be RFC3339 and after startTime", reqID)
		return
	}

	created, err := h.Shifts.Create(r.Context(), shifts.Assignment{
		EmployeeID: payload.EmployeeID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Status:     shifts.StatusScheduled,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_create_failed", "failed to create shift assignment", reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	employeeID := user.EmployeeID
	if requested := r.URL.Query().Get("employeeId"); requested != "" && requested != user.EmployeeID {
		if !auth.IsAdmin(user.Role) {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot read another employee's shifts", reqID)
			return
		}
		employeeID = requested
	}

	assignments, err := h.Shifts.ForEmployee(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_list_failed", "failed to list shift assignments", reqID)
		return
	}
	if assignments == nil {
		assignments = []shifts.Assignment{}
	}
	api.Success(w, assignments, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	a, err := h.Shifts.ByID(r.Context(), chi.URLParam(r, "assignmentID"))
	if err != nil {
		if errors.Is(err, shifts.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "shift assignment not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "shift_get_failed", "failed to load shift assignment", reqID)
		return
	}
	if a.EmployeeID != user.EmployeeID && !auth.IsAdmin(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot read another employee's shift", reqID)
		return
	}
	api.Success(w, a, reqID)
}
