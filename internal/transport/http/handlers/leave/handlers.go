package leavehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"orgflow/internal/domain/auth"
	"orgflow/internal/domain/balance"
	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/leave"
	"orgflow/internal/transport/http/api"
	"orgflow/internal/transport/http/middleware"
	"orgflow/internal/transport/http/shared"
)

type Handler struct {
	Leave   *leave.Service
	Balance *balance.Service
}

func NewHandler(leaveSvc *leave.Service, balanceSvc *balance.Service) *Handler {
	return &Handler{Leave: leaveSvc, Balance: balanceSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Get("/requests", h.handleListRequests)
		r.Post("/requests", h.handleCreateRequest)
		r.Get("/requests/{requestID}", h.handleGetRequest)
		r.Put("/requests/{requestID}", h.handleUpdateDraft)
		r.Delete("/requests/{requestID}", h.handleDeleteDraft)
		r.Post("/requests/{requestID}/submit", h.handleSubmitDraft)
		r.Post("/requests/{requestID}/approve", h.handleApprove)
		r.Post("/requests/{requestID}/reject", h.handleReject)
		r.Post("/requests/{requestID}/revert", h.handleRevert)
		r.Get("/balances", h.handleListBalances)
		r.Post("/balances/adjust", h.handleAdjustBalance)
		r.Post("/balances/recalculate", h.handleRecalculateBalance)
	})
}

type requestPayload struct {
	Type       string `json:"type"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Reason     string `json:"reason"`
	ApproverID string `json:"approverId"`
	Draft      bool   `json:"draft"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload requestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	start, err := shared.ParseDate(payload.StartDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "startDate must be YYYY-MM-DD", reqID)
		return
	}
	end, err := shared.ParseDate(payload.EndDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "endDate must be YYYY-MM-DD", reqID)
		return
	}

	params := leave.SubmitParams{
		EmployeeID: user.EmployeeID,
		ApproverID: payload.ApproverID,
		Type:       payload.Type,
		StartDate:  start,
		EndDate:    end,
		Reason:     payload.Reason,
	}

	var created leave.Request
	if payload.Draft {
		created, err = h.Leave.CreateDraft(r.Context(), params)
	} else {
		created, err = h.Leave.Submit(r.Context(), params)
	}
	if err != nil {
		h.failLeave(w, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	requests, err := h.Leave.ListForEmployee(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave requests", reqID)
		return
	}
	api.Success(w, requests, reqID)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	req, err := h.Leave.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.failLeave(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func (h *Handler) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload requestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	start, err := shared.ParseDate(payload.StartDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "startDate must be YYYY-MM-DD", reqID)
		return
	}
	end, err := shared.ParseDate(payload.EndDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "endDate must be YYYY-MM-DD", reqID)
		return
	}

	updated, err := h.Leave.UpdateDraft(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID, leave.SubmitParams{
		EmployeeID: user.EmployeeID,
		ApproverID: payload.ApproverID,
		Type:       payload.Type,
		StartDate:  start,
		EndDate:    end,
		Reason:     payload.Reason,
	})
	if err != nil {
		h.failLeave(w, err, reqID)
		return
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	if err := h.Leave.DeleteDraft(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID); err != nil {
		h.failLeave(w, err, reqID)
		return
	}
	api.Success(w, map[string]bool{"deleted": true}, reqID)
}

func (h *Handler) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	submitted, err := h.Leave.SubmitDraft(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID)
	if err != nil {
		h.failLeave(w, err, reqID)
		return
	}
	api.Success(w, submitted, reqID)
}

type decisionPayload struct {
	Comment string `json:"comment"`
	Reason  string `json:"reason"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload decisionPayload
	_ = json.NewDecoder(r.Body).Decode(&payload)

	approved, err := h.Leave.Approve(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID, payload.Comment)
	if err != nil {
		h.failLeave(w, err, reqID)
		return
	}
	api.Success(w, approved, reqID)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload decisionPayload
	_ = json.NewDecoder(r.Body).Decode(&payload)

	rejected, err := h.Leave.Reject(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID, payload.Reason)
	if err != nil {
		h.failLeave(w, err, reqID)
		return
	}
	api.Success(w, rejected, reqID)
}

func (h *Handler) handleRevert(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	reverted, err := h.Leave.Revert(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID)
	if err != nil {
		h.failLeave(w, err, reqID)
		return
	}
	api.Success(w, reverted, reqID)
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	employeeID := user.EmployeeID
	if requested := r.URL.Query().Get("employeeId"); requested != "" && requested != user.EmployeeID {
		if !isPrivileged(user.Role) {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot read another employee's balance", reqID)
			return
		}
		employeeID = requested
	}

	balances, err := h.Balance.ListForEmployee(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balance_list_failed", "failed to list balances", reqID)
		return
	}

	// Remaining is derived on the way out, never stored.
	type balanceView struct {
		balance.Balance
		RemainingDays float64 `json:"remainingDays"`
	}
	views := make([]balanceView, 0, len(balances))
	for _, b := range balances {
		views = append(views, balanceView{Balance: b, RemainingDays: b.RemainingDays()})
	}
	api.Success(w, views, reqID)
}

type adjustPayload struct {
	EmployeeID string  `json:"employeeId"`
	YearStart  string  `json:"yearStart"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	if !isPrivileged(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr or admin role required", reqID)
		return
	}

	var payload adjustPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.Reason == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "an adjustment reason is required", reqID)
		return
	}
	yearStart, err := shared.ParseDate(payload.YearStart)
	if err != nil || yearStart.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "yearStart must be YYYY-MM-DD", reqID)
		return
	}

	adjusted, err := h.Balance.Adjust(r.Context(), payload.EmployeeID, yearStart, payload.Amount, payload.Reason, user.EmployeeID)
	if err != nil {
		if errors.Is(err, balance.ErrNoBalance) {
			api.Fail(w, http.StatusNotFound, "not_found", "no balance for that employee and year", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "balance_adjust_failed", "failed to adjust balance", reqID)
		return
	}
	api.Success(w, adjusted, reqID)
}

type recalculatePayload struct {
	EmployeeID string `json:"employeeId"`
	YearStart  string `json:"yearStart"`
}

func (h *Handler) handleRecalculateBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	if !isPrivileged(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr or admin role required", reqID)
		return
	}

	var payload recalculatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	yearStart, err := shared.ParseDate(payload.YearStart)
	if err != nil || yearStart.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "yearStart must be YYYY-MM-DD", reqID)
		return
	}

	recalculated, err := h.Balance.Recalculate(r.Context(), payload.EmployeeID, yearStart)
	if err != nil {
		if errors.Is(err, balance.ErrNoBalance) {
			api.Fail(w, http.StatusNotFound, "not_found", "no balance for that employee and year", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "balance_recalculate_failed", "failed to recalculate balance", reqID)
		return
	}
	api.Success(w, recalculated, reqID)
}

func isPrivileged(role string) bool {
	return role == auth.RoleHR || auth.IsAdmin(role)
}

// failLeave maps domain errors to the API surface: validation is 400,
// authorization 403, unknown ids 404, and state or overlap conflicts
// 409.
func (h *Handler) failLeave(w http.ResponseWriter, err error, reqID string) {
	var stateErr *leave.StateError
	var conflictErr *leave.ConflictError
	switch {
	case errors.Is(err, leave.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", reqID)
	case errors.Is(err, leave.ErrNotAuthorized), errors.Is(err, leave.ErrNotSubject), errors.Is(err, leave.ErrAdminOnlyRevert):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, leave.ErrInvalidType), errors.Is(err, leave.ErrInvalidRange),
		errors.Is(err, leave.ErrPastStartDate), errors.Is(err, leave.ErrReasonTooShort),
		errors.Is(err, leave.ErrReasonRequired):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case errors.As(err, &stateErr):
		api.Fail(w, http.StatusConflict, "state_conflict", stateErr.Error(), reqID)
	case errors.As(err, &conflictErr):
		api.Fail(w, http.StatusConflict, "overlap_conflict", conflictErr.Error(), reqID)
	case errors.Is(err, leave.ErrNotDraft):
		api.Fail(w, http.StatusConflict, "state_conflict", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "leave_failed", "leave operation failed", reqID)
	}
}
