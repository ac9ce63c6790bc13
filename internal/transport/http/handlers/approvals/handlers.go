package approvalshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/expense"
	"orgflow/internal/domain/hierarchy"
	"orgflow/internal/domain/leave"
	"orgflow/internal/domain/overtime"
	"orgflow/internal/transport/http/api"
	"orgflow/internal/transport/http/middleware"
)

type Handler struct {
	Leave    *leave.Service
	Expense  *expense.Service
	Overtime *overtime.Service
	Resolver *hierarchy.Resolver
}

func NewHandler(leaveSvc *leave.Service, expenseSvc *expense.Service, overtimeSvc *overtime.Service, resolver *hierarchy.Resolver) *Handler {
	return &Handler{Leave: leaveSvc, Expense: expenseSvc, Overtime: overtimeSvc, Resolver: resolver}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/approvals", func(r chi.Router) {
		r.Get("/pending", h.handlePending)
		r.Get("/authority", h.handleAuthority)
	})
}

// handlePending returns everything the actor could decide right now,
// scoped by their place in the hierarchy. A plain employee gets empty
// lists, not an error.
func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	leaves, err := h.Leave.PendingForActor(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approvals_failed", "failed to load pending leaves", reqID)
		return
	}
	expenses, err := h.Expense.PendingForActor(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approvals_failed", "failed to load pending expenses", reqID)
		return
	}
	overtimes, err := h.Overtime.PendingForActor(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approvals_failed", "failed to load pending overtime", reqID)
		return
	}

	if leaves == nil {
		leaves = []leave.Request{}
	}
	if expenses == nil {
		expenses = []expense.Expense{}
	}
	if overtimes == nil {
		overtimes = []overtime.Entry{}
	}
	api.Success(w, map[string]any{
		"leaves":   leaves,
		"expenses": expenses,
		"overtime": overtimes,
	}, reqID)
}

func (h *Handler) handleAuthority(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	authority, err := h.Resolver.Authority(r.Context(), user.EmployeeID)
	if err != nil {
		// A valid token can outlive its employee record.
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "authority_failed", "failed to resolve authority", reqID)
		return
	}
	api.Success(w, authority, reqID)
}
