package expensehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/expense"
	"orgflow/internal/transport/http/api"
	"orgflow/internal/transport/http/middleware"
)

type Handler struct {
	Expense *expense.Service
}

func NewHandler(svc *expense.Service) *Handler {
	return &Handler{Expense: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleSubmit)
		r.Get("/{expenseID}", h.handleGet)
		r.Post("/{expenseID}/approve", h.handleApprove)
		r.Post("/{expenseID}/decline", h.handleDecline)
		r.Post("/{expenseID}/pay", h.handlePay)
	})
}

type submitPayload struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "amount must be a decimal string", reqID)
		return
	}

	created, err := h.Expense.Submit(r.Context(), expense.SubmitParams{
		EmployeeID:  user.EmployeeID,
		Amount:      amount,
		Currency:    payload.Currency,
		Description: payload.Description,
	})
	if err != nil {
		h.failExpense(w, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	expenses, err := h.Expense.ListForEmployee(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "expense_list_failed", "failed to list expenses", reqID)
		return
	}
	api.Success(w, expenses, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	e, err := h.Expense.Get(r.Context(), chi.URLParam(r, "expenseID"))
	if err != nil {
		h.failExpense(w, err, reqID)
		return
	}
	api.Success(w, e, reqID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	approved, err := h.Expense.Approve(r.Context(), chi.URLParam(r, "expenseID"), user.EmployeeID)
	if err != nil {
		h.failExpense(w, err, reqID)
		return
	}
	api.Success(w, approved, reqID)
}

type declinePayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload declinePayload
	_ = json.NewDecoder(r.Body).Decode(&payload)

	declined, err := h.Expense.Decline(r.Context(), chi.URLParam(r, "expenseID"), user.EmployeeID, payload.Reason)
	if err != nil {
		h.failExpense(w, err, reqID)
		return
	}
	api.Success(w, declined, reqID)
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	paid, err := h.Expense.MarkPaid(r.Context(), chi.URLParam(r, "expenseID"), user.EmployeeID)
	if err != nil {
		h.failExpense(w, err, reqID)
		return
	}
	api.Success(w, paid, reqID)
}

func (h *Handler) failExpense(w http.ResponseWriter, err error, reqID string) {
	var stateErr *expense.StateError
	switch {
	case errors.Is(err, expense.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "expense not found", reqID)
	case errors.Is(err, expense.ErrNotAuthorized), errors.Is(err, expense.ErrPayRequiresAdmin):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, expense.ErrInvalidAmount), errors.Is(err, expense.ErrInvalidCurrency),
		errors.Is(err, expense.ErrEmptyDescription), errors.Is(err, expense.ErrReasonRequired):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case errors.Is(err, expense.ErrPayNeedsApproved):
		api.Fail(w, http.StatusConflict, "state_conflict", err.Error(), reqID)
	case errors.As(err, &stateErr):
		api.Fail(w, http.StatusConflict, "state_conflict", stateErr.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "expense_failed", "expense operation failed", reqID)
	}
}
