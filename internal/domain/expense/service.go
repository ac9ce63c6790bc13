package expense

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"orgflow/internal/domain/auth"
	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/hierarchy"
	"orgflow/internal/domain/notifications"
)

const subtreeDepth = 10

// Approver answers authorization questions for decision transitions.
type Approver interface {
	CanApprove(ctx context.Context, approverID, subjectID string, domain hierarchy.Domain) (bool, error)
}

// Notifier delivers decision notifications to the expense's owner.
type Notifier interface {
	Notify(ctx context.Context, recipientID, ntype, priority, title, body string) error
}

// DirectoryAPI is the read surface the service needs from the employee
// directory.
type DirectoryAPI interface {
	EmployeeByID(ctx context.Context, employeeID string) (directory.Employee, error)
	DirectReports(ctx context.Context, managerID string) ([]string, error)
	SubtreeIDs(ctx context.Context, managerID string, maxDepth int) ([]string, error)
}

type Service struct {
	Store     StoreAPI
	Resolver  Approver
	Directory DirectoryAPI

	// Notifier is optional; when set, the owner is told about
	// approve and decline decisions.
	Notifier Notifier
}

func NewService(store StoreAPI, resolver Approver, dir DirectoryAPI) *Service {
	return &Service{Store: store, Resolver: resolver, Directory: dir}
}

type SubmitParams struct {
	EmployeeID  string
	Amount      decimal.Decimal
	Currency    string
	Description string
}

func (s *Service) Submit(ctx context.Context, p SubmitParams) (Expense, error) {
	if _, err := s.Directory.EmployeeByID(ctx, p.EmployeeID); err != nil {
		return Expense{}, err
	}
	if !p.Amount.IsPositive() {
		return Expense{}, ErrInvalidAmount
	}
	if len(p.Currency) != 3 {
		return Expense{}, ErrInvalidCurrency
	}
	if p.Description == "" {
		return Expense{}, ErrEmptyDescription
	}
	return s.Store.Create(ctx, Expense{
		EmployeeID:  p.EmployeeID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Description: p.Description,
		Status:      StatusPending,
	})
}

// Approve performs the guarded pending -> approved transition. The
// resolver uses the expense domain, so hr cannot approve here even
// though they can for leave.
func (s *Service) Approve(ctx context.Context, expenseID, actorID string) (Expense, error) {
	e, err := s.Store.ByID(ctx, expenseID)
	if err != nil {
		return Expense{}, err
	}
	if e.Status != StatusPending {
		return Expense{}, &StateError{Current: e.Status}
	}

	allowed, err := s.Resolver.CanApprove(ctx, actorID, e.EmployeeID, hierarchy.DomainExpense)
	if err != nil {
		return Expense{}, err
	}
	if !allowed {
		return Expense{}, ErrNotAuthorized
	}

	ok, err := s.Store.MarkApproved(ctx, expenseID, actorID, time.Now().UTC())
	if err != nil {
		return Expense{}, err
	}
	if !ok {
		return s.stateConflict(ctx, expenseID)
	}
	decided, err := s.Store.ByID(ctx, expenseID)
	if err != nil {
		return Expense{}, err
	}
	s.notifyDecided(ctx, decided, "Expense approved", "Your expense claim was approved.")
	return decided, nil
}

// Decline performs the guarded pending -> declined transition. A
// non-empty reason is required.
func (s *Service) Decline(ctx context.Context, expenseID, actorID, reason string) (Expense, error) {
	if reason == "" {
		return Expense{}, ErrReasonRequired
	}
	e, err := s.Store.ByID(ctx, expenseID)
	if err != nil {
		return Expense{}, err
	}
	if e.Status != StatusPending {
		return Expense{}, &StateError{Current: e.Status}
	}

	allowed, err := s.Resolver.CanApprove(ctx, actorID, e.EmployeeID, hierarchy.DomainExpense)
	if err != nil {
		return Expense{}, err
	}
	if !allowed {
		return Expense{}, ErrNotAuthorized
	}

	ok, err := s.Store.MarkDeclined(ctx, expenseID, actorID, reason, time.Now().UTC())
	if err != nil {
		return Expense{}, err
	}
	if !ok {
		return s.stateConflict(ctx, expenseID)
	}
	decided, err := s.Store.ByID(ctx, expenseID)
	if err != nil {
		return Expense{}, err
	}
	s.notifyDecided(ctx, decided, "Expense declined", "Your expense claim was declined: "+reason)
	return decided, nil
}

// MarkPaid moves an approved expense to paid. Payment authority is its
// own domain: only admin and super-admin pass, regardless of hierarchy.
func (s *Service) MarkPaid(ctx context.Context, expenseID, actorID string) (Expense, error) {
	e, err := s.Store.ByID(ctx, expenseID)
	if err != nil {
		return Expense{}, err
	}
	if e.Status != StatusApproved {
		if e.Status == StatusPending {
			return Expense{}, ErrPayNeedsApproved
		}
		return Expense{}, &StateError{Current: e.Status}
	}

	allowed, err := s.Resolver.CanApprove(ctx, actorID, e.EmployeeID, hierarchy.DomainExpensePaid)
	if err != nil {
		return Expense{}, err
	}
	if !allowed {
		return Expense{}, ErrPayRequiresAdmin
	}

	ok, err := s.Store.MarkPaid(ctx, expenseID, actorID, time.Now().UTC())
	if err != nil {
		return Expense{}, err
	}
	if !ok {
		return s.stateConflict(ctx, expenseID)
	}
	return s.Store.ByID(ctx, expenseID)
}

func (s *Service) Get(ctx context.Context, expenseID string) (Expense, error) {
	return s.Store.ByID(ctx, expenseID)
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]Expense, error) {
	return s.Store.ForEmployee(ctx, employeeID)
}

// PendingForActor lists pending expenses the actor could decide. hr
// gets nothing here: their override covers leave only.
func (s *Service) PendingForActor(ctx context.Context, actorID string) ([]Expense, error) {
	actor, err := s.Directory.EmployeeByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !actor.IsActive() {
		return nil, nil
	}

	switch actor.Role {
	case auth.RoleAdmin, auth.RoleSuperAdmin:
		return s.Store.Pending(ctx)
	case auth.RoleSeniorManager:
		ids, err := s.Directory.SubtreeIDs(ctx, actorID, subtreeDepth)
		if err != nil {
			return nil, err
		}
		return s.Store.PendingForEmployees(ctx, ids)
	case auth.RoleManager:
		ids, err := s.Directory.DirectReports(ctx, actorID)
		if err != nil {
			return nil, err
		}
		return s.Store.PendingForEmployees(ctx, ids)
	}
	return nil, nil
}

// notifyDecided is best effort; a failed notification never undoes a
// decision that already committed.
func (s *Service) notifyDecided(ctx context.Context, e Expense, title, body string) {
	if s.Notifier == nil {
		return
	}
	_ = s.Notifier.Notify(ctx, e.EmployeeID, notifications.TypeExpenseDecided, notifications.PriorityLow, title, body)
}

func (s *Service) stateConflict(ctx context.Context, expenseID string) (Expense, error) {
	current, err := s.Store.ByID(ctx, expenseID)
	if err != nil {
		return Expense{}, &StateError{Current: "decided"}
	}
	return Expense{}, &StateError{Current: current.Status}
}
