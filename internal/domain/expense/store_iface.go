package expense

import (
	"context"
	"time"
)

// StoreAPI is the persistence surface of the expense workflow. The
// Mark* methods are atomic conditional updates: they flip the status
// only when the row is still in the expected state and report whether
// the transition won.
type StoreAPI interface {
	Create(ctx context.Context, e Expense) (Expense, error)
	ByID(ctx context.Context, expenseID string) (Expense, error)
	ForEmployee(ctx context.Context, employeeID string) ([]Expense, error)
	Pending(ctx context.Context) ([]Expense, error)
	PendingForEmployees(ctx context.Context, employeeIDs []string) ([]Expense, error)

	MarkApproved(ctx context.Context, expenseID, actorID string, at time.Time) (bool, error)
	MarkDeclined(ctx context.Context, expenseID, actorID, reason string, at time.Time) (bool, error)
	MarkPaid(ctx context.Context, expenseID, actorID string, at time.Time) (bool, error)
}
