package overtime

import (
	"context"
	"time"
)

// StoreAPI is the persistence surface of the overtime workflow. The
// Mark* methods are atomic conditional updates and report whether the
// transition won.
type StoreAPI interface {
	Create(ctx context.Context, e Entry) (Entry, error)
	ByID(ctx context.Context, entryID string) (Entry, error)
	ByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Entry, error)
	ForEmployee(ctx context.Context, employeeID string) ([]Entry, error)
	Pending(ctx context.Context) ([]Entry, error)
	PendingForEmployees(ctx context.Context, employeeIDs []string) ([]Entry, error)

	MarkApproved(ctx context.Context, entryID, actorID string, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, entryID, actorID, reason string, at time.Time) (bool, error)
}
