package leave

import (
	"context"
	"time"
)

// StoreAPI is the persistence contract for requests and records. The
// Mark* transitions are atomic conditional updates: the status moves
// only if the row is still in the expected pre-state, and the boolean
// reports whether the transition won.
type StoreAPI interface {
	CreateRequest(ctx context.Context, req Request) (Request, error)
	RequestByID(ctx context.Context, requestID string) (Request, error)
	UpdateDraft(ctx context.Context, req Request) (bool, error)
	DeleteDraft(ctx context.Context, requestID string) (bool, error)

	MarkSubmitted(ctx context.Context, requestID string, at time.Time) (bool, error)
	MarkApproved(ctx context.Context, requestID, actorID, comment string, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, requestID, actorID, reason string, at time.Time) (bool, error)
	// MarkReverted moves approved back to pending and clears every
	// approval/rejection audit field.
	MarkReverted(ctx context.Context, requestID string, at time.Time) (bool, error)

	RequestsForEmployee(ctx context.Context, employeeID string) ([]Request, error)
	PendingRequests(ctx context.Context) ([]Request, error)
	PendingRequestsForEmployees(ctx context.Context, employeeIDs []string) ([]Request, error)

	CreateRecord(ctx context.Context, rec Record) (Record, error)
	RecordByRequestID(ctx context.Context, requestID string) (Record, error)
	SetRecordStatusByRequest(ctx context.Context, requestID, status string) error
	// FindConflicts returns pending/approved records of the employee
	// whose closed date range intersects [start, end].
	FindConflicts(ctx context.Context, employeeID string, start, end time.Time) ([]Record, error)
}
