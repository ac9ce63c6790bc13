package shifts

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, a Assignment) (Assignment, error)
	ByID(ctx context.Context, assignmentID string) (Assignment, error)
	ForEmployee(ctx context.Context, employeeID string) ([]Assignment, error)
	// OnDate returns every assignment scheduled for the given day, the
	// attendance detector's daily work set.
	OnDate(ctx context.Context, date time.Time) ([]Assignment, error)
	// CancelInRange cancels the employee's scheduled and pending
	// assignments between start and end inclusive, tagging the note.
	// It returns how many were cancelled.
	CancelInRange(ctx context.Context, employeeID string, start, end time.Time, note string) (int, error)
	MarkMissed(ctx context.Context, assignmentID string) error
	MarkCompleted(ctx context.Context, assignmentID string) error
	SetLateness(ctx context.Context, assignmentID string, minutes int) error
	SetOvertimeMinutes(ctx context.Context, assignmentID string, minutes int) error
}
