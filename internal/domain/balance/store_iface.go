package balance

import (
	"context"
	"time"

	"orgflow/internal/domain/leave"
)

type StoreAPI interface {
	BalanceForWindow(ctx context.Context, employeeID string, yearStart time.Time) (Balance, error)
	// BalanceCovering finds the balance row whose leave-year window
	// contains the given date.
	BalanceCovering(ctx context.Context, employeeID string, date time.Time) (Balance, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]Balance, error)
	CreateBalance(ctx context.Context, b Balance) (Balance, error)
	SetUsedDays(ctx context.Context, balanceID string, used float64) error
	AppendAdjustment(ctx context.Context, balanceID string, adj Adjustment) error
	// ApprovedAnnualRecords returns the approved annual leave records of
	// the employee intersecting [from, to].
	ApprovedAnnualRecords(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Record, error)
}
