package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDeclined = "declined"
	StatusPaid     = "paid"
)

// Expense is an employee reimbursement claim. Amounts are exact
// decimals; float money never enters the system.
type Expense struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
	Status        string          `json:"status"`
	ApprovedBy    string          `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time      `json:"approvedAt,omitempty"`
	DeclinedBy    string          `json:"declinedBy,omitempty"`
	DeclinedAt    *time.Time      `json:"declinedAt,omitempty"`
	DeclineReason string          `json:"declineReason,omitempty"`
	PaidBy        string          `json:"paidBy,omitempty"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
