package leave

import "time"

const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	TypeAnnual = "annual"
	TypeSick   = "sick"
	TypeUnpaid = "unpaid"
	// TypeAbsent is only ever generated by the attendance detector,
	// never submitted by an employee.
	TypeAbsent = "absent"
)

// Request is the employee-facing approval workflow entity. It is
// mutable by the subject while draft and by an authorized approver
// while pending; terminal states only change through an admin revert.
type Request struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	ApproverID      string     `json:"approverId"`
	Type            string     `json:"type"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	Days            int        `json:"numberOfDays"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	ApprovalComment string     `json:"approvalComment,omitempty"`
	RejectedBy      string     `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Record is the canonical ledger entry for a period of absence. Balance
// computation and overlap checks read records, never requests. A
// request owns at most one record (created on submission, flipped on
// approval or rejection); detector-generated absent records have no
// request.
type Record struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	RequestID  string    `json:"requestId,omitempty"`
	Type       string    `json:"type"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Days       int       `json:"days"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func IsRequestableType(t string) bool {
	switch t {
	case TypeAnnual, TypeSick, TypeUnpaid:
		return true
	}
	return false
}
