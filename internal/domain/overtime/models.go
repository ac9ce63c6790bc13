package overtime

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Entry is a claim for extra hours on a single day. At most one entry
// exists per (employee, date).
type Entry struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	Date            time.Time  `json:"date"`
	ScheduledHours  float64    `json:"scheduledHours"`
	WorkedHours     float64    `json:"workedHours"`
	OvertimeHours   float64    `json:"overtimeHours"`
	Status          string     `json:"status"`
	DecidedBy       string     `json:"decidedBy,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ComputeOvertimeHours clamps at zero: working less than scheduled is
// never negative overtime.
func ComputeOvertimeHours(scheduled, worked float64) float64 {
	if worked <= scheduled {
		return 0
	}
	return worked - scheduled
}
