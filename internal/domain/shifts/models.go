package shifts

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("shift assignment not found")

const (
	StatusScheduled = "scheduled"
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusMissed    = "missed"
)

// Assignment is one employee's shift on one day. Lateness and overtime
// minutes are informational annotations written by the attendance
// detector.
type Assignment struct {
	ID              string    `json:"id"`
	EmployeeID      string    `json:"employeeId"`
	Date            time.Time `json:"date"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Status          string    `json:"status"`
	Note            string    `json:"note,omitempty"`
	LatenessMinutes int       `json:"latenessMinutes"`
	OvertimeMinutes int       `json:"overtimeMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
