package attendance

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("time entry not found")

// TimeEntry is one employee's clock events for one day. Lateness and
// overtime minutes are written by the detector.
type TimeEntry struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	Date            time.Time  `json:"date"`
	ClockIn         *time.Time `json:"clockIn,omitempty"`
	ClockOut        *time.Time `json:"clockOut,omitempty"`
	LatenessMinutes int        `json:"latenessMinutes"`
	OvertimeMinutes int        `json:"overtimeMinutes"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
