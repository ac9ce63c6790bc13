package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	// ClockIn records the first clock-in of the day, creating the entry
	// if needed. A second clock-in on the same day is ignored.
	ClockIn(ctx context.Context, employeeID string, at time.Time) (TimeEntry, error)
	// ClockOut records the latest clock-out on the day's entry.
	ClockOut(ctx context.Context, employeeID string, at time.Time) (TimeEntry, error)
	EntryFor(ctx context.Context, employeeID string, date time.Time) (TimeEntry, error)
	ForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]TimeEntry, error)
	SetLateness(ctx context.Context, entryID string, minutes int) error
	SetOvertimeMinutes(ctx context.Context, entryID string, minutes int) error
}
