package overtime

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound       = errors.New("overtime entry not found")
	ErrNotAuthorized  = errors.New("not authorized to decide this overtime entry")
	ErrInvalidHours   = errors.New("hours must be non-negative and worked hours positive")
	ErrReasonRequired = errors.New("a rejection reason is required")
)

// DuplicateError reports a second entry for a day that already has one.
type DuplicateError struct {
	Date time.Time
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("overtime entry already exists for %s", e.Date.Format("2006-01-02"))
}

// StateError reports a guarded transition that lost to an earlier
// decision.
type StateError struct {
	Current string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("overtime entry already %s", e.Current)
}
