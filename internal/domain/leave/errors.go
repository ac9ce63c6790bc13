package leave

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("leave request not found")
	ErrNotAuthorized = errors.New("not authorized to decide this request")
	ErrNotSubject    = errors.New("only the subject may modify a draft")
	ErrNotDraft      = errors.New("request is no longer a draft")

	ErrInvalidType     = errors.New("invalid leave type")
	ErrInvalidRange    = errors.New("end date before start date")
	ErrPastStartDate   = errors.New("start date is in the past")
	ErrReasonTooShort  = errors.New("reason must be at least 10 characters")
	ErrReasonRequired  = errors.New("a rejection reason is required")
	ErrAdminOnlyRevert = errors.New("only an admin may revert an approved request")
)

// StateError reports a transition attempted against the wrong
// pre-state, e.g. approving a request that is already approved. The
// record is left untouched.
type StateError struct {
	Current string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("request already %s", e.Current)
}

// ConflictError reports a submission whose date range overlaps existing
// pending or approved leave for the same employee.
type ConflictError struct {
	Conflicts []Record
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("leave range overlaps %d existing request(s)", len(e.Conflicts))
}
