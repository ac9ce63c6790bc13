package expense

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("expense not found")
	ErrNotAuthorized    = errors.New("not authorized to decide this expense")
	ErrReasonRequired   = errors.New("a decline reason is required")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter code")
	ErrEmptyDescription = errors.New("description must not be empty")
	ErrPayRequiresAdmin = errors.New("only admin or super-admin may mark an expense paid")
	ErrPayNeedsApproved = errors.New("only approved expenses can be paid")
)

// StateError reports a guarded transition that lost to an earlier
// decision.
type StateError struct {
	Current string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("expense already %s", e.Current)
}
