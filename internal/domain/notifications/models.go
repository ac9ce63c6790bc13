package notifications

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

const (
	PriorityHigh = "high"
	PriorityLow  = "low"
)

const (
	TypeLeaveApproved    = "leave_approved"
	TypeLeaveReverted    = "leave_reverted"
	TypeColleagueAbsence = "colleague_absence"
	TypeAbsenceDetected  = "absence_detected"
	TypeLateArrival      = "late_arrival"
	TypeExpenseDecided   = "expense_decided"
)

type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}
