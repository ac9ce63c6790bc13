package balance

import (
	"errors"
	"time"
)

var ErrNoBalance = errors.New("no balance row for employee and leave year")

// Adjustment is a signed correction applied by hr/admin, append-only.
type Adjustment struct {
	Amount  float64   `json:"amount"`
	Reason  string    `json:"reason"`
	ActorID string    `json:"actorId"`
	At      time.Time `json:"at"`
}

// Balance is one row per (employee, leave-year window). UsedDays is a
// materialized value recomputed from approved annual leave records;
// remaining is always derived, never stored.
type Balance struct {
	ID              string       `json:"id"`
	EmployeeID      string       `json:"employeeId"`
	YearStart       time.Time    `json:"yearStart"`
	YearEnd         time.Time    `json:"yearEnd"`
	EntitlementDays float64      `json:"entitlementDays"`
	CarryOverDays   float64      `json:"carryOverDays"`
	UsedDays        float64      `json:"usedDays"`
	Adjustments     []Adjustment `json:"adjustments"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// RemainingDays derives the spendable balance:
// entitlement + carryOver + sum(adjustments) - used.
func (b Balance) RemainingDays() float64 {
	remaining := b.EntitlementDays + b.CarryOverDays - b.UsedDays
	for _, adj := range b.Adjustments {
		remaining += adj.Amount
	}
	return remaining
}
