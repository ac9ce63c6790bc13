package balance

import (
	"time"

	"orgflow/internal/domain/leave"
)

// ComputeUsedDays is the single definition of usage: the day sum of
// approved annual records whose range intersects the leave-year
// window. Every write of UsedDays goes through this function.
func ComputeUsedDays(records []leave.Record, yearStart, yearEnd time.Time) float64 {
	var used float64
	for _, rec := range records {
		if rec.Status != leave.StatusApproved || rec.Type != leave.TypeAnnual {
			continue
		}
		if leave.Overlaps(rec.StartDate, rec.EndDate, yearStart, yearEnd) {
			used += float64(rec.Days)
		}
	}
	return used
}
