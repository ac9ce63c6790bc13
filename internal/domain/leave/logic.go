package leave

import "time"

const minReasonLength = 10

// CalculateDays returns the inclusive day count of a leave range. A
// single-day leave (start == end) counts as 1.
func CalculateDays(start, end time.Time) (int, error) {
	s := DateOnly(start)
	e := DateOnly(end)
	if e.Before(s) {
		return 0, ErrInvalidRange
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

// Overlaps reports whether two closed date intervals intersect.
// Boundaries are inclusive: a leave ending the day another starts is an
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !DateOnly(aStart).After(DateOnly(bEnd)) && !DateOnly(aEnd).Before(DateOnly(bStart))
}

// DateOnly strips the time-of-day component, keeping comparisons stable
// regardless of how the timestamp was parsed.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validateSubmission(req Request, today time.Time) error {
	if !IsRequestableType(req.Type) {
		return ErrInvalidType
	}
	if DateOnly(req.EndDate).Before(DateOnly(req.StartDate)) {
		return ErrInvalidRange
	}
	if DateOnly(req.StartDate).Before(DateOnly(today)) {
		return ErrPastStartDate
	}
	if len(req.Reason) < minReasonLength {
		return ErrReasonTooShort
	}
	return nil
}
