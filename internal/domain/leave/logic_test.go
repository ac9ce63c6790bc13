package leave

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateDaysInclusive(t *testing.T) {
	days, err := CalculateDays(date(2026, 3, 10), date(2026, 3, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected single-day leave to count 1, got %d", days)
	}

	days, err = CalculateDays(date(2026, 3, 10), date(2026, 3, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %d", days)
	}
}

func TestCalculateDaysInvertedRange(t *testing.T) {
	if _, err := CalculateDays(date(2026, 3, 12), date(2026, 3, 10)); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestOverlapsInclusiveBoundaries(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"disjoint", date(2026, 1, 1), date(2026, 1, 5), date(2026, 1, 6), date(2026, 1, 8), false},
		{"touching end to start", date(2026, 1, 1), date(2026, 1, 5), date(2026, 1, 5), date(2026, 1, 8), true},
		{"contained", date(2026, 1, 1), date(2026, 1, 10), date(2026, 1, 3), date(2026, 1, 4), true},
		{"partial", date(2026, 1, 4), date(2026, 1, 8), date(2026, 1, 1), date(2026, 1, 5), true},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
