package balance

import (
	"context"
	"time"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// Recalculate recomputes UsedDays for the employee's leave-year window
// from the approved annual record set and persists it. It is the only
// writer of UsedDays and must run after every mutation that changes the
// approved annual set: approval, revert, and deletion of an approved
// record.
func (s *Service) Recalculate(ctx context.Context, employeeID string, yearStart time.Time) (Balance, error) {
	b, err := s.Store.BalanceForWindow(ctx, employeeID, yearStart)
	if err != nil {
		return Balance{}, err
	}
	records, err := s.Store.ApprovedAnnualRecords(ctx, employeeID, b.YearStart, b.YearEnd)
	if err != nil {
		return Balance{}, err
	}
	used := ComputeUsedDays(records, b.YearStart, b.YearEnd)
	if err := s.Store.SetUsedDays(ctx, b.ID, used); err != nil {
		return Balance{}, err
	}
	b.UsedDays = used
	return b, nil
}

// RecalculateCovering recomputes the window containing the given date,
// the entry point the side-effect dispatcher uses after an approval.
func (s *Service) RecalculateCovering(ctx context.Context, employeeID string, date time.Time) (Balance, error) {
	b, err := s.Store.BalanceCovering(ctx, employeeID, date)
	if err != nil {
		return Balance{}, err
	}
	return s.Recalculate(ctx, employeeID, b.YearStart)
}

// Adjust appends a signed correction. UsedDays is untouched; remaining
// shifts because it is derived.
func (s *Service) Adjust(ctx context.Context, employeeID string, yearStart time.Time, amount float64, reason, actorID string) (Balance, error) {
	b, err := s.Store.BalanceForWindow(ctx, employeeID, yearStart)
	if err != nil {
		return Balance{}, err
	}
	adj := Adjustment{Amount: amount, Reason: reason, ActorID: actorID, At: time.Now().UTC()}
	if err := s.Store.AppendAdjustment(ctx, b.ID, adj); err != nil {
		return Balance{}, err
	}
	b.Adjustments = append(b.Adjustments, adj)
	return b, nil
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]Balance, error) {
	return s.Store.ListForEmployee(ctx, employeeID)
}
