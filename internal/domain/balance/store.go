package balance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orgflow/internal/domain/leave"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) BalanceForWindow(ctx context.Context, employeeID string, yearStart time.Time) (Balance, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, year_start, year_end, entitlement_days, carry_over_days, used_days, adjustments, updated_at
    FROM annual_leave_balances
    WHERE employee_id = $1 AND year_start = $2
  `, employeeID, yearStart)
	return scanBalance(row)
}

func (s *Store) BalanceCovering(ctx context.Context, employeeID string, date time.Time) (Balance, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, year_start, year_end, entitlement_days, carry_over_days, used_days, adjustments, updated_at
    FROM annual_leave_balances
    WHERE employee_id = $1 AND year_start <= $2 AND year_end >= $2
  `, employeeID, date)
	return scanBalance(row)
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string) ([]Balance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, year_start, year_end, entitlement_days, carry_over_days, used_days, adjustments, updated_at
    FROM annual_leave_balances
    WHERE employee_id = $1
    ORDER BY year_start DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) CreateBalance(ctx context.Context, b Balance) (Balance, error) {
	b.ID = uuid.NewString()
	b.UpdatedAt = time.Now().UTC()
	if b.Adjustments == nil {
		b.Adjustments = []Adjustment{}
	}
	adjustments, err := json.Marshal(b.Adjustments)
	if err != nil {
		return Balance{}, err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO annual_leave_balances (id, employee_id, year_start, year_end, entitlement_days, carry_over_days, used_days, adjustments, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, b.ID, b.EmployeeID, b.YearStart, b.YearEnd, b.EntitlementDays, b.CarryOverDays, b.UsedDays, adjustments, b.UpdatedAt)
	if err != nil {
		return Balance{}, err
	}
	return b, nil
}

func (s *Store) SetUsedDays(ctx context.Context, balanceID string, used float64) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE annual_leave_balances SET used_days = $1, updated_at = now() WHERE id = $2
  `, used, balanceID)
	return err
}

func (s *Store) AppendAdjustment(ctx context.Context, balanceID string, adj Adjustment) error {
	encoded, err := json.Marshal(adj)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE annual_leave_balances
    SET adjustments = adjustments || $1::jsonb, updated_at = now()
    WHERE id = $2
  `, encoded, balanceID)
	return err
}

func (s *Store) ApprovedAnnualRecords(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, COALESCE(request_id::text, ''), type, start_date, end_date, days, status, created_at
    FROM leave_records
    WHERE employee_id = $1 AND type = $2 AND status = $3 AND start_date <= $4 AND end_date >= $5
  `, employeeID, leave.TypeAnnual, leave.StatusApproved, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Record
	for rows.Next() {
		var rec leave.Record
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.RequestID, &rec.Type, &rec.StartDate, &rec.EndDate, &rec.Days, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanBalance(row pgx.Row) (Balance, error) {
	var b Balance
	var adjustments []byte
	err := row.Scan(&b.ID, &b.EmployeeID, &b.YearStart, &b.YearEnd, &b.EntitlementDays, &b.CarryOverDays, &b.UsedDays, &adjustments, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, ErrNoBalance
		}
		return Balance{}, err
	}
	if len(adjustments) > 0 {
		if err := json.Unmarshal(adjustments, &b.Adjustments); err != nil {
			return Balance{}, err
		}
	}
	return b, nil
}
