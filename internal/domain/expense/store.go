package expense

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const expenseColumns = `
  id, employee_id, amount, currency, description, status,
  COALESCE(approved_by::text, ''), approved_at,
  COALESCE(declined_by::text, ''), declined_at, COALESCE(decline_reason, ''),
  COALESCE(paid_by::text, ''), paid_at,
  created_at, updated_at`

func (s *Store) Create(ctx context.Context, e Expense) (Expense, error) {
	e.ID = uuid.NewString()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := s.DB.Exec(ctx, `
    INSERT INTO expenses (id, employee_id, amount, currency, description, status, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
  `, e.ID, e.EmployeeID, e.Amount, e.Currency, e.Description, e.Status, now)
	if err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (s *Store) ByID(ctx context.Context, expenseID string) (Expense, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, expenseID)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrNotFound
		}
		return Expense{}, err
	}
	return e, nil
}

func (s *Store) ForEmployee(ctx context.Context, employeeID string) ([]Expense, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+expenseColumns+` FROM expenses
    WHERE employee_id = $1
    ORDER BY created_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) Pending(ctx context.Context) ([]Expense, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+expenseColumns+` FROM expenses
    WHERE status = $1
    ORDER BY created_at
  `, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) PendingForEmployees(ctx context.Context, employeeIDs []string) ([]Expense, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+expenseColumns+` FROM expenses
    WHERE status = $1 AND employee_id = ANY($2)
    ORDER BY created_at
  `, StatusPending, employeeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) MarkApproved(ctx context.Context, expenseID, actorID string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE expenses
    SET status = $1, approved_by = $2, approved_at = $3, updated_at = $3
    WHERE id = $4 AND status = $5
  `, StatusApproved, actorID, at, expenseID, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkDeclined(ctx context.Context, expenseID, actorID, reason string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE expenses
    SET status = $1, declined_by = $2, declined_at = $3, decline_reason = $4, updated_at = $3
    WHERE id = $5 AND status = $6
  `, StatusDeclined, actorID, at, reason, expenseID, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkPaid(ctx context.Context, expenseID, actorID string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE expenses
    SET status = $1, paid_by = $2, paid_at = $3, updated_at = $3
    WHERE id = $4 AND status = $5
  `, StatusPaid, actorID, at, expenseID, StatusApproved)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.EmployeeID, &e.Amount, &e.Currency, &e.Description, &e.Status,
		&e.ApprovedBy, &e.ApprovedAt,
		&e.DeclinedBy, &e.DeclinedAt, &e.DeclineReason,
		&e.PaidBy, &e.PaidAt,
		&e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func scanExpenses(rows pgx.Rows) ([]Expense, error) {
	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
