package overtime

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

const entryColumns = `
  id, employee_id, date, scheduled_hours, worked_hours, overtime_hours, status,
  COALESCE(decided_by::text, ''), decided_at, COALESCE(rejection_reason, ''),
  created_at, updated_at`

func (s *Store) Create(ctx context.Context, e Entry) (Entry, error) {
	e.ID = uuid.NewString()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := s.DB.Exec(ctx, `
    INSERT INTO overtime_entries (id, employee_id, date, scheduled_hours, worked_hours, overtime_hours, status, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
  `, e.ID, e.EmployeeID, e.Date, e.ScheduledHours, e.WorkedHours, e.OvertimeHours, e.Status, now)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Store) ByID(ctx context.Context, entryID string) (Entry, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+entryColumns+` FROM overtime_entries WHERE id = $1`, entryID)
	return scanEntryRow(row)
}

func (s *Store) ByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Entry, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+entryColumns+` FROM overtime_entries
    WHERE employee_id = $1 AND date = $2
  `, employeeID, date)
	return scanEntryRow(row)
}

func (s *Store) ForEmployee(ctx context.Context, employeeID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+` FROM overtime_entries
    WHERE employee_id = $1
    ORDER BY date DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) Pending(ctx context.Context) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+` FROM overtime_entries
    WHERE status = $1
    ORDER BY date
  `, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) PendingForEmployees(ctx context.Context, employeeIDs []string) ([]Entry, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+` FROM overtime_entries
    WHERE status = $1 AND employee_id = ANY($2)
    ORDER BY date
  `, StatusPending, employeeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) MarkApproved(ctx context.Context, entryID, actorID string, at time.Time) (bool, error) {
	return s.decide(ctx, entryID, actorID, StatusApproved, at)
}

func (s *Store) MarkRejected(ctx context.Context, entryID, actorID, reason string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE overtime_entries
    SET status = $1, decided_by = $2, decided_at = $3, rejection_reason = $4, updated_at = $3
    WHERE id = $5 AND status = $6
  `, StatusRejected, actorID, at, reason, entryID, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) decide(ctx context.Context, entryID, actorID, status string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE overtime_entries
    SET status = $1, decided_by = $2, decided_at = $3, updated_at = $3
    WHERE id = $4 AND status = $5
  `, status, actorID, at, entryID, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanEntryRow(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.EmployeeID, &e.Date, &e.ScheduledHours, &e.WorkedHours, &e.OvertimeHours,
		&e.Status, &e.DecidedBy, &e.DecidedAt, &e.RejectionReason, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Date, &e.ScheduledHours, &e.WorkedHours, &e.OvertimeHours,
			&e.Status, &e.DecidedBy, &e.DecidedAt, &e.RejectionReason, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
