package shifts

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

const assignmentColumns = `
  id, employee_id, date, start_time, end_time, status, COALESCE(note, ''),
  lateness_minutes, overtime_minutes, created_at, updated_at`

func (s *Store) Create(ctx context.Context, a Assignment) (Assignment, error) {
	a.ID = uuid.NewString()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := s.DB.Exec(ctx, `
    INSERT INTO shift_assignments (id, employee_id, date, start_time, end_time, status, note, lateness_minutes, overtime_minutes, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
  `, a.ID, a.EmployeeID, a.Date, a.StartTime, a.EndTime, a.Status, a.Note, a.LatenessMinutes, a.OvertimeMinutes, now)
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *Store) ByID(ctx context.Context, assignmentID string) (Assignment, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM shift_assignments WHERE id = $1`, assignmentID)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, ErrNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

func (s *Store) ForEmployee(ctx context.Context, employeeID string) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+assignmentColumns+` FROM shift_assignments
    WHERE employee_id = $1
    ORDER BY date DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (s *Store) OnDate(ctx context.Context, date time.Time) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+assignmentColumns+` FROM shift_assignments
    WHERE date = $1
    ORDER BY start_time
  `, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (s *Store) CancelInRange(ctx context.Context, employeeID string, start, end time.Time, note string) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE shift_assignments
    SET status = $1, note = $2, updated_at = now()
    WHERE employee_id = $3 AND date >= $4 AND date <= $5 AND status IN ($6, $7)
  `, StatusCancelled, note, employeeID, start, end, StatusScheduled, StatusPending)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) MarkMissed(ctx context.Context, assignmentID string) error {
	return s.setStatus(ctx, assignmentID, StatusMissed)
}

func (s *Store) MarkCompleted(ctx context.Context, assignmentID string) error {
	return s.setStatus(ctx, assignmentID, StatusCompleted)
}

func (s *Store) setStatus(ctx context.Context, assignmentID, status string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE shift_assignments SET status = $1, updated_at = now() WHERE id = $2
  `, status, assignmentID)
	return err
}

func (s *Store) SetLateness(ctx context.Context, assignmentID string, minutes int) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE shift_assignments SET lateness_minutes = $1, updated_at = now() WHERE id = $2
  `, minutes, assignmentID)
	return err
}

func (s *Store) SetOvertimeMinutes(ctx context.Context, assignmentID string, minutes int) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE shift_assignments SET overtime_minutes = $1, updated_at = now() WHERE id = $2
  `, minutes, assignmentID)
	return err
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.EmployeeID, &a.Date, &a.StartTime, &a.EndTime, &a.Status, &a.Note,
		&a.LatenessMinutes, &a.OvertimeMinutes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanAssignments(rows pgx.Rows) ([]Assignment, error) {
	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
