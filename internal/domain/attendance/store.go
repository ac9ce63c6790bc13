package attendance

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
  id, employee_id, date, clock_in, clock_out, lateness_minutes, overtime_minutes, created_at, updated_at`

func dateOf(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Store) ClockIn(ctx context.Context, employeeID string, at time.Time) (TimeEntry, error) {
	date := dateOf(at)
	entry, err := s.EntryFor(ctx, employeeID, date)
	if err == nil {
		if entry.ClockIn == nil {
			_, err = s.DB.Exec(ctx, `
        UPDATE time_entries SET clock_in = $1, updated_at = now() WHERE id = $2
      `, at, entry.ID)
			if err != nil {
				return TimeEntry{}, err
			}
			entry.ClockIn = &at
		}
		return entry, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return TimeEntry{}, err
	}

	entry = TimeEntry{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Date:       date,
		ClockIn:    &at,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO time_entries (id, employee_id, date, clock_in, lateness_minutes, overtime_minutes, created_at, updated_at)
    VALUES ($1,$2,$3,$4,0,0,$5,$5)
  `, entry.ID, entry.EmployeeID, entry.Date, at, entry.CreatedAt)
	if err != nil {
		return TimeEntry{}, err
	}
	return entry, nil
}

func (s *Store) ClockOut(ctx context.Context, employeeID string, at time.Time) (TimeEntry, error) {
	entry, err := s.EntryFor(ctx, employeeID, dateOf(at))
	if err != nil {
		return TimeEntry{}, err
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE time_entries SET clock_out = $1, updated_at = now() WHERE id = $2
  `, at, entry.ID)
	if err != nil {
		return TimeEntry{}, err
	}
	entry.ClockOut = &at
	return entry, nil
}

func (s *Store) EntryFor(ctx context.Context, employeeID string, date time.Time) (TimeEntry, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+entryColumns+` FROM time_entries
    WHERE employee_id = $1 AND date = $2
  `, employeeID, date)
	var e TimeEntry
	err := row.Scan(&e.ID, &e.EmployeeID, &e.Date, &e.ClockIn, &e.ClockOut,
		&e.LatenessMinutes, &e.OvertimeMinutes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TimeEntry{}, ErrNotFound
		}
		return TimeEntry{}, err
	}
	return e, nil
}

func (s *Store) ForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]TimeEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+` FROM time_entries
    WHERE employee_id = $1 AND date >= $2 AND date <= $3
    ORDER BY date DESC
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimeEntry
	for rows.Next() {
		var e TimeEntry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Date, &e.ClockIn, &e.ClockOut,
			&e.LatenessMinutes, &e.OvertimeMinutes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) SetLateness(ctx context.Context, entryID string, minutes int) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE time_entries SET lateness_minutes = $1, updated_at = now() WHERE id = $2
  `, minutes, entryID)
	return err
}

func (s *Store) SetOvertimeMinutes(ctx context.Context, entryID string, minutes int) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE time_entries SET overtime_minutes = $1, updated_at = now() WHERE id = $2
  `, minutes, entryID)
	return err
}
