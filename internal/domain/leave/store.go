package leave

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

const requestColumns = `
  id, employee_id, approver_id, type, start_date, end_date, days, reason, status,
  COALESCE(approved_by::text, ''), approved_at, COALESCE(approval_comment, ''),
  COALESCE(rejected_by::text, ''), rejected_at, COALESCE(rejection_reason, ''),
  created_at, updated_at`

func (s *Store) CreateRequest(ctx context.Context, req Request) (Request, error) {
	req.ID = uuid.NewString()
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_requests (id, employee_id, approver_id, type, start_date, end_date, days, reason, status, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
  `, req.ID, req.EmployeeID, req.ApproverID, req.Type, req.StartDate, req.EndDate, req.Days, req.Reason, req.Status, now)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Store) RequestByID(ctx context.Context, requestID string) (Request, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE id = $1`, requestID)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	return req, nil
}

func (s *Store) UpdateDraft(ctx context.Context, req Request) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET type = $1, start_date = $2, end_date = $3, days = $4, reason = $5, approver_id = $6, updated_at = now()
    WHERE id = $7 AND status = $8
  `, req.Type, req.StartDate, req.EndDate, req.Days, req.Reason, req.ApproverID, req.ID, StatusDraft)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) DeleteDraft(ctx context.Context, requestID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1 AND status = $2`, requestID, StatusDraft)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkSubmitted(ctx context.Context, requestID string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests SET status = $1, updated_at = $2
    WHERE id = $3 AND status = $4
  `, StatusPending, at, requestID, StatusDraft)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkApproved(ctx context.Context, requestID, actorID, comment string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, approved_by = $2, approved_at = $3, approval_comment = $4, updated_at = $3
    WHERE id = $5 AND status = $6
  `, StatusApproved, actorID, at, comment, requestID, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkRejected(ctx context.Context, requestID, actorID, reason string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, rejected_by = $2, rejected_at = $3, rejection_reason = $4, updated_at = $3
    WHERE id = $5 AND status = $6
  `, StatusRejected, actorID, at, reason, requestID, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkReverted(ctx context.Context, requestID string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, approved_by = NULL, approved_at = NULL, approval_comment = NULL,
        rejected_by = NULL, rejected_at = NULL, rejection_reason = NULL, updated_at = $2
    WHERE id = $3 AND status = $4
  `, StatusPending, at, requestID, StatusApproved)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) RequestsForEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+` FROM leave_requests
    WHERE employee_id = $1
    ORDER BY created_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Store) PendingRequests(ctx context.Context) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+` FROM leave_requests
    WHERE status = $1
    ORDER BY created_at
  `, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Store) PendingRequestsForEmployees(ctx context.Context, employeeIDs []string) ([]Request, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+` FROM leave_requests
    WHERE status = $1 AND employee_id = ANY($2)
    ORDER BY created_at
  `, StatusPending, employeeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Store) CreateRecord(ctx context.Context, rec Record) (Record, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	var requestID any
	if rec.RequestID != "" {
		requestID = rec.RequestID
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_records (id, employee_id, request_id, type, start_date, end_date, days, status, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, rec.ID, rec.EmployeeID, requestID, rec.Type, rec.StartDate, rec.EndDate, rec.Days, rec.Status, rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) RecordByRequestID(ctx context.Context, requestID string) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, COALESCE(request_id::text, ''), type, start_date, end_date, days, status, created_at
    FROM leave_records
    WHERE request_id = $1
  `, requestID)
	var rec Record
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.RequestID, &rec.Type, &rec.StartDate, &rec.EndDate, &rec.Days, &rec.Status, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) SetRecordStatusByRequest(ctx context.Context, requestID, status string) error {
	_, err := s.DB.Exec(ctx, `UPDATE leave_records SET status = $1 WHERE request_id = $2`, status, requestID)
	return err
}

func (s *Store) FindConflicts(ctx context.Context, employeeID string, start, end time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, COALESCE(request_id::text, ''), type, start_date, end_date, days, status, created_at
    FROM leave_records
    WHERE employee_id = $1 AND status IN ($2,$3) AND start_date <= $4 AND end_date >= $5
    ORDER BY start_date
  `, employeeID, StatusPending, StatusApproved, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.RequestID, &rec.Type, &rec.StartDate, &rec.EndDate, &rec.Days, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// HasApprovedLeaveOn reports whether an approved record covers the day.
func (s *Store) HasApprovedLeaveOn(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(*) FROM leave_records
    WHERE employee_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3
  `, employeeID, StatusApproved, date).Scan(&count)
	return count > 0, err
}

// AbsentRecordExists reports whether a detector-generated absent record
// already covers the day, the guard against re-processing a date.
func (s *Store) AbsentRecordExists(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(*) FROM leave_records
    WHERE employee_id = $1 AND type = $2 AND start_date = $3
  `, employeeID, TypeAbsent, date).Scan(&count)
	return count > 0, err
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.EmployeeID, &req.ApproverID, &req.Type, &req.StartDate, &req.EndDate, &req.Days,
		&req.Reason, &req.Status, &req.ApprovedBy, &req.ApprovedAt, &req.ApprovalComment,
		&req.RejectedBy, &req.RejectedAt, &req.RejectionReason, &req.CreatedAt, &req.UpdatedAt)
	return req, err
}

func scanRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
