package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("employee not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) EmployeeByID(ctx context.Context, employeeID string) (Employee, error) {
	var e Employee
	var managerID, departmentID *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, email, role, manager_id, department_id, status, created_at
    FROM employees
    WHERE id = $1
  `, employeeID).Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Role, &managerID, &departmentID, &e.Status, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, err
	}
	if managerID != nil {
		e.ManagerID = *managerID
	}
	if departmentID != nil {
		e.DepartmentID = *departmentID
	}
	return e, nil
}

func (s *Store) DirectReports(ctx context.Context, managerID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id
    FROM employees
    WHERE manager_id = $1 AND status = $2
  `, managerID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (s *Store) SubtreeIDs(ctx context.Context, managerID string, maxDepth int) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    WITH RECURSIVE reports AS (
      SELECT id, 1 AS depth
      FROM employees
      WHERE manager_id = $1 AND status = $2
      UNION ALL
      SELECT e.id, r.depth + 1
      FROM employees e
      JOIN reports r ON e.manager_id = r.id
      WHERE e.status = $2 AND r.depth < $3
    )
    SELECT id FROM reports
  `, managerID, StatusActive, maxDepth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (s *Store) ActiveInDepartment(ctx context.Context, departmentID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, first_name, last_name, email, role, COALESCE(manager_id::text, ''), COALESCE(department_id::text, ''), status, created_at
    FROM employees
    WHERE department_id = $1 AND status = $2
  `, departmentID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func (s *Store) EmployeesByRole(ctx context.Context, roles ...string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, first_name, last_name, email, role, COALESCE(manager_id::text, ''), COALESCE(department_id::text, ''), status, created_at
    FROM employees
    WHERE role = ANY($1) AND status = $2
  `, roles, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func scanIDs(rows pgx.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEmployees(rows pgx.Rows) ([]Employee, error) {
	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Role, &e.ManagerID, &e.DepartmentID, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
