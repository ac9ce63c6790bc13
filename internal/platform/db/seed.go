package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"orgflow/internal/domain/auth"
)

// Seed loads a small development org: one department, a reporting
// chain, and this year's leave balances. It is idempotent and meant
// for local environments only.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	deptID, err := ensureDepartment(ctx, pool, "Engineering")
	if err != nil {
		return err
	}

	seniorID, err := ensureEmployee(ctx, pool, seedEmployee{
		FirstName: "Sara", LastName: "Admasu", Email: "sara@orgflow.local",
		Role: auth.RoleSeniorManager, DepartmentID: deptID,
	})
	if err != nil {
		return err
	}
	managerID, err := ensureEmployee(ctx, pool, seedEmployee{
		FirstName: "Miguel", LastName: "Torres", Email: "miguel@orgflow.local",
		Role: auth.RoleManager, ManagerID: seniorID, DepartmentID: deptID,
	})
	if err != nil {
		return err
	}
	employees := []seedEmployee{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@orgflow.local", Role: auth.RoleEmployee, ManagerID: managerID, DepartmentID: deptID},
		{FirstName: "Linus", LastName: "Okafor", Email: "linus@orgflow.local", Role: auth.RoleEmployee, ManagerID: managerID, DepartmentID: deptID},
		{FirstName: "Helin", LastName: "Aydin", Email: "helin@orgflow.local", Role: auth.RoleHR, DepartmentID: deptID},
		{FirstName: "Root", LastName: "Admin", Email: "admin@orgflow.local", Role: auth.RoleAdmin, DepartmentID: deptID},
	}
	ids := []string{seniorID, managerID}
	for _, e := range employees {
		id, err := ensureEmployee(ctx, pool, e)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	yearStart := time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(time.Now().Year(), 12, 31, 0, 0, 0, 0, time.UTC)
	for _, id := range ids {
		if err := ensureBalance(ctx, pool, id, yearStart, yearEnd); err != nil {
			return err
		}
	}
	return nil
}

type seedEmployee struct {
	FirstName    string
	LastName     string
	Email        string
	Role         string
	ManagerID    string
	DepartmentID string
}

func ensureDepartment(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM departments WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	id = uuid.NewString()
	_, err = pool.Exec(ctx, "INSERT INTO departments (id, name) VALUES ($1, $2)", id, name)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureEmployee(ctx context.Context, pool *pgxpool.Pool, e seedEmployee) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM employees WHERE email = $1", e.Email).Scan(&id)
	if err == nil {
		return id, nil
	}
	id = uuid.NewString()
	var managerID any
	if e.ManagerID != "" {
		managerID = e.ManagerID
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO employees (id, first_name, last_name, email, role, manager_id, department_id, status, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,'active',now())
  `, id, e.FirstName, e.LastName, e.Email, e.Role, managerID, e.DepartmentID)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureBalance(ctx context.Context, pool *pgxpool.Pool, employeeID string, yearStart, yearEnd time.Time) error {
	var count int
	err := pool.QueryRow(ctx, `
    SELECT COUNT(1) FROM annual_leave_balances WHERE employee_id = $1 AND year_start = $2
  `, employeeID, yearStart).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO annual_leave_balances (id, employee_id, year_start, year_end, entitlement_days, carry_over_days, used_days, adjustments, updated_at)
    VALUES ($1,$2,$3,$4,20,0,0,'[]'::jsonb,now())
  `, uuid.NewString(), employeeID, yearStart, yearEnd)
	return err
}
