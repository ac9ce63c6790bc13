package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"orgflow/internal/domain/auth"
	"orgflow/internal/domain/directory"
)

type fakeDirectory struct {
	employees map[string]directory.Employee
}

func (f *fakeDirectory) EmployeeByID(_ context.Context, id string) (directory.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return directory.Employee{}, directory.ErrNotFound
	}
	return e, nil
}

func employee(id, role, managerID string) directory.Employee {
	return directory.Employee{ID: id, Role: role, ManagerID: managerID, Status: directory.StatusActive}
}

func newOrg(employees ...directory.Employee) *Resolver {
	dir := &fakeDirectory{employees: map[string]directory.Employee{}}
	for _, e := range employees {
		dir.employees[e.ID] = e
	}
	return NewResolver(dir)
}

func TestManagerApprovesDirectReportsOnly(t *testing.T) {
	r := newOrg(
		employee("senior", auth.RoleSeniorManager, ""),
		employee("mgr", auth.RoleManager, "senior"),
		employee("direct", auth.RoleEmployee, "mgr"),
		employee("grand", auth.RoleEmployee, "direct"),
	)
	ctx := context.Background()

	ok, err := r.CanApprove(ctx, "mgr", "direct", DomainLeave)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.CanApprove(ctx, "mgr", "grand", DomainLeave)
	require.NoError(t, err)
	require.False(t, ok, "manager authority stops at depth 1")
}

func TestSeniorManagerApprovesWholeSubtree(t *testing.T) {
	r := newOrg(
		employee("senior", auth.RoleSeniorManager, ""),
		employee("mgr", auth.RoleManager, "senior"),
		employee("direct", auth.RoleEmployee, "mgr"),
		employee("grand", auth.RoleEmployee, "direct"),
		employee("outsider", auth.RoleEmployee, ""),
	)
	ctx := context.Background()

	for _, subject := range []string{"mgr", "direct", "grand"} {
		ok, err := r.CanApprove(ctx, "senior", subject, DomainLeave)
		require.NoError(t, err)
		require.True(t, ok, "subject %s should be in subtree", subject)
	}

	ok, err := r.CanApprove(ctx, "senior", "outsider", DomainLeave)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRoleOverrides(t *testing.T) {
	r := newOrg(
		employee("hr", auth.RoleHR, ""),
		employee("admin", auth.RoleAdmin, ""),
		employee("super", auth.RoleSuperAdmin, ""),
		employee("emp", auth.RoleEmployee, ""),
	)
	ctx := context.Background()

	ok, err := r.CanApprove(ctx, "hr", "emp", DomainLeave)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.CanApprove(ctx, "hr", "emp", DomainExpense)
	require.NoError(t, err)
	require.False(t, ok, "hr never approves expenses")

	ok, err = r.CanApprove(ctx, "hr", "emp", DomainExpensePaid)
	require.NoError(t, err)
	require.False(t, ok)

	for _, actor := range []string{"admin", "super"} {
		for _, domain := range []Domain{DomainLeave, DomainExpense, DomainExpensePaid} {
			ok, err := r.CanApprove(ctx, actor, "emp", domain)
			require.NoError(t, err)
			require.True(t, ok, "%s should approve %s", actor, domain)
		}
	}

	ok, err = r.CanApprove(ctx, "emp", "emp", DomainLeave)
	require.NoError(t, err)
	require.False(t, ok, "plain employees never approve")
}

func TestFailClosedOnMissingOrInactive(t *testing.T) {
	inactive := employee("gone", auth.RoleManager, "")
	inactive.Status = directory.StatusInactive
	r := newOrg(
		inactive,
		employee("emp", auth.RoleEmployee, "gone"),
	)
	ctx := context.Background()

	ok, err := r.CanApprove(ctx, "ghost", "emp", DomainLeave)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = r.CanApprove(ctx, "gone", "emp", DomainLeave)
	require.NoError(t, err)
	require.False(t, ok, "inactive approver fails closed")
}

func TestCycleGuardTerminates(t *testing.T) {
	// Broken data: a -> b -> a. The walk must stop at the depth bound.
	r := newOrg(
		employee("senior", auth.RoleSeniorManager, ""),
		employee("a", auth.RoleEmployee, "b"),
		employee("b", auth.RoleEmployee, "a"),
	)

	ok, err := r.CanApprove(context.Background(), "senior", "a", DomainLeave)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthoritySummary(t *testing.T) {
	r := newOrg(
		employee("mgr", auth.RoleManager, ""),
		employee("hr", auth.RoleHR, ""),
		employee("admin", auth.RoleAdmin, ""),
	)
	ctx := context.Background()

	a, err := r.Authority(ctx, "mgr")
	require.NoError(t, err)
	require.True(t, a.IsManager)
	require.True(t, a.CanApproveLeave)
	require.True(t, a.CanApproveExpense)
	require.False(t, a.CanMarkAsPaid)

	a, err = r.Authority(ctx, "hr")
	require.NoError(t, err)
	require.True(t, a.CanApproveLeave)
	require.False(t, a.CanApproveExpense)

	a, err = r.Authority(ctx, "admin")
	require.NoError(t, err)
	require.True(t, a.CanMarkAsPaid)
}
