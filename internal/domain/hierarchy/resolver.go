package hierarchy

import (
	"context"
	"errors"

	"orgflow/internal/domain/auth"
	"orgflow/internal/domain/directory"
)

// Domain selects which approval rule set applies.
type Domain string

const (
	DomainLeave       Domain = "leave"
	DomainExpense     Domain = "expense"
	DomainExpensePaid Domain = "expense_paid"
)

// maxTraversalDepth bounds the walk up the manager chain. Reporting
// data is acyclic by intent; the bound keeps a future data-entry cycle
// from turning into an infinite loop.
const maxTraversalDepth = 10

// Directory is the narrow read contract the resolver needs from the
// employee directory.
type Directory interface {
	EmployeeByID(ctx context.Context, employeeID string) (directory.Employee, error)
}

type Resolver struct {
	Directory Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{Directory: dir}
}

// CanApprove reports whether approverID may decide a request belonging
// to subjectID in the given domain. Missing or inactive employees fail
// closed.
func (r *Resolver) CanApprove(ctx context.Context, approverID, subjectID string, domain Domain) (bool, error) {
	approver, err := r.Directory.EmployeeByID(ctx, approverID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	subject, err := r.Directory.EmployeeByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !approver.IsActive() || !subject.IsActive() {
		return false, nil
	}

	if domain == DomainExpensePaid {
		// Marking an expense paid is a financial-authority check, not a
		// hierarchy one.
		return auth.IsAdmin(approver.Role), nil
	}

	switch approver.Role {
	case auth.RoleAdmin, auth.RoleSuperAdmin:
		return true, nil
	case auth.RoleHR:
		return domain == DomainLeave, nil
	case auth.RoleSeniorManager:
		return r.inReportingChain(ctx, approver.ID, subject)
	case auth.RoleManager:
		return subject.ManagerID == approver.ID, nil
	}
	return false, nil
}

// inReportingChain walks up from the subject through manager links
// until it finds the approver, the chain ends, or the depth bound is
// hit. Walking up trades loading a whole subtree for a handful of
// point lookups and naturally tolerates a forest with multiple roots.
func (r *Resolver) inReportingChain(ctx context.Context, approverID string, subject directory.Employee) (bool, error) {
	current := subject
	for depth := 0; depth < maxTraversalDepth; depth++ {
		if current.ManagerID == "" {
			return false, nil
		}
		if current.ManagerID == approverID {
			return true, nil
		}
		next, err := r.Directory.EmployeeByID(ctx, current.ManagerID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		current = next
	}
	return false, nil
}

// Authority summarizes what an actor is allowed to decide.
type Authority struct {
	Role              string `json:"role"`
	CanApproveLeave   bool   `json:"canApproveLeave"`
	CanApproveExpense bool   `json:"canApproveExpense"`
	CanMarkAsPaid     bool   `json:"canMarkAsPaid"`
	IsManager         bool   `json:"isManager"`
	IsSeniorManager   bool   `json:"isSeniorManager"`
}

func (r *Resolver) Authority(ctx context.Context, actorID string) (Authority, error) {
	actor, err := r.Directory.EmployeeByID(ctx, actorID)
	if err != nil {
		return Authority{}, err
	}
	if !actor.IsActive() {
		return Authority{Role: actor.Role}, nil
	}

	a := Authority{
		Role:            actor.Role,
		IsManager:       actor.Role == auth.RoleManager,
		IsSeniorManager: actor.Role == auth.RoleSeniorManager,
	}
	switch actor.Role {
	case auth.RoleManager, auth.RoleSeniorManager:
		a.CanApproveLeave = true
		a.CanApproveExpense = true
	case auth.RoleHR:
		a.CanApproveLeave = true
	case auth.RoleAdmin, auth.RoleSuperAdmin:
		a.CanApproveLeave = true
		a.CanApproveExpense = true
		a.CanMarkAsPaid = true
	}
	return a, nil
}
