package directory

import "context"

type StoreAPI interface {
	EmployeeByID(ctx context.Context, employeeID string) (Employee, error)
	// DirectReports returns the ids of active employees whose manager is
	// managerID.
	DirectReports(ctx context.Context, managerID string) ([]string, error)
	// SubtreeIDs returns the ids of all active employees reachable by
	// following manager links downward from managerID, bounded by
	// maxDepth levels.
	SubtreeIDs(ctx context.Context, managerID string, maxDepth int) ([]string, error)
	// ActiveInDepartment returns active employees of a department.
	ActiveInDepartment(ctx context.Context, departmentID string) ([]Employee, error)
	// EmployeesByRole returns active employees holding any of the given
	// roles.
	EmployeesByRole(ctx context.Context, roles ...string) ([]Employee, error)
}
