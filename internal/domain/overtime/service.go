package overtime

import (
	"context"
	"errors"
	"strings"
	"time"

	"orgflow/internal/domain/auth"
	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/hierarchy"
	"orgflow/internal/domain/leave"
)

const subtreeDepth = 10

// Approver answers authorization questions for decision transitions.
// Overtime sits in the leave domain for authority purposes: hr and the
// management chain decide it.
type Approver interface {
	CanApprove(ctx context.Context, approverID, subjectID string, domain hierarchy.Domain) (bool, error)
}

// DirectoryAPI is the read surface the service needs from the employee
// directory.
type DirectoryAPI interface {
	EmployeeByID(ctx context.Context, employeeID string) (directory.Employee, error)
	DirectReports(ctx context.Context, managerID string) ([]string, error)
	SubtreeIDs(ctx context.Context, managerID string, maxDepth int) ([]string, error)
}

type Service struct {
	Store     StoreAPI
	Resolver  Approver
	Directory DirectoryAPI
}

func NewService(store StoreAPI, resolver Approver, dir DirectoryAPI) *Service {
	return &Service{Store: store, Resolver: resolver, Directory: dir}
}

type SubmitParams struct {
	EmployeeID     string
	Date           time.Time
	ScheduledHours float64
	WorkedHours    float64
}

// Submit files a pending entry for the day. A day can carry at most one
// entry per employee; a second submission is a duplicate conflict.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (Entry, error) {
	if _, err := s.Directory.EmployeeByID(ctx, p.EmployeeID); err != nil {
		return Entry{}, err
	}
	if p.ScheduledHours < 0 || p.WorkedHours <= 0 {
		return Entry{}, ErrInvalidHours
	}

	date := leave.DateOnly(p.Date)
	if _, err := s.Store.ByEmployeeAndDate(ctx, p.EmployeeID, date); err == nil {
		return Entry{}, &DuplicateError{Date: date}
	} else if !errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}

	return s.Store.Create(ctx, Entry{
		EmployeeID:     p.EmployeeID,
		Date:           date,
		ScheduledHours: p.ScheduledHours,
		WorkedHours:    p.WorkedHours,
		OvertimeHours:  ComputeOvertimeHours(p.ScheduledHours, p.WorkedHours),
		Status:         StatusPending,
	})
}

// Approve performs the guarded pending -> approved transition.
func (s *Service) Approve(ctx context.Context, entryID, actorID string) (Entry, error) {
	return s.decide(ctx, entryID, actorID, s.Store.MarkApproved)
}

// Reject performs the guarded pending -> rejected transition. Every
// rejection carries a reason.
func (s *Service) Reject(ctx context.Context, entryID, actorID, reason string) (Entry, error) {
	if strings.TrimSpace(reason) == "" {
		return Entry{}, ErrReasonRequired
	}
	return s.decide(ctx, entryID, actorID, func(ctx context.Context, id, actor string, at time.Time) (bool, error) {
		return s.Store.MarkRejected(ctx, id, actor, reason, at)
	})
}

func (s *Service) decide(ctx context.Context, entryID, actorID string, mark func(context.Context, string, string, time.Time) (bool, error)) (Entry, error) {
	e, err := s.Store.ByID(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	if e.Status != StatusPending {
		return Entry{}, &StateError{Current: e.Status}
	}

	allowed, err := s.Resolver.CanApprove(ctx, actorID, e.EmployeeID, hierarchy.DomainLeave)
	if err != nil {
		return Entry{}, err
	}
	if !allowed {
		return Entry{}, ErrNotAuthorized
	}

	ok, err := mark(ctx, entryID, actorID, time.Now().UTC())
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		current, err := s.Store.ByID(ctx, entryID)
		if err != nil {
			return Entry{}, &StateError{Current: "decided"}
		}
		return Entry{}, &StateError{Current: current.Status}
	}
	return s.Store.ByID(ctx, entryID)
}

func (s *Service) Get(ctx context.Context, entryID string) (Entry, error) {
	return s.Store.ByID(ctx, entryID)
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]Entry, error) {
	return s.Store.ForEmployee(ctx, employeeID)
}

// PendingForActor lists pending entries the actor could decide, scoped
// the same way leave approvals are.
func (s *Service) PendingForActor(ctx context.Context, actorID string) ([]Entry, error) {
	actor, err := s.Directory.EmployeeByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !actor.IsActive() {
		return nil, nil
	}

	switch actor.Role {
	case auth.RoleAdmin, auth.RoleSuperAdmin, auth.RoleHR:
		return s.Store.Pending(ctx)
	case auth.RoleSeniorManager:
		ids, err := s.Directory.SubtreeIDs(ctx, actorID, subtreeDepth)
		if err != nil {
			return nil, err
		}
		return s.Store.PendingForEmployees(ctx, ids)
	case auth.RoleManager:
		ids, err := s.Directory.DirectReports(ctx, actorID)
		if err != nil {
			return nil, err
		}
		return s.Store.PendingForEmployees(ctx, ids)
	}
	return nil, nil
}
