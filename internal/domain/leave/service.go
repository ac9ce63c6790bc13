package leave

import (
	"context"
	"errors"
	"time"

	"orgflow/internal/domain/auth"
	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/hierarchy"
)

const subtreeDepth = 10

// Approver answers authorization questions for decision transitions.
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

// Effects receives committed transitions. Implementations must be
// best-effort: they are invoked after the state change is durable and
// their failures never surface to the caller.
type Effects interface {
	LeaveApproved(ctx context.Context, rec Record)
	LeaveReverted(ctx context.Context, rec Record)
}

type Service struct {
	Store     StoreAPI
	Resolver  Approver
	Directory DirectoryAPI
	Effects   Effects
}

func NewService(store StoreAPI, resolver Approver, dir DirectoryAPI, effects Effects) *Service {
	return &Service{Store: store, Resolver: resolver, Directory: dir, Effects: effects}
}

type SubmitParams struct {
	EmployeeID string
	ApproverID string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// Submit validates and files a new request directly into pending,
// together with its pending ledger record.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (Request, error) {
	if _, err := s.Directory.EmployeeByID(ctx, p.EmployeeID); err != nil {
		return Request{}, err
	}

	req := Request{
		EmployeeID: p.EmployeeID,
		ApproverID: p.ApproverID,
		Type:       p.Type,
		StartDate:  DateOnly(p.StartDate),
		EndDate:    DateOnly(p.EndDate),
		Reason:     p.Reason,
		Status:     StatusPending,
	}
	if err := validateSubmission(req, time.Now()); err != nil {
		return Request{}, err
	}
	days, err := CalculateDays(req.StartDate, req.EndDate)
	if err != nil {
		return Request{}, err
	}
	req.Days = days

	conflicts, err := s.Store.FindConflicts(ctx, req.EmployeeID, req.StartDate, req.EndDate)
	if err != nil {
		return Request{}, err
	}
	if len(conflicts) > 0 {
		return Request{}, &ConflictError{Conflicts: conflicts}
	}

	created, err := s.Store.CreateRequest(ctx, req)
	if err != nil {
		return Request{}, err
	}
	if _, err := s.Store.CreateRecord(ctx, Record{
		EmployeeID: created.EmployeeID,
		RequestID:  created.ID,
		Type:       created.Type,
		StartDate:  created.StartDate,
		EndDate:    created.EndDate,
		Days:       created.Days,
		Status:     StatusPending,
	}); err != nil {
		return Request{}, err
	}
	return created, nil
}

// CreateDraft files a draft. Drafts only need a coherent range; the
// full submission rules apply when the draft is submitted.
func (s *Service) CreateDraft(ctx context.Context, p SubmitParams) (Request, error) {
	if _, err := s.Directory.EmployeeByID(ctx, p.EmployeeID); err != nil {
		return Request{}, err
	}
	if !IsRequestableType(p.Type) {
		return Request{}, ErrInvalidType
	}
	days, err := CalculateDays(p.StartDate, p.EndDate)
	if err != nil {
		return Request{}, err
	}
	return s.Store.CreateRequest(ctx, Request{
		EmployeeID: p.EmployeeID,
		ApproverID: p.ApproverID,
		Type:       p.Type,
		StartDate:  DateOnly(p.StartDate),
		EndDate:    DateOnly(p.EndDate),
		Days:       days,
		Reason:     p.Reason,
		Status:     StatusDraft,
	})
}

func (s *Service) UpdateDraft(ctx context.Context, requestID, actorID string, p SubmitParams) (Request, error) {
	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.EmployeeID != actorID {
		return Request{}, ErrNotSubject
	}
	if req.Status != StatusDraft {
		return Request{}, ErrNotDraft
	}
	if !IsRequestableType(p.Type) {
		return Request{}, ErrInvalidType
	}
	days, err := CalculateDays(p.StartDate, p.EndDate)
	if err != nil {
		return Request{}, err
	}

	req.Type = p.Type
	req.StartDate = DateOnly(p.StartDate)
	req.EndDate = DateOnly(p.EndDate)
	req.Days = days
	req.Reason = p.Reason
	req.ApproverID = p.ApproverID

	ok, err := s.Store.UpdateDraft(ctx, req)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return Request{}, ErrNotDraft
	}
	return req, nil
}

func (s *Service) DeleteDraft(ctx context.Context, requestID, actorID string) error {
	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.EmployeeID != actorID {
		return ErrNotSubject
	}
	if req.Status != StatusDraft {
		return ErrNotDraft
	}
	ok, err := s.Store.DeleteDraft(ctx, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotDraft
	}
	return nil
}

// SubmitDraft moves a draft to pending after applying the full
// submission rules, creating the pending ledger record.
func (s *Service) SubmitDraft(ctx context.Context, requestID, actorID string) (Request, error) {
	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.EmployeeID != actorID {
		return Request{}, ErrNotSubject
	}
	if req.Status != StatusDraft {
		return Request{}, &StateError{Current: req.Status}
	}
	if err := validateSubmission(req, time.Now()); err != nil {
		return Request{}, err
	}

	conflicts, err := s.Store.FindConflicts(ctx, req.EmployeeID, req.StartDate, req.EndDate)
	if err != nil {
		return Request{}, err
	}
	if len(conflicts) > 0 {
		return Request{}, &ConflictError{Conflicts: conflicts}
	}

	now := time.Now().UTC()
	ok, err := s.Store.MarkSubmitted(ctx, requestID, now)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return s.stateConflict(ctx, requestID)
	}
	if _, err := s.Store.CreateRecord(ctx, Record{
		EmployeeID: req.EmployeeID,
		RequestID:  req.ID,
		Type:       req.Type,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Days:       req.Days,
		Status:     StatusPending,
	}); err != nil {
		return Request{}, err
	}
	return s.Store.RequestByID(ctx, requestID)
}

// Approve performs the guarded pending -> approved transition. The
// status change is an atomic conditional update, so of two concurrent
// approvals exactly one wins; the loser sees a StateError. Side effects
// fire only after the transition committed.
func (s *Service) Approve(ctx context.Context, requestID, actorID, comment string) (Request, error) {
	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, &StateError{Current: req.Status}
	}

	allowed, err := s.Resolver.CanApprove(ctx, actorID, req.EmployeeID, hierarchy.DomainLeave)
	if err != nil {
		return Request{}, err
	}
	if !allowed {
		return Request{}, ErrNotAuthorized
	}

	now := time.Now().UTC()
	ok, err := s.Store.MarkApproved(ctx, requestID, actorID, comment, now)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return s.stateConflict(ctx, requestID)
	}

	rec, err := s.flipRecord(ctx, req, StatusApproved)
	if err != nil {
		return Request{}, err
	}
	if s.Effects != nil {
		s.Effects.LeaveApproved(ctx, rec)
	}
	return s.Store.RequestByID(ctx, requestID)
}

// Reject performs the guarded pending -> rejected transition. A
// non-empty reason is required.
func (s *Service) Reject(ctx context.Context, requestID, actorID, reason string) (Request, error) {
	if reason == "" {
		return Request{}, ErrReasonRequired
	}
	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, &StateError{Current: req.Status}
	}

	allowed, err := s.Resolver.CanApprove(ctx, actorID, req.EmployeeID, hierarchy.DomainLeave)
	if err != nil {
		return Request{}, err
	}
	if !allowed {
		return Request{}, ErrNotAuthorized
	}

	now := time.Now().UTC()
	ok, err := s.Store.MarkRejected(ctx, requestID, actorID, reason, now)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return s.stateConflict(ctx, requestID)
	}
	if _, err := s.flipRecord(ctx, req, StatusRejected); err != nil {
		return Request{}, err
	}
	return s.Store.RequestByID(ctx, requestID)
}

// Revert is the admin-only escape hatch: approved back to pending with
// all audit fields cleared. The ledger record returns to pending and
// the balance is recomputed.
func (s *Service) Revert(ctx context.Context, requestID, actorID string) (Request, error) {
	actor, err := s.Directory.EmployeeByID(ctx, actorID)
	if err != nil {
		return Request{}, err
	}
	if !actor.IsActive() || !auth.IsAdmin(actor.Role) {
		return Request{}, ErrAdminOnlyRevert
	}

	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusApproved {
		return Request{}, &StateError{Current: req.Status}
	}

	ok, err := s.Store.MarkReverted(ctx, requestID, time.Now().UTC())
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return s.stateConflict(ctx, requestID)
	}

	rec, err := s.flipRecord(ctx, req, StatusPending)
	if err != nil {
		return Request{}, err
	}
	if s.Effects != nil {
		s.Effects.LeaveReverted(ctx, rec)
	}
	return s.Store.RequestByID(ctx, requestID)
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (Request, error) {
	return s.Store.RequestByID(ctx, requestID)
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	return s.Store.RequestsForEmployee(ctx, employeeID)
}

func (s *Service) FindConflicts(ctx context.Context, employeeID string, start, end time.Time) ([]Record, error) {
	return s.Store.FindConflicts(ctx, employeeID, DateOnly(start), DateOnly(end))
}

// PendingForActor lists pending requests the actor could decide, scoped
// by role: admins and hr see everything, a senior manager sees their
// subtree, a manager their direct reports.
func (s *Service) PendingForActor(ctx context.Context, actorID string) ([]Request, error) {
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
		return s.Store.PendingRequests(ctx)
	case auth.RoleSeniorManager:
		ids, err := s.Directory.SubtreeIDs(ctx, actorID, subtreeDepth)
		if err != nil {
			return nil, err
		}
		return s.Store.PendingRequestsForEmployees(ctx, ids)
	case auth.RoleManager:
		ids, err := s.Directory.DirectReports(ctx, actorID)
		if err != nil {
			return nil, err
		}
		return s.Store.PendingRequestsForEmployees(ctx, ids)
	}
	return nil, nil
}

// flipRecord moves the request's ledger record to the given status,
// creating it if submission predates record keeping.
func (s *Service) flipRecord(ctx context.Context, req Request, status string) (Record, error) {
	rec, err := s.Store.RecordByRequestID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.Store.CreateRecord(ctx, Record{
				EmployeeID: req.EmployeeID,
				RequestID:  req.ID,
				Type:       req.Type,
				StartDate:  req.StartDate,
				EndDate:    req.EndDate,
				Days:       req.Days,
				Status:     status,
			})
		}
		return Record{}, err
	}
	if err := s.Store.SetRecordStatusByRequest(ctx, req.ID, status); err != nil {
		return Record{}, err
	}
	rec.Status = status
	return rec, nil
}

func (s *Service) stateConflict(ctx context.Context, requestID string) (Request, error) {
	current, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return Request{}, &StateError{Current: "decided"}
	}
	return Request{}, &StateError{Current: current.Status}
}
