package leave

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orgflow/internal/domain/auth"
	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/hierarchy"
)

// memStore implements StoreAPI with the same conditional-update
// semantics as the SQL store, so the race-sensitive tests exercise the
// real transition guards.
type memStore struct {
	mu       sync.Mutex
	seq      int
	requests map[string]Request
	records  map[string]Record
}

func newMemStore() *memStore {
	return &memStore{requests: map[string]Request{}, records: map[string]Record{}}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) CreateRequest(_ context.Context, req Request) (Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = m.nextID("req")
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	m.requests[req.ID] = req
	return req, nil
}

func (m *memStore) RequestByID(_ context.Context, requestID string) (Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (m *memStore) UpdateDraft(_ context.Context, req Request) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.requests[req.ID]
	if !ok || current.Status != StatusDraft {
		return false, nil
	}
	req.Status = StatusDraft
	req.CreatedAt = current.CreatedAt
	req.UpdatedAt = time.Now().UTC()
	m.requests[req.ID] = req
	return true, nil
}

func (m *memStore) DeleteDraft(_ context.Context, requestID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.requests[requestID]
	if !ok || current.Status != StatusDraft {
		return false, nil
	}
	delete(m.requests, requestID)
	return true, nil
}

func (m *memStore) transition(requestID, from string, mutate func(*Request)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.requests[requestID]
	if !ok || current.Status != from {
		return false
	}
	mutate(&current)
	m.requests[requestID] = current
	return true
}

func (m *memStore) MarkSubmitted(_ context.Context, requestID string, at time.Time) (bool, error) {
	return m.transition(requestID, StatusDraft, func(r *Request) {
		r.Status = StatusPending
		r.UpdatedAt = at
	}), nil
}

func (m *memStore) MarkApproved(_ context.Context, requestID, actorID, comment string, at time.Time) (bool, error) {
	return m.transition(requestID, StatusPending, func(r *Request) {
		r.Status = StatusApproved
		r.ApprovedBy = actorID
		r.ApprovedAt = &at
		r.ApprovalComment = comment
		r.UpdatedAt = at
	}), nil
}

func (m *memStore) MarkRejected(_ context.Context, requestID, actorID, reason string, at time.Time) (bool, error) {
	return m.transition(requestID, StatusPending, func(r *Request) {
		r.Status = StatusRejected
		r.RejectedBy = actorID
		r.RejectedAt = &at
		r.RejectionReason = reason
		r.UpdatedAt = at
	}), nil
}

func (m *memStore) MarkReverted(_ context.Context, requestID string, at time.Time) (bool, error) {
	return m.transition(requestID, StatusApproved, func(r *Request) {
		r.Status = StatusPending
		r.ApprovedBy = ""
		r.ApprovedAt = nil
		r.ApprovalComment = ""
		r.RejectedBy = ""
		r.RejectedAt = nil
		r.RejectionReason = ""
		r.UpdatedAt = at
	}), nil
}

func (m *memStore) RequestsForEmployee(_ context.Context, employeeID string) ([]Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, req := range m.requests {
		if req.EmployeeID == employeeID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (m *memStore) PendingRequests(_ context.Context) ([]Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, req := range m.requests {
		if req.Status == StatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (m *memStore) PendingRequestsForEmployees(_ context.Context, employeeIDs []string) ([]Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := map[string]bool{}
	for _, id := range employeeIDs {
		allowed[id] = true
	}
	var out []Request
	for _, req := range m.requests {
		if req.Status == StatusPending && allowed[req.EmployeeID] {
			out = append(out, req)
		}
	}
	return out, nil
}

func (m *memStore) CreateRecord(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.nextID("rec")
	rec.CreatedAt = time.Now().UTC()
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *memStore) RecordByRequestID(_ context.Context, requestID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.RequestID == requestID {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *memStore) SetRecordStatusByRequest(_ context.Context, requestID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.records {
		if rec.RequestID == requestID {
			rec.Status = status
			m.records[id] = rec
		}
	}
	return nil
}

func (m *memStore) FindConflicts(_ context.Context, employeeID string, start, end time.Time) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		if rec.EmployeeID != employeeID {
			continue
		}
		if rec.Status != StatusPending && rec.Status != StatusApproved {
			continue
		}
		if Overlaps(rec.StartDate, rec.EndDate, start, end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type orgDirectory struct {
	employees map[string]directory.Employee
}

func (d *orgDirectory) EmployeeByID(_ context.Context, id string) (directory.Employee, error) {
	e, ok := d.employees[id]
	if !ok {
		return directory.Employee{}, directory.ErrNotFound
	}
	return e, nil
}

func (d *orgDirectory) DirectReports(_ context.Context, managerID string) ([]string, error) {
	var ids []string
	for _, e := range d.employees {
		if e.ManagerID == managerID && e.IsActive() {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

func (d *orgDirectory) SubtreeIDs(_ context.Context, managerID string, maxDepth int) ([]string, error) {
	frontier := []string{managerID}
	var out []string
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, mgr := range frontier {
			reports, _ := d.DirectReports(context.Background(), mgr)
			out = append(out, reports...)
			next = append(next, reports...)
		}
		frontier = next
	}
	return out, nil
}

type effectsRecorder struct {
	mu       sync.Mutex
	approved []Record
	reverted []Record
}

func (e *effectsRecorder) LeaveApproved(_ context.Context, rec Record) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.approved = append(e.approved, rec)
}

func (e *effectsRecorder) LeaveReverted(_ context.Context, rec Record) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reverted = append(e.reverted, rec)
}

func testOrg() *orgDirectory {
	emp := func(id, role, managerID string) directory.Employee {
		return directory.Employee{ID: id, Role: role, ManagerID: managerID, Status: directory.StatusActive, DepartmentID: "dept-1"}
	}
	return &orgDirectory{employees: map[string]directory.Employee{
		"senior": emp("senior", auth.RoleSeniorManager, ""),
		"mgr":    emp("mgr", auth.RoleManager, "senior"),
		"emp":    emp("emp", auth.RoleEmployee, "mgr"),
		"peer":   emp("peer", auth.RoleEmployee, "mgr"),
		"admin":  emp("admin", auth.RoleAdmin, ""),
		"hr":     emp("hr", auth.RoleHR, ""),
	}}
}

func newTestService() (*Service, *memStore, *effectsRecorder) {
	store := newMemStore()
	dir := testOrg()
	effects := &effectsRecorder{}
	svc := NewService(store, hierarchy.NewResolver(dir), dir, effects)
	return svc, store, effects
}

func futureDate(days int) time.Time {
	return DateOnly(time.Now().AddDate(0, 0, days))
}

func submitParams(employeeID string, startOffset, endOffset int) SubmitParams {
	return SubmitParams{
		EmployeeID: employeeID,
		ApproverID: "mgr",
		Type:       TypeAnnual,
		StartDate:  futureDate(startOffset),
		EndDate:    futureDate(endOffset),
		Reason:     "family holiday abroad",
	}
}

func TestSubmitCreatesPendingRequestAndRecord(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	req, err := svc.Submit(ctx, submitParams("emp", 10, 12))
	require.NoError(t, err)
	require.Equal(t, StatusPending, req.Status)
	require.Equal(t, 3, req.Days)

	rec, err := store.RecordByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, rec.Status)
	require.Equal(t, TypeAnnual, rec.Type)
	require.Equal(t, 3, rec.Days)
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := submitParams("emp", 10, 12)
	p.Reason = "too short"
	_, err := svc.Submit(ctx, p)
	require.ErrorIs(t, err, ErrReasonTooShort)

	p = submitParams("emp", -2, 3)
	_, err = svc.Submit(ctx, p)
	require.ErrorIs(t, err, ErrPastStartDate)

	p = submitParams("emp", 12, 10)
	_, err = svc.Submit(ctx, p)
	require.ErrorIs(t, err, ErrInvalidRange)

	p = submitParams("emp", 10, 12)
	p.Type = "sabbatical"
	_, err = svc.Submit(ctx, p)
	require.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Submit(ctx, submitParams("ghost", 10, 12))
	require.ErrorIs(t, err, directory.ErrNotFound)
}

func TestSubmitRejectsOverlap(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, submitParams("emp", 10, 14))
	require.NoError(t, err)

	// Touching boundary counts as a conflict.
	_, err = svc.Submit(ctx, submitParams("emp", 14, 16))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)

	// A different employee is unaffected.
	_, err = svc.Submit(ctx, submitParams("peer", 14, 16))
	require.NoError(t, err)
}

func TestApproveByDirectManager(t *testing.T) {
	svc, store, effects := newTestService()
	ctx := context.Background()

	req, err := svc.Submit(ctx, submitParams("emp", 10, 12))
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, req.ID, "mgr", "enjoy")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, "mgr", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	rec, err := store.RecordByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, rec.Status)
	require.Len(t, effects.approved, 1)
}

func TestApproveUnauthorized(t *testing.T) {
	svc, _, effects := newTestService()
	ctx := context.Background()

	req, err := svc.Submit(ctx, submitParams("emp", 10, 12))
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, "peer", "")
	require.ErrorIs(t, err, ErrNotAuthorized)
	require.Empty(t, effects.approved)

	current, err := svc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, current.Status)
}

func TestApproveAlreadyDecided(t *testing.T) {
	svc, _, effects := newTestService()
	ctx := context.Background()

	req, err := svc.Submit(ctx, submitParams("emp", 10, 12))
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, "mgr", "")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, "mgr", "")
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, StatusApproved, stateErr.Current)
	require.Len(t, effects.approved, 1, "side effects must not fire twice")
}

func TestConcurrentApprovalsExactlyOneWins(t *testing.T) {
	svc, _, effects := newTestService()
	ctx := context.Background()

	req, err := svc.Submit(ctx, submitParams("emp", 10, 12))
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Approve(ctx, req.ID, "admin", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var stateErr *StateError
		require.ErrorAs(t, err, &stateErr)
		losses++
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)
	require.Len(t, effects.approved, 1)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	req, err := svc.Submit(ctx, submitParams("emp", 10, 12))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, req.ID, "mgr", "")
	require.ErrorIs(t, err, ErrReasonRequired)

	rejected, err := svc.Reject(ctx, req.ID, "mgr", "project deadline")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Equal(t, "project deadline", rejected.RejectionReason)

	rec, err := store.RecordByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rec.Status)
}

func TestRevertIsAdminOnlyAndClearsAudit(t *testing.T) {
	svc, store, effects := newTestService()
	ctx := context.Background()

	req, err := svc.Submit(ctx, submitParams("emp", 10, 12))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr", "ok")
	require.NoError(t, err)

	_, err = svc.Revert(ctx, req.ID, "mgr")
	require.ErrorIs(t, err, ErrAdminOnlyRevert)

	reverted, err := svc.Revert(ctx, req.ID, "admin")
	require.NoError(t, err)
	require.Equal(t, StatusPending, reverted.Status)
	require.Empty(t, reverted.ApprovedBy)
	require.Nil(t, reverted.ApprovedAt)
	require.Empty(t, reverted.ApprovalComment)

	rec, err := store.RecordByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, rec.Status)
	require.Len(t, effects.reverted, 1)
}

func TestDraftLifecycle(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, submitParams("emp", 10, 12))
	require.NoError(t, err)
	require.Equal(t, StatusDraft, draft.Status)

	// No ledger record until submission.
	_, err = store.RecordByRequestID(ctx, draft.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateDraft(ctx, draft.ID, "peer", submitParams("emp", 10, 13))
	require.ErrorIs(t, err, ErrNotSubject)

	updated, err := svc.UpdateDraft(ctx, draft.ID, "emp", submitParams("emp", 10, 13))
	require.NoError(t, err)
	require.Equal(t, 4, updated.Days)

	submitted, err := svc.SubmitDraft(ctx, draft.ID, "emp")
	require.NoError(t, err)
	require.Equal(t, StatusPending, submitted.Status)

	rec, err := store.RecordByRequestID(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, rec.Status)

	// Once submitted, draft-only operations are refused.
	_, err = svc.UpdateDraft(ctx, draft.ID, "emp", submitParams("emp", 10, 13))
	require.ErrorIs(t, err, ErrNotDraft)
	err = svc.DeleteDraft(ctx, draft.ID, "emp")
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestPendingForActorScoping(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, submitParams("emp", 10, 12))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, submitParams("peer", 20, 22))
	require.NoError(t, err)

	mine, err := svc.PendingForActor(ctx, "mgr")
	require.NoError(t, err)
	require.Len(t, mine, 2)

	all, err := svc.PendingForActor(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, all, 2)

	senior, err := svc.PendingForActor(ctx, "senior")
	require.NoError(t, err)
	require.Len(t, senior, 2, "subtree includes indirect reports")

	none, err := svc.PendingForActor(ctx, "emp")
	require.NoError(t, err)
	require.Empty(t, none)
}
