package overtime

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
	"orgflow/internal/domain/leave"
)

type memStore struct {
	mu      sync.Mutex
	seq     int
	entries map[string]Entry
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]Entry{}}
}

func (m *memStore) Create(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e.ID = fmt.Sprintf("ot-%d", m.seq)
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	m.entries[e.ID] = e
	return e, nil
}

func (m *memStore) ByID(_ context.Context, entryID string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *memStore) ByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.EmployeeID == employeeID && e.Date.Equal(date) {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (m *memStore) ForEmployee(_ context.Context, employeeID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) Pending(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Status == StatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) PendingForEmployees(_ context.Context, employeeIDs []string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := map[string]bool{}
	for _, id := range employeeIDs {
		allowed[id] = true
	}
	var out []Entry
	for _, e := range m.entries {
		if e.Status == StatusPending && allowed[e.EmployeeID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) decide(entryID, actorID, status, reason string, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.entries[entryID]
	if !ok || current.Status != StatusPending {
		return false
	}
	current.Status = status
	current.DecidedBy = actorID
	current.DecidedAt = &at
	current.RejectionReason = reason
	current.UpdatedAt = at
	m.entries[entryID] = current
	return true
}

func (m *memStore) MarkApproved(_ context.Context, entryID, actorID string, at time.Time) (bool, error) {
	return m.decide(entryID, actorID, StatusApproved, "", at), nil
}

func (m *memStore) MarkRejected(_ context.Context, entryID, actorID, reason string, at time.Time) (bool, error) {
	return m.decide(entryID, actorID, StatusRejected, reason, at), nil
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

func newTestService() (*Service, *memStore) {
	emp := func(id, role, managerID string) directory.Employee {
		return directory.Employee{ID: id, Role: role, ManagerID: managerID, Status: directory.StatusActive}
	}
	dir := &orgDirectory{employees: map[string]directory.Employee{
		"mgr":   emp("mgr", auth.RoleManager, ""),
		"emp":   emp("emp", auth.RoleEmployee, "mgr"),
		"peer":  emp("peer", auth.RoleEmployee, "mgr"),
		"hr":    emp("hr", auth.RoleHR, ""),
		"admin": emp("admin", auth.RoleAdmin, ""),
	}}
	store := newMemStore()
	return NewService(store, hierarchy.NewResolver(dir), dir), store
}

func TestComputeOvertimeHoursClampsAtZero(t *testing.T) {
	if got := ComputeOvertimeHours(8, 10.5); got != 2.5 {
		t.Fatalf("expected 2.5, got %v", got)
	}
	if got := ComputeOvertimeHours(8, 6); got != 0 {
		t.Fatalf("undertime must not be negative overtime, got %v", got)
	}
	if got := ComputeOvertimeHours(8, 8); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestSubmitComputesHoursAndRejectsDuplicateDate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	day := leave.DateOnly(time.Now())

	e, err := svc.Submit(ctx, SubmitParams{EmployeeID: "emp", Date: day, ScheduledHours: 8, WorkedHours: 10})
	require.NoError(t, err)
	require.Equal(t, StatusPending, e.Status)
	require.Equal(t, float64(2), e.OvertimeHours)

	_, err = svc.Submit(ctx, SubmitParams{EmployeeID: "emp", Date: day, ScheduledHours: 8, WorkedHours: 9})
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	require.True(t, dup.Date.Equal(day))

	// Same date for a different employee is fine.
	_, err = svc.Submit(ctx, SubmitParams{EmployeeID: "peer", Date: day, ScheduledHours: 8, WorkedHours: 9})
	require.NoError(t, err)
}

func TestSubmitValidatesHours(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitParams{EmployeeID: "emp", Date: time.Now(), ScheduledHours: -1, WorkedHours: 8})
	require.ErrorIs(t, err, ErrInvalidHours)

	_, err = svc.Submit(ctx, SubmitParams{EmployeeID: "emp", Date: time.Now(), ScheduledHours: 8, WorkedHours: 0})
	require.ErrorIs(t, err, ErrInvalidHours)
}

func TestDecisionAuthorization(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	e, err := svc.Submit(ctx, SubmitParams{EmployeeID: "emp", Date: time.Now(), ScheduledHours: 8, WorkedHours: 9})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, e.ID, "peer")
	require.ErrorIs(t, err, ErrNotAuthorized)

	// hr can decide overtime, same as leave.
	approved, err := svc.Approve(ctx, e.ID, "hr")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, "hr", approved.DecidedBy)

	_, err = svc.Reject(ctx, e.ID, "mgr", "already covered by a shift swap")
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, StatusApproved, stateErr.Current)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	e, err := svc.Submit(ctx, SubmitParams{EmployeeID: "emp", Date: time.Now(), ScheduledHours: 8, WorkedHours: 9})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, e.ID, "mgr", "")
	require.ErrorIs(t, err, ErrReasonRequired)
	_, err = svc.Reject(ctx, e.ID, "mgr", "   ")
	require.ErrorIs(t, err, ErrReasonRequired)

	// The entry is untouched; a reasoned rejection still goes through.
	current, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, current.Status)

	rejected, err := svc.Reject(ctx, e.ID, "mgr", "not pre-approved by the roster")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Equal(t, "not pre-approved by the roster", rejected.RejectionReason)
	require.Equal(t, "mgr", rejected.DecidedBy)
}

func TestConcurrentDecisionsExactlyOneWins(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	e, err := svc.Submit(ctx, SubmitParams{EmployeeID: "emp", Date: time.Now(), ScheduledHours: 8, WorkedHours: 9})
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Approve(ctx, e.ID, "mgr")
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
}
