package effects

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orgflow/internal/domain/balance"
	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/leave"
	"orgflow/internal/domain/notifications"
)

// BalanceAPI recomputes the balance window containing the given date.
type BalanceAPI interface {
	RecalculateCovering(ctx context.Context, employeeID string, date time.Time) (balance.Balance, error)
}

// ShiftsAPI cancels shift assignments swallowed by an approved leave.
type ShiftsAPI interface {
	CancelInRange(ctx context.Context, employeeID string, start, end time.Time, note string) (int, error)
}

// NotifierAPI delivers a notification, best-effort.
type NotifierAPI interface {
	Notify(ctx context.Context, recipientID, ntype, priority, title, body string) error
}

// DirectoryAPI is the read surface needed to fan notifications out to
// department colleagues.
type DirectoryAPI interface {
	EmployeeByID(ctx context.Context, employeeID string) (directory.Employee, error)
	ActiveInDepartment(ctx context.Context, departmentID string) ([]directory.Employee, error)
}

// Dispatcher runs the post-commit side effects of leave decisions. Each
// effect is independently fault-tolerant: a failure is logged and the
// rest still run. Nothing here can roll back the decision that
// triggered it.
type Dispatcher struct {
	Balance   BalanceAPI
	Shifts    ShiftsAPI
	Notifier  NotifierAPI
	Directory DirectoryAPI
	Log       *slog.Logger
}

func NewDispatcher(balance BalanceAPI, shifts ShiftsAPI, notifier NotifierAPI, dir DirectoryAPI, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{Balance: balance, Shifts: shifts, Notifier: notifier, Directory: dir, Log: log}
}

func (d *Dispatcher) LeaveApproved(ctx context.Context, rec leave.Record) {
	d.recalculateBalance(ctx, rec)
	d.cancelShifts(ctx, rec)
	d.notifyApproval(ctx, rec)
}

func (d *Dispatcher) LeaveReverted(ctx context.Context, rec leave.Record) {
	d.recalculateBalance(ctx, rec)
	if d.Notifier == nil {
		return
	}
	title := "Leave approval reverted"
	body := fmt.Sprintf("Your approved leave from %s to %s has been moved back to pending review.",
		rec.StartDate.Format("2006-01-02"), rec.EndDate.Format("2006-01-02"))
	if err := d.Notifier.Notify(ctx, rec.EmployeeID, notifications.TypeLeaveReverted, notifications.PriorityHigh, title, body); err != nil {
		d.Log.Warn("revert notification failed", "employee", rec.EmployeeID, "err", err)
	}
}

// recalculateBalance only applies to annual leave; sick, unpaid and
// absent records never consume the annual entitlement.
func (d *Dispatcher) recalculateBalance(ctx context.Context, rec leave.Record) {
	if d.Balance == nil || rec.Type != leave.TypeAnnual {
		return
	}
	if _, err := d.Balance.RecalculateCovering(ctx, rec.EmployeeID, rec.StartDate); err != nil {
		d.Log.Warn("balance recalculation failed", "employee", rec.EmployeeID, "err", err)
	}
}

func (d *Dispatcher) cancelShifts(ctx context.Context, rec leave.Record) {
	if d.Shifts == nil {
		return
	}
	note := fmt.Sprintf("cancelled: approved %s leave %s to %s",
		rec.Type, rec.StartDate.Format("2006-01-02"), rec.EndDate.Format("2006-01-02"))
	cancelled, err := d.Shifts.CancelInRange(ctx, rec.EmployeeID, rec.StartDate, rec.EndDate, note)
	if err != nil {
		d.Log.Warn("shift cancellation failed", "employee", rec.EmployeeID, "err", err)
		return
	}
	if cancelled > 0 {
		d.Log.Info("shifts cancelled for approved leave", "employee", rec.EmployeeID, "count", cancelled)
	}
}

// notifyApproval informs the subject at high priority and each active
// department colleague at low priority. Every delivery is attempted
// independently; one failure does not stop the fan-out.
func (d *Dispatcher) notifyApproval(ctx context.Context, rec leave.Record) {
	if d.Notifier == nil {
		return
	}
	period := fmt.Sprintf("%s to %s", rec.StartDate.Format("2006-01-02"), rec.EndDate.Format("2006-01-02"))

	if err := d.Notifier.Notify(ctx, rec.EmployeeID, notifications.TypeLeaveApproved, notifications.PriorityHigh,
		"Leave approved", fmt.Sprintf("Your %s leave from %s has been approved.", rec.Type, period)); err != nil {
		d.Log.Warn("approval notification failed", "employee", rec.EmployeeID, "err", err)
	}

	if d.Directory == nil {
		return
	}
	subject, err := d.Directory.EmployeeByID(ctx, rec.EmployeeID)
	if err != nil {
		d.Log.Warn("colleague fan-out skipped, subject lookup failed", "employee", rec.EmployeeID, "err", err)
		return
	}
	if subject.DepartmentID == "" {
		return
	}
	colleagues, err := d.Directory.ActiveInDepartment(ctx, subject.DepartmentID)
	if err != nil {
		d.Log.Warn("colleague fan-out skipped, department lookup failed", "department", subject.DepartmentID, "err", err)
		return
	}
	body := fmt.Sprintf("%s %s will be away from %s.", subject.FirstName, subject.LastName, period)
	for _, c := range colleagues {
		if c.ID == rec.EmployeeID {
			continue
		}
		if err := d.Notifier.Notify(ctx, c.ID, notifications.TypeColleagueAbsence, notifications.PriorityLow,
			"Colleague absence", body); err != nil {
			d.Log.Warn("colleague notification failed", "recipient", c.ID, "err", err)
		}
	}
}
