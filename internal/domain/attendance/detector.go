package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"orgflow/internal/domain/auth"
	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/leave"
	"orgflow/internal/domain/notifications"
	"orgflow/internal/domain/shifts"
)

const (
	// absenceGrace is how long after shift start a missing clock-in
	// counts as an absence rather than lateness.
	absenceGrace = 3 * time.Hour
	// lateNotifyThreshold is the lateness beyond which admins are told.
	lateNotifyThreshold = 30 * time.Minute
	// clockOutGrace is the slack after shift end before extra time
	// counts as overtime minutes.
	clockOutGrace = 15 * time.Minute
)

// ShiftsAPI is the detector's view of shift assignments.
type ShiftsAPI interface {
	OnDate(ctx context.Context, date time.Time) ([]shifts.Assignment, error)
	MarkMissed(ctx context.Context, assignmentID string) error
	MarkCompleted(ctx context.Context, assignmentID string) error
	SetLateness(ctx context.Context, assignmentID string, minutes int) error
	SetOvertimeMinutes(ctx context.Context, assignmentID string, minutes int) error
}

// LeaveAPI is the detector's view of the leave record ledger.
type LeaveAPI interface {
	HasApprovedLeaveOn(ctx context.Context, employeeID string, date time.Time) (bool, error)
	AbsentRecordExists(ctx context.Context, employeeID string, date time.Time) (bool, error)
	CreateRecord(ctx context.Context, rec leave.Record) (leave.Record, error)
}

type NotifierAPI interface {
	Notify(ctx context.Context, recipientID, ntype, priority, title, body string) error
}

type DirectoryAPI interface {
	EmployeesByRole(ctx context.Context, roles ...string) ([]directory.Employee, error)
}

// Summary reports what one detector run did.
type Summary struct {
	Date          time.Time `json:"date"`
	ShiftsChecked int       `json:"shiftsChecked"`
	OnLeave       int       `json:"onLeave"`
	Absences      int       `json:"absences"`
	Lates         int       `json:"lates"`
	Overtimes     int       `json:"overtimes"`
	Failures      int       `json:"failures"`
}

// Detector is the daily attendance batch: it walks a day's shift
// assignments and turns missing or irregular clock events into absent
// records, lateness annotations, and overtime annotations. Shifts are
// processed independently; one bad shift cannot halt the run.
type Detector struct {
	Entries   StoreAPI
	Shifts    ShiftsAPI
	Leave     LeaveAPI
	Notifier  NotifierAPI
	Directory DirectoryAPI
	Log       *slog.Logger
}

func NewDetector(entries StoreAPI, sh ShiftsAPI, lv LeaveAPI, notifier NotifierAPI, dir DirectoryAPI, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{Entries: entries, Shifts: sh, Leave: lv, Notifier: notifier, Directory: dir, Log: log}
}

// RunYesterday is the entry point the job scheduler uses.
func (d *Detector) RunYesterday(ctx context.Context) (Summary, error) {
	yesterday := leave.DateOnly(time.Now().UTC().AddDate(0, 0, -1))
	return d.Run(ctx, yesterday)
}

func (d *Detector) Run(ctx context.Context, date time.Time) (Summary, error) {
	date = leave.DateOnly(date)
	summary := Summary{Date: date}

	assignments, err := d.Shifts.OnDate(ctx, date)
	if err != nil {
		return summary, fmt.Errorf("loading shifts for %s: %w", date.Format("2006-01-02"), err)
	}

	for _, shift := range assignments {
		if shift.Status != shifts.StatusScheduled && shift.Status != shifts.StatusPending {
			continue
		}
		summary.ShiftsChecked++
		if err := d.processShift(ctx, date, shift, &summary); err != nil {
			summary.Failures++
			d.Log.Warn("attendance check failed for shift",
				"shift", shift.ID, "employee", shift.EmployeeID, "err", err)
		}
	}

	d.Log.Info("attendance detection finished",
		"date", date.Format("2006-01-02"),
		"checked", summary.ShiftsChecked,
		"absences", summary.Absences,
		"lates", summary.Lates,
		"overtimes", summary.Overtimes,
		"failures", summary.Failures)
	return summary, nil
}

func (d *Detector) processShift(ctx context.Context, date time.Time, shift shifts.Assignment, summary *Summary) error {
	onLeave, err := d.Leave.HasApprovedLeaveOn(ctx, shift.EmployeeID, date)
	if err != nil {
		return err
	}
	if onLeave {
		summary.OnLeave++
		return nil
	}

	entry, err := d.Entries.EntryFor(ctx, shift.EmployeeID, date)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	noClockIn := errors.Is(err, ErrNotFound) || entry.ClockIn == nil

	if noClockIn || entry.ClockIn.After(shift.StartTime.Add(absenceGrace)) {
		if err := d.markAbsent(ctx, date, shift); err != nil {
			return err
		}
		summary.Absences++
		return nil
	}

	if lateness := entry.ClockIn.Sub(shift.StartTime); lateness > 0 {
		minutes := int(lateness.Minutes())
		if err := d.Shifts.SetLateness(ctx, shift.ID, minutes); err != nil {
			return err
		}
		if err := d.Entries.SetLateness(ctx, entry.ID, minutes); err != nil {
			return err
		}
		summary.Lates++
		if lateness > lateNotifyThreshold {
			d.notifyAdmins(ctx, notifications.TypeLateArrival, "Late arrival",
				fmt.Sprintf("Employee %s clocked in %d minutes late on %s.",
					shift.EmployeeID, minutes, date.Format("2006-01-02")))
		}
	}

	if entry.ClockOut != nil {
		if extra := entry.ClockOut.Sub(shift.EndTime); extra > clockOutGrace {
			minutes := int(extra.Minutes())
			if err := d.Shifts.SetOvertimeMinutes(ctx, shift.ID, minutes); err != nil {
				return err
			}
			if err := d.Entries.SetOvertimeMinutes(ctx, entry.ID, minutes); err != nil {
				return err
			}
			summary.Overtimes++
		}
	}

	// The shift was worked; close it out.
	return d.Shifts.MarkCompleted(ctx, shift.ID)
}

// markAbsent files the generated absent record, flips the shift to
// missed, and tells the admins. An existing absent record for the day
// means the date was already processed and everything short-circuits.
func (d *Detector) markAbsent(ctx context.Context, date time.Time, shift shifts.Assignment) error {
	exists, err := d.Leave.AbsentRecordExists(ctx, shift.EmployeeID, date)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := d.Leave.CreateRecord(ctx, leave.Record{
		EmployeeID: shift.EmployeeID,
		Type:       leave.TypeAbsent,
		StartDate:  date,
		EndDate:    date,
		Days:       1,
		Status:     leave.StatusApproved,
	}); err != nil {
		return err
	}
	if err := d.Shifts.MarkMissed(ctx, shift.ID); err != nil {
		return err
	}
	d.notifyAdmins(ctx, notifications.TypeAbsenceDetected, "Unplanned absence",
		fmt.Sprintf("Employee %s did not clock in for their shift on %s.",
			shift.EmployeeID, date.Format("2006-01-02")))
	return nil
}

func (d *Detector) notifyAdmins(ctx context.Context, ntype, title, body string) {
	if d.Notifier == nil || d.Directory == nil {
		return
	}
	admins, err := d.Directory.EmployeesByRole(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		d.Log.Warn("admin lookup for notification failed", "err", err)
		return
	}
	for _, admin := range admins {
		if err := d.Notifier.Notify(ctx, admin.ID, ntype, notifications.PriorityHigh, title, body); err != nil {
			d.Log.Warn("admin notification failed", "recipient", admin.ID, "err", err)
		}
	}
}
