package attendance

import (
	"time"

	"sekolahku_go/models"
	"sekolahku_go/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Rejection reason codes surfaced to the client. Business-rule rejections
// and environmental failures are deliberately distinct so the UI can offer
// "try again" only where retrying can help.
const (
	ReasonDuplicate     = "duplicate"
	ReasonOutsideArea   = "outside_area"
	ReasonNoSchedule    = "no_schedule"
	ReasonOutsideWindow = "outside_window"
	ReasonLocationError = "location_error"
	ReasonNotCheckedIn  = "not_checked_in"
)

// Day states reported by TodayStatus.
const (
	StateNotRecorded = "not_recorded"
	StateCheckedIn   = "checked_in"
	StateCheckedOut  = "checked_out"
)

// Position is a device-reported GPS coordinate in decimal degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Result is the outcome of a check-in or check-out attempt. Accepted results
// carry the matched location and the ledger row; rejections carry a reason
// code and never leave a partial write behind.
type Result struct {
	Accepted     bool                         `json:"accepted"`
	Reason       string                       `json:"reason,omitempty"`
	LocationName string                       `json:"location_name,omitempty"`
	Timestamp    time.Time                    `json:"timestamp,omitempty"`
	Status       string                       `json:"status,omitempty"`
	LateMinutes  int                          `json:"late_minutes,omitempty"`
	Record       *models.SelfAttendanceRecord `json:"-"`
}

func rejected(reason string) Result {
	return Result{Accepted: false, Reason: reason}
}

// ViolationSink receives late-attendance notices. Implementations must be
// fire-and-forget: a sink failure never affects the committed ledger row.
type ViolationSink interface {
	EnqueueLateAttendance(studentID uint, minutesLate int) error
}

// Engine orchestrates self-service check-in and check-out: geofence match,
// schedule window validation, lateness computation and the atomic ledger
// write. All writes to the ledger go through here or the QR console.
type Engine struct {
	ledger    Ledger
	locations LocationRegistry
	schedules ScheduleRegistry
	sink      ViolationSink
	loc       *time.Location
	now       func() time.Time
}

// NewEngine wires an Engine against the database. sink may be nil when the
// violation side-channel is disabled.
func NewEngine(db *gorm.DB, sink ViolationSink, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		ledger:    NewLedger(db),
		locations: NewLocationRegistry(db),
		schedules: NewScheduleRegistry(db),
		sink:      sink,
		loc:       loc,
		now:       time.Now,
	}
}

func (e *Engine) localNow() time.Time {
	return e.now().In(e.loc)
}

// CheckIn performs the NotRecorded -> CheckedIn transition for the student.
// Validation order: duplicate, coordinates, geofence, schedule, window. The
// row is only written after every check passes; the unique (student, date)
// index resolves concurrent submissions into one success.
func (e *Engine) CheckIn(student *models.Student, pos *Position) (Result, error) {
	now := e.localNow()

	existing, err := e.ledger.Find(student.ID, now)
	if err != nil {
		return Result{}, err
	}
	if existing != nil && existing.CheckInTime != nil {
		return rejected(ReasonDuplicate), nil
	}

	if pos == nil || !utils.ValidCoordinate(pos.Latitude, pos.Longitude) {
		return rejected(ReasonLocationError), nil
	}

	location, err := e.locations.Match(pos.Latitude, pos.Longitude)
	if err != nil {
		return Result{}, err
	}
	if location == nil {
		return rejected(ReasonOutsideArea), nil
	}

	schedule, err := e.schedules.ScheduleFor(student.ClassID, DayOfWeek(now))
	if err != nil {
		return Result{}, err
	}
	if schedule == nil {
		return rejected(ReasonNoSchedule), nil
	}

	if !WithinCheckIn(schedule, now) {
		return rejected(ReasonOutsideWindow), nil
	}

	status := models.AttendanceStatusPresent
	lateMinutes := LateMinutes(schedule, now)
	if lateMinutes > 0 {
		status = models.AttendanceStatusLate
	}

	rec := &models.SelfAttendanceRecord{
		StudentID:         student.ID,
		AttendanceDate:    now,
		CheckInTime:       &now,
		CheckInLatitude:   &pos.Latitude,
		CheckInLongitude:  &pos.Longitude,
		CheckInLocationID: &location.ID,
		Status:            status,
		LateMinutes:       lateMinutes,
		Method:            models.AttendanceMethodSelf,
	}

	if err := e.ledger.InsertCheckIn(rec); err != nil {
		if err == ErrDuplicateRecord {
			// lost the race against a concurrent submission
			return rejected(ReasonDuplicate), nil
		}
		return Result{}, err
	}

	if lateMinutes > 0 {
		e.emitLateViolation(rec, lateMinutes)
	}

	return Result{
		Accepted:     true,
		LocationName: location.Name,
		Timestamp:    now,
		Status:       status,
		LateMinutes:  lateMinutes,
		Record:       rec,
	}, nil
}

// CheckOut performs the CheckedIn -> CheckedOut transition: same geofence
// and window discipline as check-in, but it mutates the existing row via a
// guarded update instead of inserting.
func (e *Engine) CheckOut(student *models.Student, pos *Position) (Result, error) {
	now := e.localNow()

	existing, err := e.ledger.Find(student.ID, now)
	if err != nil {
		return Result{}, err
	}
	if existing == nil || existing.CheckInTime == nil {
		return rejected(ReasonNotCheckedIn), nil
	}
	if existing.CheckOutTime != nil {
		return rejected(ReasonDuplicate), nil
	}

	if pos == nil || !utils.ValidCoordinate(pos.Latitude, pos.Longitude) {
		return rejected(ReasonLocationError), nil
	}

	location, err := e.locations.Match(pos.Latitude, pos.Longitude)
	if err != nil {
		return Result{}, err
	}
	if location == nil {
		return rejected(ReasonOutsideArea), nil
	}

	schedule, err := e.schedules.ScheduleFor(student.ClassID, DayOfWeek(now))
	if err != nil {
		return Result{}, err
	}
	if schedule == nil {
		return rejected(ReasonNoSchedule), nil
	}

	if !WithinCheckOut(schedule, now) {
		return rejected(ReasonOutsideWindow), nil
	}

	updated, err := e.ledger.CompleteCheckOut(student.ID, now, CheckOutUpdate{
		Time:       now,
		Latitude:   pos.Latitude,
		Longitude:  pos.Longitude,
		LocationID: location.ID,
	})
	if err != nil {
		return Result{}, err
	}
	if !updated {
		// another submission closed the row first
		return rejected(ReasonDuplicate), nil
	}

	existing.CheckOutTime = &now
	existing.CheckOutLatitude = &pos.Latitude
	existing.CheckOutLongitude = &pos.Longitude
	existing.CheckOutLocationID = &location.ID

	return Result{
		Accepted:     true,
		LocationName: location.Name,
		Timestamp:    now,
		Status:       existing.Status,
		Record:       existing,
	}, nil
}

// StatusResult describes the student's attendance state for today.
type StatusResult struct {
	State  string                       `json:"state"`
	Record *models.SelfAttendanceRecord `json:"record,omitempty"`
}

// TodayStatus reports NotRecorded / CheckedIn / CheckedOut for UI rendering.
func (e *Engine) TodayStatus(studentID uint) (StatusResult, error) {
	rec, err := e.ledger.Find(studentID, e.localNow())
	if err != nil {
		return StatusResult{}, err
	}
	switch {
	case rec == nil || rec.CheckInTime == nil:
		return StatusResult{State: StateNotRecorded}, nil
	case rec.CheckOutTime == nil:
		return StatusResult{State: StateCheckedIn, Record: rec}, nil
	default:
		return StatusResult{State: StateCheckedOut, Record: rec}, nil
	}
}

// emitLateViolation hands the lateness off to the outbox. Failures are
// logged and swallowed: the attendance row is already committed and must
// not be rolled back.
func (e *Engine) emitLateViolation(rec *models.SelfAttendanceRecord, minutes int) {
	if e.sink == nil {
		return
	}
	if err := e.sink.EnqueueLateAttendance(rec.StudentID, minutes); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"student_id":   rec.StudentID,
			"minutes_late": minutes,
		}).Error("Failed to enqueue late-attendance violation")
		return
	}
	if err := e.ledger.MarkViolationCreated(rec.ID); err != nil {
		logrus.WithError(err).WithField("record_id", rec.ID).
			Error("Failed to flag violation_created on attendance record")
		return
	}
	rec.ViolationCreated = true
}
