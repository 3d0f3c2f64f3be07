package attendance

import (
	"time"

	"sekolahku_go/models"

	"gorm.io/gorm"
)

// ScheduleRegistry resolves the attendance schedule governing a class on a
// given day of the week (1 = Monday ... 7 = Sunday).
type ScheduleRegistry interface {
	// ScheduleFor returns the active schedule for (classID, dayOfWeek) or
	// nil when self-attendance is not configured for that day. A schedule
	// bound to the class wins over a class-agnostic one; remaining ties go
	// to the earliest created row.
	ScheduleFor(classID *uint, dayOfWeek int) (*models.AttendanceSchedule, error)
}

type gormScheduleRegistry struct {
	db *gorm.DB
}

// NewScheduleRegistry returns a ScheduleRegistry backed by the
// attendance_schedules table.
func NewScheduleRegistry(db *gorm.DB) ScheduleRegistry {
	return &gormScheduleRegistry{db: db}
}

func (r *gormScheduleRegistry) ScheduleFor(classID *uint, dayOfWeek int) (*models.AttendanceSchedule, error) {
	query := r.db.Where("is_active = ? AND day_of_week = ?", true, dayOfWeek)
	if classID != nil {
		query = query.Where("class_id = ? OR class_id IS NULL", *classID)
	} else {
		query = query.Where("class_id IS NULL")
	}

	var schedules []models.AttendanceSchedule
	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return ResolveSchedule(schedules), nil
}

// ResolveSchedule picks the governing schedule from candidates: a row bound
// to a class beats a class-agnostic one, remaining ties go to the earliest
// created row, then the lowest id. Returns nil for an empty slice.
func ResolveSchedule(candidates []models.AttendanceSchedule) *models.AttendanceSchedule {
	var best *models.AttendanceSchedule
	for i := range candidates {
		c := &candidates[i]
		if best == nil || scheduleBeats(c, best) {
			best = c
		}
	}
	return best
}

func scheduleBeats(a, b *models.AttendanceSchedule) bool {
	if (a.ClassID != nil) != (b.ClassID != nil) {
		return a.ClassID != nil
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// DayOfWeek maps a timestamp to the 1-7 (Monday-first) convention the
// schedule rows use.
func DayOfWeek(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WithinCheckIn reports whether now falls inside the schedule's check-in
// window, bounds inclusive.
func WithinCheckIn(s *models.AttendanceSchedule, now time.Time) bool {
	return withinWindow(now, s.CheckInStart, s.CheckInEnd)
}

// WithinCheckOut reports whether now falls inside the schedule's check-out
// window, bounds inclusive.
func WithinCheckOut(s *models.AttendanceSchedule, now time.Time) bool {
	return withinWindow(now, s.CheckOutStart, s.CheckOutEnd)
}

// LateMinutes computes how late a check-in at now is. The on-time deadline
// is check_in_end minus the schedule's late threshold; a check-in after the
// deadline (but still inside the window) is flagged late. Returns 0 when
// on time or when the window cannot be parsed.
func LateMinutes(s *models.AttendanceSchedule, now time.Time) int {
	endMin, err := minutesOfDay(s.CheckInEnd)
	if err != nil {
		return 0
	}
	deadline := endMin - s.LateThresholdMinutes
	if deadline < 0 {
		deadline = 0
	}
	late := clockMinutes(now) - deadline
	if late <= 0 {
		return 0
	}
	return late
}

// ValidateSchedule enforces the field invariants on an administrator-created
// or updated schedule row.
func ValidateSchedule(s *models.AttendanceSchedule) error {
	if s.DayOfWeek < 1 || s.DayOfWeek > 7 {
		return errInvalidDayOfWeek
	}
	if s.LateThresholdMinutes < 0 {
		return errNegativeLateThreshold
	}
	inStart, err := minutesOfDay(s.CheckInStart)
	if err != nil {
		return err
	}
	inEnd, err := minutesOfDay(s.CheckInEnd)
	if err != nil {
		return err
	}
	if inStart > inEnd {
		return errWindowInverted
	}
	outStart, err := minutesOfDay(s.CheckOutStart)
	if err != nil {
		return err
	}
	outEnd, err := minutesOfDay(s.CheckOutEnd)
	if err != nil {
		return err
	}
	if outStart > outEnd {
		return errWindowInverted
	}
	return nil
}
