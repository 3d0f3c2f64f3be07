package attendance

import (
	"errors"
	"time"

	"sekolahku_go/models"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrDuplicateRecord is returned by Ledger.InsertCheckIn when a row for the
// same (student, date) already exists. The unique index is the arbiter, so
// two concurrent inserts resolve into one success and one of these.
var ErrDuplicateRecord = errors.New("attendance record already exists for this student and date")

var (
	errInvalidDayOfWeek      = errors.New("day_of_week must be between 1 and 7")
	errNegativeLateThreshold = errors.New("late_threshold_minutes must not be negative")
	errWindowInverted        = errors.New("window start must not be after window end")
)

// CheckOutUpdate carries the fields a successful check-out writes onto the
// existing ledger row.
type CheckOutUpdate struct {
	Time       time.Time
	Latitude   float64
	Longitude  float64
	LocationID uint
}

// Ledger is the persistence contract for the attendance ledger. The engine
// and the QR console are its only writers.
type Ledger interface {
	// Find returns the record for (studentID, date) or nil when none exists.
	Find(studentID uint, date time.Time) (*models.SelfAttendanceRecord, error)
	// InsertCheckIn creates the day's row. Returns ErrDuplicateRecord when
	// the (student, date) unique key already has a row.
	InsertCheckIn(rec *models.SelfAttendanceRecord) error
	// CompleteCheckOut sets the check-out fields on the existing row iff
	// check_out_time is still null. Returns false when the guard failed,
	// i.e. no open checked-in row was found.
	CompleteCheckOut(studentID uint, date time.Time, upd CheckOutUpdate) (bool, error)
	// MarkViolationCreated flips violation_created once; repeat calls are
	// no-ops because the flag is never reset.
	MarkViolationCreated(recordID uint) error
}

type gormLedger struct {
	db *gorm.DB
}

// NewLedger returns a Ledger backed by the self_attendance_records table.
func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

func (l *gormLedger) Find(studentID uint, date time.Time) (*models.SelfAttendanceRecord, error) {
	var rec models.SelfAttendanceRecord
	err := l.db.Where("student_id = ? AND attendance_date = ?", studentID, dateOnly(date)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (l *gormLedger) InsertCheckIn(rec *models.SelfAttendanceRecord) error {
	rec.AttendanceDate = dateOnly(rec.AttendanceDate)
	if err := l.db.Create(rec).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

func (l *gormLedger) CompleteCheckOut(studentID uint, date time.Time, upd CheckOutUpdate) (bool, error) {
	// Conditional update: the null guard and the write are one statement so
	// concurrent check-outs cannot both succeed.
	res := l.db.Model(&models.SelfAttendanceRecord{}).
		Where("student_id = ? AND attendance_date = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL",
			studentID, dateOnly(date)).
		Updates(map[string]interface{}{
			"check_out_time":        upd.Time,
			"check_out_latitude":    upd.Latitude,
			"check_out_longitude":   upd.Longitude,
			"check_out_location_id": upd.LocationID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (l *gormLedger) MarkViolationCreated(recordID uint) error {
	return l.db.Model(&models.SelfAttendanceRecord{}).
		Where("id = ? AND violation_created = ?", recordID, false).
		Update("violation_created", true).Error
}

// isDuplicateKeyError detects a MySQL unique constraint violation (1062).
func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// dateOnly truncates a timestamp to its calendar date, keeping the location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
