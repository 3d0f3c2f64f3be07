package attendance

import (
	"fmt"
	"time"

	"sekolahku_go/models"

	"gorm.io/gorm"
)

// QRConsole is the staff-operated attendance path: an operator scans a
// student's code at the gate, so no geolocation or schedule lookup is
// involved. Lateness is a plain wall-clock comparison against one fixed
// cutoff. It writes through the same ledger contract as the engine.
type QRConsole struct {
	ledger Ledger
	cutoff string // HH:MM
	loc    *time.Location
	now    func() time.Time
}

// NewQRConsole wires a console against the database with the configured
// cutoff time.
func NewQRConsole(db *gorm.DB, cutoff string, loc *time.Location) *QRConsole {
	if loc == nil {
		loc = time.Local
	}
	return &QRConsole{
		ledger: NewLedger(db),
		cutoff: cutoff,
		loc:    loc,
		now:    time.Now,
	}
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	Accepted    bool                         `json:"accepted"`
	Message     string                       `json:"message,omitempty"`
	Status      string                       `json:"status,omitempty"`
	LateMinutes int                          `json:"late_minutes,omitempty"`
	Timestamp   time.Time                    `json:"timestamp,omitempty"`
	Record      *models.SelfAttendanceRecord `json:"-"`
}

// Scan records attendance for the scanned student. Unlike the self-service
// path, a scan after the cutoff is still accepted and flagged late; only a
// second scan for the same student on the same day is rejected.
func (q *QRConsole) Scan(student *models.Student) (ScanResult, error) {
	now := q.now().In(q.loc)

	status, lateMinutes := QRStatus(q.cutoff, now)

	rec := &models.SelfAttendanceRecord{
		StudentID:      student.ID,
		AttendanceDate: now,
		CheckInTime:    &now,
		Status:         status,
		LateMinutes:    lateMinutes,
		Method:         models.AttendanceMethodQR,
	}

	if err := q.ledger.InsertCheckIn(rec); err != nil {
		if err == ErrDuplicateRecord {
			return ScanResult{
				Accepted: false,
				Message:  fmt.Sprintf("%s %s has already been recorded today", student.FirstName, student.LastName),
			}, nil
		}
		return ScanResult{}, err
	}

	return ScanResult{
		Accepted:    true,
		Status:      status,
		LateMinutes: lateMinutes,
		Timestamp:   now,
		Record:      rec,
	}, nil
}

// QRStatus computes the status and whole minutes of lateness for a scan at
// now against the HH:MM cutoff. A malformed cutoff never flags anyone late.
func QRStatus(cutoff string, now time.Time) (string, int) {
	cutoffMin, err := minutesOfDay(cutoff)
	if err != nil {
		return models.AttendanceStatusPresent, 0
	}
	cutoffTime := time.Date(now.Year(), now.Month(), now.Day(), cutoffMin/60, cutoffMin%60, 0, 0, now.Location())
	if !now.After(cutoffTime) {
		return models.AttendanceStatusPresent, 0
	}
	lateMinutes := int(now.Sub(cutoffTime) / time.Minute)
	return models.AttendanceStatusLate, lateMinutes
}
