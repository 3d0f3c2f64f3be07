package attendance

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"sekolahku_go/models"
)

// fakeLedger mirrors the storage-layer guarantees in memory: the insert is
// atomic on (student, date) and the check-out update is conditional.
type fakeLedger struct {
	mu      sync.Mutex
	nextID  uint
	records map[string]*models.SelfAttendanceRecord
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]*models.SelfAttendanceRecord)}
}

func ledgerKey(studentID uint, date time.Time) string {
	return fmt.Sprintf("%d/%s", studentID, date.Format("2006-01-02"))
}

func (f *fakeLedger) Find(studentID uint, date time.Time) (*models.SelfAttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[ledgerKey(studentID, date)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeLedger) InsertCheckIn(rec *models.SelfAttendanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ledgerKey(rec.StudentID, rec.AttendanceDate)
	if _, ok := f.records[key]; ok {
		return ErrDuplicateRecord
	}
	f.nextID++
	rec.ID = f.nextID
	stored := *rec
	f.records[key] = &stored
	return nil
}

func (f *fakeLedger) CompleteCheckOut(studentID uint, date time.Time, upd CheckOutUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[ledgerKey(studentID, date)]
	if !ok || rec.CheckInTime == nil || rec.CheckOutTime != nil {
		return false, nil
	}
	t := upd.Time
	rec.CheckOutTime = &t
	rec.CheckOutLatitude = &upd.Latitude
	rec.CheckOutLongitude = &upd.Longitude
	locID := upd.LocationID
	rec.CheckOutLocationID = &locID
	return true, nil
}

func (f *fakeLedger) MarkViolationCreated(recordID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == recordID {
			rec.ViolationCreated = true
		}
	}
	return nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type staticLocations struct {
	locations []models.AttendanceLocation
}

func (s staticLocations) ListActive() ([]models.AttendanceLocation, error) {
	return s.locations, nil
}

func (s staticLocations) Match(lat, lng float64) (*models.AttendanceLocation, error) {
	return MatchLocation(s.locations, lat, lng), nil
}

type staticSchedules struct {
	schedule *models.AttendanceSchedule
}

func (s staticSchedules) ScheduleFor(classID *uint, dayOfWeek int) (*models.AttendanceSchedule, error) {
	return s.schedule, nil
}

type recordingSink struct {
	mu    sync.Mutex
	calls []int
}

func (r *recordingSink) EnqueueLateAttendance(studentID uint, minutesLate int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, minutesLate)
	return nil
}

func testSchedule() *models.AttendanceSchedule {
	return &models.AttendanceSchedule{
		BaseModel:            models.BaseModel{ID: 1},
		Name:                 "weekday",
		DayOfWeek:            1,
		CheckInStart:         "06:30",
		CheckInEnd:           "08:00",
		CheckOutStart:        "15:00",
		CheckOutEnd:          "17:00",
		LateThresholdMinutes: 60,
	}
}

func testEngine(ledger Ledger, sched *models.AttendanceSchedule, sink ViolationSink, at time.Time) *Engine {
	gate := models.AttendanceLocation{
		BaseModel:    models.BaseModel{ID: 10},
		Name:         "Main Gate",
		Latitude:     0,
		Longitude:    0,
		RadiusMeters: 100,
		IsActive:     true,
	}
	return &Engine{
		ledger:    ledger,
		locations: staticLocations{locations: []models.AttendanceLocation{gate}},
		schedules: staticSchedules{schedule: sched},
		sink:      sink,
		loc:       time.UTC,
		now:       func() time.Time { return at },
	}
}

func testStudent() *models.Student {
	classID := uint(3)
	return &models.Student{
		BaseModel: models.BaseModel{ID: 42},
		FirstName: "Budi",
		LastName:  "Santoso",
		ClassID:   &classID,
	}
}

// Monday 2025-09-01
func mondayAt(hour, minute int) time.Time {
	return time.Date(2025, 9, 1, hour, minute, 0, 0, time.UTC)
}

func TestCheckInAccepted(t *testing.T) {
	ledger := newFakeLedger()
	engine := testEngine(ledger, testSchedule(), nil, mondayAt(6, 45))

	res, err := engine.CheckIn(testStudent(), &Position{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("expected acceptance, got rejection %q", res.Reason)
	}
	if res.LocationName != "Main Gate" {
		t.Fatalf("expected matched location Main Gate, got %q", res.LocationName)
	}
	if res.Status != models.AttendanceStatusPresent {
		t.Fatalf("expected status present, got %q", res.Status)
	}

	status, err := engine.TodayStatus(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != StateCheckedIn {
		t.Fatalf("expected checked_in, got %q", status.State)
	}
	if status.Record == nil || status.Record.CheckInTime == nil || !status.Record.CheckInTime.Equal(res.Timestamp) {
		t.Fatalf("status record does not match check-in timestamp")
	}
	if status.Record.CheckInLocationID == nil || *status.Record.CheckInLocationID != 10 {
		t.Fatalf("status record does not carry the matched location id")
	}
}

func TestCheckInRejections(t *testing.T) {
	tests := []struct {
		name   string
		at     time.Time
		pos    *Position
		reason string
	}{
		{
			name:   "outside authorized area",
			at:     mondayAt(6, 45),
			pos:    &Position{Latitude: 0, Longitude: 0.001}, // ~111m from the gate
			reason: ReasonOutsideArea,
		},
		{
			name:   "missing coordinates",
			at:     mondayAt(6, 45),
			pos:    nil,
			reason: ReasonLocationError,
		},
		{
			name:   "coordinates out of domain",
			at:     mondayAt(6, 45),
			pos:    &Position{Latitude: 95, Longitude: 0},
			reason: ReasonLocationError,
		},
		{
			name:   "before the window opens",
			at:     mondayAt(6, 0),
			pos:    &Position{Latitude: 0, Longitude: 0},
			reason: ReasonOutsideWindow,
		},
		{
			name:   "after the window closes",
			at:     mondayAt(8, 10),
			pos:    &Position{Latitude: 0, Longitude: 0},
			reason: ReasonOutsideWindow,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ledger := newFakeLedger()
			engine := testEngine(ledger, testSchedule(), nil, tc.at)

			res, err := engine.CheckIn(testStudent(), tc.pos)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Accepted {
				t.Fatalf("expected rejection")
			}
			if res.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, res.Reason)
			}
			if ledger.count() != 0 {
				t.Fatalf("rejected attempt must not write a ledger row")
			}
		})
	}
}

func TestCheckInBoundaryOfGeofence(t *testing.T) {
	// ~100m east of the gate: on the boundary, inclusive match
	ledger := newFakeLedger()
	engine := testEngine(ledger, testSchedule(), nil, mondayAt(6, 45))

	res, err := engine.CheckIn(testStudent(), &Position{Latitude: 0, Longitude: 0.0009})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("expected boundary coordinate to match, got rejection %q", res.Reason)
	}
}

func TestCheckInNoSchedule(t *testing.T) {
	ledger := newFakeLedger()
	engine := testEngine(ledger, nil, nil, mondayAt(6, 45))

	res, err := engine.CheckIn(testStudent(), &Position{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Accepted || res.Reason != ReasonNoSchedule {
		t.Fatalf("expected no_schedule rejection, got %+v", res)
	}
}

func TestCheckInDuplicateKeepsOriginal(t *testing.T) {
	ledger := newFakeLedger()
	engine := testEngine(ledger, testSchedule(), nil, mondayAt(6, 45))
	student := testStudent()

	first, err := engine.CheckIn(student, &Position{Latitude: 0, Longitude: 0})
	if err != nil || !first.Accepted {
		t.Fatalf("first check-in should succeed: %v %+v", err, first)
	}

	second, err := engine.CheckIn(student, &Position{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Accepted || second.Reason != ReasonDuplicate {
		t.Fatalf("expected duplicate rejection, got %+v", second)
	}

	rec, _ := ledger.Find(student.ID, mondayAt(6, 45))
	if rec == nil || !rec.CheckInTime.Equal(first.Timestamp) {
		t.Fatalf("duplicate attempt must not overwrite the original timestamp")
	}
}

func TestCheckInLateFlagsAndEmitsViolation(t *testing.T) {
	// on-time deadline = 08:00 - 60min = 07:00; 07:25 is 25 minutes late
	ledger := newFakeLedger()
	sink := &recordingSink{}
	engine := testEngine(ledger, testSchedule(), sink, mondayAt(7, 25))
	student := testStudent()

	res, err := engine.CheckIn(student, &Position{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("late check-in inside the window must be accepted, got %q", res.Reason)
	}
	if res.Status != models.AttendanceStatusLate || res.LateMinutes != 25 {
		t.Fatalf("expected late/25, got %s/%d", res.Status, res.LateMinutes)
	}
	if len(sink.calls) != 1 || sink.calls[0] != 25 {
		t.Fatalf("expected one violation with 25 minutes, got %v", sink.calls)
	}

	rec, _ := ledger.Find(student.ID, mondayAt(7, 25))
	if rec == nil || !rec.ViolationCreated {
		t.Fatalf("violation_created must be set after a successful enqueue")
	}
}

func TestCheckOutBeforeCheckIn(t *testing.T) {
	ledger := newFakeLedger()
	engine := testEngine(ledger, testSchedule(), nil, mondayAt(15, 30))

	res, err := engine.CheckOut(testStudent(), &Position{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Accepted || res.Reason != ReasonNotCheckedIn {
		t.Fatalf("expected not_checked_in rejection, got %+v", res)
	}
}

func TestCheckOutCompletesTheDay(t *testing.T) {
	ledger := newFakeLedger()
	student := testStudent()

	checkInEngine := testEngine(ledger, testSchedule(), nil, mondayAt(6, 45))
	if res, err := checkInEngine.CheckIn(student, &Position{Latitude: 0, Longitude: 0}); err != nil || !res.Accepted {
		t.Fatalf("check-in should succeed: %v %+v", err, res)
	}

	checkOutEngine := testEngine(ledger, testSchedule(), nil, mondayAt(15, 30))
	res, err := checkOutEngine.CheckOut(student, &Position{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("expected check-out acceptance, got %q", res.Reason)
	}

	status, _ := checkOutEngine.TodayStatus(student.ID)
	if status.State != StateCheckedOut {
		t.Fatalf("expected checked_out, got %q", status.State)
	}
	if status.Record.CheckOutTime == nil || status.Record.CheckOutTime.Before(*status.Record.CheckInTime) {
		t.Fatalf("check-out time must be set and >= check-in time")
	}

	// a second check-out is a duplicate
	again, err := checkOutEngine.CheckOut(student, &Position{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Accepted || again.Reason != ReasonDuplicate {
		t.Fatalf("expected duplicate rejection on second check-out, got %+v", again)
	}
}

func TestCheckOutOutsideWindow(t *testing.T) {
	ledger := newFakeLedger()
	student := testStudent()

	checkInEngine := testEngine(ledger, testSchedule(), nil, mondayAt(6, 45))
	if res, err := checkInEngine.CheckIn(student, &Position{Latitude: 0, Longitude: 0}); err != nil || !res.Accepted {
		t.Fatalf("check-in should succeed: %v %+v", err, res)
	}

	early := testEngine(ledger, testSchedule(), nil, mondayAt(12, 0))
	res, err := early.CheckOut(student, &Position{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Accepted || res.Reason != ReasonOutsideWindow {
		t.Fatalf("expected outside_window rejection, got %+v", res)
	}
}

func TestConcurrentCheckInsExactlyOneSucceeds(t *testing.T) {
	ledger := newFakeLedger()
	student := testStudent()

	const attempts = 8
	results := make(chan Result, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine := testEngine(ledger, testSchedule(), nil, mondayAt(6, 45))
			res, err := engine.CheckIn(student, &Position{Latitude: 0, Longitude: 0})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for res := range results {
		if res.Accepted {
			accepted++
		} else if res.Reason != ReasonDuplicate {
			t.Fatalf("concurrent loser must see duplicate, got %q", res.Reason)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted check-in, got %d", accepted)
	}
	if ledger.count() != 1 {
		t.Fatalf("ledger must hold exactly one row, got %d", ledger.count())
	}
}
