package attendance

import (
	"strings"
	"testing"
	"time"

	"sekolahku_go/models"
)

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expHour    int
		expMinutes int
	}{
		{
			name:       "simple time",
			input:      "06:30",
			expHour:    6,
			expMinutes: 30,
		},
		{
			name:       "with seconds",
			input:      "15:45:00",
			expHour:    15,
			expMinutes: 45,
		},
		{
			name:       "iso datetime",
			input:      "2025-09-01T07:15:00+07:00",
			expHour:    7,
			expMinutes: 15,
		},
		{
			name:       "mysql datetime",
			input:      "2025-09-01 13:45:00",
			expHour:    13,
			expMinutes: 45,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h, m, err := parseHourMinute(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tc.expHour || m != tc.expMinutes {
				t.Fatalf("expected %02d:%02d, got %02d:%02d", tc.expHour, tc.expMinutes, h, m)
			}
		})
	}
}

func TestParseHourMinuteInvalid(t *testing.T) {
	if _, _, err := parseHourMinute("invalid"); err == nil {
		t.Fatalf("expected error for invalid input")
	}
	if _, _, err := parseHourMinute(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestWithinCheckInWindow(t *testing.T) {
	schedule := &models.AttendanceSchedule{
		CheckInStart:  "06:30",
		CheckInEnd:    "07:00",
		CheckOutStart: "15:00",
		CheckOutEnd:   "16:00",
	}

	tests := []struct {
		name   string
		hour   int
		minute int
		within bool
	}{
		{"before opening", 6, 29, false},
		{"at opening", 6, 30, true},
		{"inside", 6, 45, true},
		{"at closing", 7, 0, true},
		{"just after closing", 7, 1, false},
		{"well after closing", 7, 10, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			now := time.Date(2025, 9, 1, tc.hour, tc.minute, 0, 0, time.UTC)
			if got := WithinCheckIn(schedule, now); got != tc.within {
				t.Fatalf("WithinCheckIn at %02d:%02d = %v, want %v", tc.hour, tc.minute, got, tc.within)
			}
		})
	}
}

func TestLateMinutes(t *testing.T) {
	schedule := &models.AttendanceSchedule{
		CheckInStart:         "06:30",
		CheckInEnd:           "08:00",
		LateThresholdMinutes: 60,
	}

	tests := []struct {
		name   string
		hour   int
		minute int
		late   int
	}{
		{"early", 6, 40, 0},
		{"on the deadline", 7, 0, 0},
		{"one minute past", 7, 1, 1},
		{"half hour past", 7, 30, 30},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			now := time.Date(2025, 9, 1, tc.hour, tc.minute, 0, 0, time.UTC)
			if got := LateMinutes(schedule, now); got != tc.late {
				t.Fatalf("LateMinutes at %02d:%02d = %d, want %d", tc.hour, tc.minute, got, tc.late)
			}
		})
	}
}

func TestDayOfWeek(t *testing.T) {
	monday := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	if got := DayOfWeek(monday); got != 1 {
		t.Fatalf("expected Monday = 1, got %d", got)
	}
	sunday := time.Date(2025, 9, 7, 12, 0, 0, 0, time.UTC)
	if got := DayOfWeek(sunday); got != 7 {
		t.Fatalf("expected Sunday = 7, got %d", got)
	}
}

func TestValidateSchedule(t *testing.T) {
	valid := &models.AttendanceSchedule{
		DayOfWeek:     1,
		CheckInStart:  "06:30",
		CheckInEnd:    "07:00",
		CheckOutStart: "15:00",
		CheckOutEnd:   "16:00",
	}
	if err := ValidateSchedule(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*models.AttendanceSchedule)
	}{
		{"day of week too low", func(s *models.AttendanceSchedule) { s.DayOfWeek = 0 }},
		{"day of week too high", func(s *models.AttendanceSchedule) { s.DayOfWeek = 8 }},
		{"inverted check-in window", func(s *models.AttendanceSchedule) { s.CheckInStart = "08:00" }},
		{"inverted check-out window", func(s *models.AttendanceSchedule) { s.CheckOutEnd = "14:00" }},
		{"negative threshold", func(s *models.AttendanceSchedule) { s.LateThresholdMinutes = -5 }},
		{"garbage time", func(s *models.AttendanceSchedule) { s.CheckInStart = "soon" }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s := *valid
			tc.mutate(&s)
			if err := ValidateSchedule(&s); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestMatchLocation(t *testing.T) {
	gate := models.AttendanceLocation{
		BaseModel: models.BaseModel{ID: 1}, Name: "Main Gate",
		Latitude: 0, Longitude: 0, RadiusMeters: 100, IsActive: true,
	}
	hall := models.AttendanceLocation{
		BaseModel: models.BaseModel{ID: 2}, Name: "Sports Hall",
		Latitude: 0, Longitude: 0.0005, RadiusMeters: 200, IsActive: true,
	}
	locations := []models.AttendanceLocation{gate, hall}

	t.Run("boundary is inclusive", func(t *testing.T) {
		// ~100m from the gate center
		if got := MatchLocation([]models.AttendanceLocation{gate}, 0, 0.0009); got == nil {
			t.Fatalf("expected boundary coordinate to match")
		}
	})

	t.Run("just outside does not match", func(t *testing.T) {
		// ~111m from the gate center
		if got := MatchLocation([]models.AttendanceLocation{gate}, 0, 0.001); got != nil {
			t.Fatalf("expected no match, got %q", got.Name)
		}
	})

	t.Run("one meter past the fence does not match", func(t *testing.T) {
		// ~101m from the gate center, beyond whole-meter rounding
		if got := MatchLocation([]models.AttendanceLocation{gate}, 0, 0.00091); got != nil {
			t.Fatalf("expected no match, got %q", got.Name)
		}
	})

	t.Run("overlap resolves to nearest", func(t *testing.T) {
		got := MatchLocation(locations, 0, 0.0001)
		if got == nil || got.ID != gate.ID {
			t.Fatalf("expected nearest location Main Gate, got %+v", got)
		}
		got = MatchLocation(locations, 0, 0.0004)
		if got == nil || got.ID != hall.ID {
			t.Fatalf("expected nearest location Sports Hall, got %+v", got)
		}
	})
}

func TestResolveSchedule(t *testing.T) {
	classID := uint(4)
	at := func(day int) time.Time {
		return time.Date(2025, 8, day, 9, 0, 0, 0, time.UTC)
	}
	schedule := func(id uint, class *uint, created time.Time) models.AttendanceSchedule {
		return models.AttendanceSchedule{
			BaseModel:    models.BaseModel{ID: id, CreatedAt: created},
			Name:         "Jadwal Reguler",
			DayOfWeek:    1,
			ClassID:      class,
			CheckInStart: "06:00",
			CheckInEnd:   "07:30",
			IsActive:     true,
		}
	}

	tests := []struct {
		name       string
		candidates []models.AttendanceSchedule
		expID      uint
	}{
		{
			name:       "empty slice resolves to nil",
			candidates: nil,
			expID:      0,
		},
		{
			name: "class-bound beats class-agnostic",
			candidates: []models.AttendanceSchedule{
				schedule(1, nil, at(1)),
				schedule(2, &classID, at(5)),
			},
			expID: 2,
		},
		{
			name: "class-bound wins regardless of order",
			candidates: []models.AttendanceSchedule{
				schedule(2, &classID, at(5)),
				schedule(1, nil, at(1)),
			},
			expID: 2,
		},
		{
			name: "same specificity goes to earliest created",
			candidates: []models.AttendanceSchedule{
				schedule(7, nil, at(10)),
				schedule(3, nil, at(2)),
				schedule(5, nil, at(6)),
			},
			expID: 3,
		},
		{
			name: "equal timestamps break on lowest id",
			candidates: []models.AttendanceSchedule{
				schedule(9, &classID, at(4)),
				schedule(6, &classID, at(4)),
			},
			expID: 6,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveSchedule(tc.candidates)
			if tc.expID == 0 {
				if got != nil {
					t.Fatalf("expected nil, got schedule %d", got.ID)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected schedule %d, got nil", tc.expID)
			}
			if got.ID != tc.expID {
				t.Fatalf("expected schedule %d, got %d", tc.expID, got.ID)
			}
		})
	}
}

func TestQRStatus(t *testing.T) {
	tests := []struct {
		name     string
		scanAt   string
		status   string
		lateMins int
	}{
		{"before cutoff", "06:45", models.AttendanceStatusPresent, 0},
		{"at cutoff", "07:00", models.AttendanceStatusPresent, 0},
		{"twelve minutes past", "07:12", models.AttendanceStatusLate, 12},
		{"an hour past", "08:00", models.AttendanceStatusLate, 60},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h, m, err := parseHourMinute(tc.scanAt)
			if err != nil {
				t.Fatalf("bad test input: %v", err)
			}
			now := time.Date(2025, 9, 1, h, m, 0, 0, time.UTC)
			status, late := QRStatus("07:00", now)
			if status != tc.status || late != tc.lateMins {
				t.Fatalf("QRStatus(07:00, %s) = %s/%d, want %s/%d", tc.scanAt, status, late, tc.status, tc.lateMins)
			}
		})
	}
}

func TestQRScanDuplicateNamesStudent(t *testing.T) {
	ledger := newFakeLedger()
	console := &QRConsole{
		ledger: ledger,
		cutoff: "07:00",
		loc:    time.UTC,
		now:    func() time.Time { return time.Date(2025, 9, 1, 7, 12, 0, 0, time.UTC) },
	}
	student := testStudent()

	first, err := console.Scan(student)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Accepted || first.Status != models.AttendanceStatusLate || first.LateMinutes != 12 {
		t.Fatalf("expected accepted late scan with 12 minutes, got %+v", first)
	}

	second, err := console.Scan(student)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Accepted {
		t.Fatalf("expected duplicate scan rejection")
	}
	if second.Message == "" || !containsAll(second.Message, student.FirstName, student.LastName) {
		t.Fatalf("duplicate message must identify the student, got %q", second.Message)
	}
	if ledger.count() != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", ledger.count())
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
