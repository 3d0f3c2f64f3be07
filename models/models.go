package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// User model
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255"`
	Phone    string `json:"phone" gorm:"size:20"`
	Role     string `json:"role" gorm:"size:50;not null;default:'student';type:enum('admin','teacher','student')"` // admin, teacher, student
	Status   string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"`
	Avatar   string `json:"avatar" gorm:"size:500"`

	// Relationships
	Student *Student `json:"student,omitempty" gorm:"foreignKey:UserID"`
}

// SchoolClass model (homeroom class, e.g. "X IPA 1")
type SchoolClass struct {
	BaseModel
	Name     string `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Grade    string `json:"grade" gorm:"size:50"`
	Homeroom string `json:"homeroom" gorm:"size:200"` // homeroom teacher name
	Active   bool   `json:"active" gorm:"default:true"`

	// Relationships
	Students []Student `json:"students,omitempty" gorm:"foreignKey:ClassID"`
}

// Student model
type Student struct {
	BaseModel
	UserID       uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	NISN         string     `json:"nisn" gorm:"size:20;uniqueIndex"` // national student number, also the QR code payload
	FirstName    string     `json:"first_name" gorm:"size:100"`
	LastName     string     `json:"last_name" gorm:"size:100"`
	Gender       string     `json:"gender" gorm:"size:20"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	Address      string     `json:"address" gorm:"size:500"`
	ClassID      *uint      `json:"class_id" gorm:"index"`
	ParentName   string     `json:"parent_name" gorm:"size:200"`
	ParentPhone  string     `json:"parent_phone" gorm:"size:20"`
	ParentLineID string     `json:"parent_line_id" gorm:"size:100"` // LINE user id for check-in push messages
	Active       bool       `json:"active" gorm:"default:true"`

	// Relationships
	User  User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Class *SchoolClass `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

// AttendanceLocation is an authorized geofenced check-in area.
// Locations referenced by attendance rows are soft-disabled, never deleted.
type AttendanceLocation struct {
	BaseModel
	Name         string  `json:"name" gorm:"size:255;not null"`
	Latitude     float64 `json:"latitude" gorm:"not null"`
	Longitude    float64 `json:"longitude" gorm:"not null"`
	RadiusMeters float64 `json:"radius_meters" gorm:"not null"`
	IsActive     bool    `json:"is_active" gorm:"default:true"`
}

// AttendanceSchedule defines the check-in/check-out windows for one day of
// the week. ClassID nil means the schedule applies to every class.
// Times are local wall-clock "HH:MM" strings, start <= end on the same day.
type AttendanceSchedule struct {
	BaseModel
	Name                 string `json:"name" gorm:"size:255;not null"`
	DayOfWeek            int    `json:"day_of_week" gorm:"not null;index"` // 1 = Monday ... 7 = Sunday
	ClassID              *uint  `json:"class_id" gorm:"index"`
	CheckInStart         string `json:"check_in_start" gorm:"size:5;not null"`
	CheckInEnd           string `json:"check_in_end" gorm:"size:5;not null"`
	CheckOutStart        string `json:"check_out_start" gorm:"size:5;not null"`
	CheckOutEnd          string `json:"check_out_end" gorm:"size:5;not null"`
	LateThresholdMinutes int    `json:"late_threshold_minutes" gorm:"default:0"`
	IsActive             bool   `json:"is_active" gorm:"default:true"`

	// Relationships
	Class *SchoolClass `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

// Attendance record statuses and methods
const (
	AttendanceStatusPresent = "present"
	AttendanceStatusLate    = "late"

	AttendanceMethodSelf = "self"
	AttendanceMethodQR   = "qr"
)

// SelfAttendanceRecord is the attendance ledger: exactly one row per
// (student, calendar date), enforced by a composite unique index so that
// concurrent check-ins cannot both insert. Rows are created by the first
// accepted check-in, mutated once by the matching check-out and never
// deleted.
type SelfAttendanceRecord struct {
	BaseModel
	StudentID      uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_student_date,priority:1"`
	AttendanceDate time.Time `json:"attendance_date" gorm:"type:date;not null;uniqueIndex:idx_student_date,priority:2"`

	CheckInTime       *time.Time `json:"check_in_time"`
	CheckInLatitude   *float64   `json:"check_in_latitude"`
	CheckInLongitude  *float64   `json:"check_in_longitude"`
	CheckInLocationID *uint      `json:"check_in_location_id"`

	CheckOutTime       *time.Time `json:"check_out_time"`
	CheckOutLatitude   *float64   `json:"check_out_latitude"`
	CheckOutLongitude  *float64   `json:"check_out_longitude"`
	CheckOutLocationID *uint      `json:"check_out_location_id"`

	Status           string `json:"status" gorm:"size:20;not null;default:'present';type:enum('present','late')"`
	LateMinutes      int    `json:"late_minutes" gorm:"default:0"`
	Method           string `json:"method" gorm:"size:20;not null;default:'self';type:enum('self','qr')"`
	ViolationCreated bool   `json:"violation_created" gorm:"default:false"`

	// Relationships
	Student          Student             `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	CheckInLocation  *AttendanceLocation `json:"check_in_location,omitempty" gorm:"foreignKey:CheckInLocationID"`
	CheckOutLocation *AttendanceLocation `json:"check_out_location,omitempty" gorm:"foreignKey:CheckOutLocationID"`
}

// Violation model. Late-attendance violations are written asynchronously by
// the outbox worker; student-affairs staff resolve them later.
type Violation struct {
	BaseModel
	StudentID   uint       `json:"student_id" gorm:"not null;index"`
	Kind        string     `json:"kind" gorm:"size:100;not null"` // e.g. late_attendance
	MinutesLate int        `json:"minutes_late" gorm:"default:0"`
	Notes       string     `json:"notes" gorm:"type:text"`
	Status      string     `json:"status" gorm:"size:50;not null;default:'open';type:enum('open','resolved','dismissed')"`
	ResolvedBy  *uint      `json:"resolved_by"`
	ResolvedAt  *time.Time `json:"resolved_at"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model (in-app, used by the nightly summary job)
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"`
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// AttendanceArchive tracks monthly ledger exports uploaded to S3
type AttendanceArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"`
	Error       string    `json:"error" gorm:"type:text"`
}
