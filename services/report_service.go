package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"sekolahku_go/database"
	"sekolahku_go/models"
	"sekolahku_go/storage"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ReportService builds attendance reports for administrators.
type ReportService struct {
	db *gorm.DB
}

func NewReportService() *ReportService {
	return &ReportService{db: database.DB}
}

// DailyReportRow is one line of the daily report.
type DailyReportRow struct {
	StudentID   uint       `json:"student_id"`
	StudentName string     `json:"student_name"`
	ClassName   string     `json:"class_name"`
	CheckIn     *time.Time `json:"check_in"`
	CheckOut    *time.Time `json:"check_out"`
	Status      string     `json:"status"`
	LateMinutes int        `json:"late_minutes"`
	Method      string     `json:"method"`
}

// DailyReport lists every ledger row for one calendar date.
func (rs *ReportService) DailyReport(date time.Time) ([]DailyReportRow, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var records []models.SelfAttendanceRecord
	if err := rs.db.Preload("Student").Preload("Student.Class").
		Where("attendance_date = ?", day).
		Order("check_in_time ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	rows := make([]DailyReportRow, 0, len(records))
	for _, rec := range records {
		row := DailyReportRow{
			StudentID:   rec.StudentID,
			StudentName: rec.Student.FirstName + " " + rec.Student.LastName,
			CheckIn:     rec.CheckInTime,
			CheckOut:    rec.CheckOutTime,
			Status:      rec.Status,
			LateMinutes: rec.LateMinutes,
			Method:      rec.Method,
		}
		if rec.Student.Class != nil {
			row.ClassName = rec.Student.Class.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// BuildMonthlyWorkbook renders one month of the ledger into an Excel
// workbook, one row per attendance record.
func (rs *ReportService) BuildMonthlyWorkbook(year int, month time.Month, loc *time.Location) (*excelize.File, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	var records []models.SelfAttendanceRecord
	if err := rs.db.Preload("Student").Preload("Student.Class").Preload("CheckInLocation").
		Where("attendance_date >= ? AND attendance_date < ?", start, end).
		Order("attendance_date ASC, check_in_time ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Attendance"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "NISN", "Student", "Class", "Check In", "Check Out", "Location", "Status", "Late (min)", "Method"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		row := i + 2
		values := []interface{}{
			rec.AttendanceDate.Format("2006-01-02"),
			rec.Student.NISN,
			rec.Student.FirstName + " " + rec.Student.LastName,
			"",
			formatTime(rec.CheckInTime),
			formatTime(rec.CheckOutTime),
			"",
			rec.Status,
			rec.LateMinutes,
			rec.Method,
		}
		if rec.Student.Class != nil {
			values[3] = rec.Student.Class.Name
		}
		if rec.CheckInLocation != nil {
			values[6] = rec.CheckInLocation.Name
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f, nil
}

// ExportMonthlyToS3 builds the monthly workbook and uploads it, returning
// the public URL.
func (rs *ReportService) ExportMonthlyToS3(year int, month time.Month, loc *time.Location) (string, error) {
	f, err := rs.BuildMonthlyWorkbook(year, month, loc)
	if err != nil {
		return "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("failed to serialize workbook: %v", err)
	}

	storageService, err := storage.NewStorageService()
	if err != nil {
		return "", err
	}

	url, err := storageService.UploadReport(buf.Bytes(), "xlsx")
	if err != nil {
		return "", err
	}

	logrus.WithField("url", url).Info("Monthly attendance report uploaded")
	return url, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04:05")
}
