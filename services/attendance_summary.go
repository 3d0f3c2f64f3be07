package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"sekolahku_go/config"
	"sekolahku_go/database"
	"sekolahku_go/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// AttendanceSummaryScheduler posts a nightly recap of the day's ledger to
// every admin as an in-app notification.
type AttendanceSummaryScheduler struct {
	db   *gorm.DB
	cron *cron.Cron
}

// NewAttendanceSummaryScheduler creates the scheduler in the institutional
// timezone so "end of day" means the school's day, not the server's.
func NewAttendanceSummaryScheduler() *AttendanceSummaryScheduler {
	return &AttendanceSummaryScheduler{
		db:   database.DB,
		cron: cron.New(cron.WithLocation(config.AppConfig.Location())),
	}
}

// Start registers the nightly job (21:00 local) and launches the cron loop.
func (s *AttendanceSummaryScheduler) Start() {
	_, err := s.cron.AddFunc("0 21 * * *", func() {
		if err := s.SummarizeDay(time.Now().In(config.AppConfig.Location())); err != nil {
			logrus.WithError(err).Error("Nightly attendance summary failed")
		}
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to register attendance summary job")
		return
	}
	s.cron.Start()
	logrus.Info("Attendance summary scheduler started")
}

// Stop halts the cron loop.
func (s *AttendanceSummaryScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// SummarizeDay counts the day's ledger rows and notifies admins.
func (s *AttendanceSummaryScheduler) SummarizeDay(day time.Time) error {
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	var total, late, checkedOut int64
	if err := s.db.Model(&models.SelfAttendanceRecord{}).
		Where("attendance_date = ?", date).
		Count(&total).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.SelfAttendanceRecord{}).
		Where("attendance_date = ? AND status = ?", date, models.AttendanceStatusLate).
		Count(&late).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.SelfAttendanceRecord{}).
		Where("attendance_date = ? AND check_out_time IS NOT NULL", date).
		Count(&checkedOut).Error; err != nil {
		return err
	}

	var admins []models.User
	if err := s.db.Where("role = ? AND status = ?", "admin", "active").Find(&admins).Error; err != nil {
		return err
	}

	message := fmt.Sprintf("Attendance %s: %d checked in (%d late), %d checked out",
		date.Format("2006-01-02"), total, late, checkedOut)

	notifs := make([]models.Notification, 0, len(admins))
	for _, admin := range admins {
		notifs = append(notifs, models.Notification{
			UserID:  admin.ID,
			Title:   "Daily attendance summary",
			Message: message,
			Type:    "info",
		})
	}
	if len(notifs) == 0 {
		return nil
	}
	return s.db.Create(&notifs).Error
}
