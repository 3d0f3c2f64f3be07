package controllers

import (
	"time"

	"sekolahku_go/config"
	"sekolahku_go/database"
	"sekolahku_go/middleware"
	"sekolahku_go/models"
	"sekolahku_go/services"
	"sekolahku_go/services/attendance"
	wshub "sekolahku_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AttendanceController serves the student self-service attendance endpoints.
type AttendanceController struct {
	engine *attendance.Engine
	hub    *wshub.Hub
	line   *services.LineMessagingService
}

func NewAttendanceController(engine *attendance.Engine, hub *wshub.Hub) *AttendanceController {
	return &AttendanceController{
		engine: engine,
		hub:    hub,
		line:   services.NewLineMessagingService(),
	}
}

// CheckInRequest carries the device-reported position
type CheckInRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CheckIn records the student's morning check-in
func (ac *AttendanceController) CheckIn(c *fiber.Ctx) error {
	student, err := middleware.GetCurrentStudent(c)
	if err != nil {
		return err
	}

	var req CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := ac.engine.CheckIn(student, &attendance.Position{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		logrus.WithError(err).Error("Check-in failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process check-in",
		})
	}

	if !result.Accepted {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}

	middleware.LogActivity(c, "CREATE", "attendance", result.Record.ID, fiber.Map{
		"type":         "check_in",
		"status":       result.Status,
		"late_minutes": result.LateMinutes,
		"location":     result.LocationName,
	})
	ac.notify("check_in", student, result.LocationName, result.Status, result.LateMinutes, result.Timestamp)

	return c.JSON(result)
}

// CheckOut records the student's check-out at the end of the day
func (ac *AttendanceController) CheckOut(c *fiber.Ctx) error {
	student, err := middleware.GetCurrentStudent(c)
	if err != nil {
		return err
	}

	var req CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := ac.engine.CheckOut(student, &attendance.Position{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		logrus.WithError(err).Error("Check-out failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process check-out",
		})
	}

	if !result.Accepted {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}

	middleware.LogActivity(c, "UPDATE", "attendance", result.Record.ID, fiber.Map{
		"type":     "check_out",
		"location": result.LocationName,
	})
	ac.notify("check_out", student, result.LocationName, result.Status, 0, result.Timestamp)

	return c.JSON(result)
}

// TodayStatus reports the student's attendance state for today
func (ac *AttendanceController) TodayStatus(c *fiber.Ctx) error {
	student, err := middleware.GetCurrentStudent(c)
	if err != nil {
		return err
	}

	status, err := ac.engine.TodayStatus(student.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to load today's attendance status")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load attendance status",
		})
	}

	return c.JSON(status)
}

// GetHistory returns the student's own attendance history, newest first
func (ac *AttendanceController) GetHistory(c *fiber.Ctx) error {
	student, err := middleware.GetCurrentStudent(c)
	if err != nil {
		return err
	}
	return ac.historyFor(c, student.ID)
}

// GetStudentHistory returns any student's history (teacher/admin)
func (ac *AttendanceController) GetStudentHistory(c *fiber.Ctx) error {
	studentID, err := c.ParamsInt("id")
	if err != nil || studentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}
	return ac.historyFor(c, uint(studentID))
}

func (ac *AttendanceController) historyFor(c *fiber.Ctx, studentID uint) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var records []models.SelfAttendanceRecord
	query := database.DB.
		Preload("CheckInLocation").
		Preload("CheckOutLocation").
		Where("student_id = ?", studentID)
	if !from.IsZero() {
		query = query.Where("attendance_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("attendance_date <= ?", to)
	}
	if err := query.Order("attendance_date DESC").Limit(100).Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load attendance history",
		})
	}

	return c.JSON(fiber.Map{
		"student_id": studentID,
		"records":    records,
		"total":      len(records),
	})
}

// parseDateRange reads optional from/to query params as YYYY-MM-DD
func parseDateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	var from, to time.Time
	loc := config.AppConfig.Location()
	if v := c.Query("from"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
		}
		to = parsed
	}
	return from, to, nil
}

// notify pushes the event to the live staff feed and the parent's LINE
// account. Both are best-effort and never fail the request.
func (ac *AttendanceController) notify(eventType string, student *models.Student, locationName, status string, lateMinutes int, at time.Time) {
	studentName := student.FirstName + " " + student.LastName
	className := ""
	if student.Class != nil {
		className = student.Class.Name
	}

	if ac.hub != nil {
		ac.hub.BroadcastAttendanceEvent(wshub.AttendanceEvent{
			Type:         eventType,
			StudentID:    student.ID,
			StudentName:  studentName,
			ClassName:    className,
			LocationName: locationName,
			Status:       status,
			LateMinutes:  lateMinutes,
			Timestamp:    at,
		})
	}

	if ac.line != nil && student.ParentLineID != "" {
		go func() {
			var err error
			if eventType == "check_out" {
				err = ac.line.PushCheckOutMessage(student.ParentLineID, studentName, locationName, at)
			} else {
				err = ac.line.PushCheckInMessage(student.ParentLineID, studentName, locationName, at)
			}
			if err != nil {
				logrus.WithError(err).WithField("student_id", student.ID).
					Warn("Failed to push LINE notification")
			}
		}()
	}
}
