package controllers

import (
	"sekolahku_go/database"
	"sekolahku_go/middleware"
	"sekolahku_go/models"
	"sekolahku_go/services/attendance"
	wshub "sekolahku_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// QRConsoleController serves the staff-operated gate scanner. Operators are
// teachers or admins; the scanned QR payload is the student's NISN.
type QRConsoleController struct {
	console *attendance.QRConsole
	hub     *wshub.Hub
}

func NewQRConsoleController(console *attendance.QRConsole, hub *wshub.Hub) *QRConsoleController {
	return &QRConsoleController{console: console, hub: hub}
}

type ScanRequest struct {
	NISN string `json:"nisn" validate:"required"`
}

// Scan records attendance for the scanned student
func (qc *QRConsoleController) Scan(c *fiber.Ctx) error {
	var req ScanRequest
	if err := c.BodyParser(&req); err != nil || req.NISN == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body, nisn is required",
		})
	}

	var student models.Student
	if err := database.DB.Preload("Class").
		Where("nisn = ? AND active = ?", req.NISN, true).
		First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found for scanned code",
		})
	}

	result, err := qc.console.Scan(&student)
	if err != nil {
		logrus.WithError(err).WithField("nisn", req.NISN).Error("QR scan failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process scan",
		})
	}

	if !result.Accepted {
		return c.Status(fiber.StatusConflict).JSON(result)
	}

	middleware.LogActivity(c, "CREATE", "attendance", result.Record.ID, fiber.Map{
		"type":         "qr_scan",
		"nisn":         req.NISN,
		"status":       result.Status,
		"late_minutes": result.LateMinutes,
	})

	if qc.hub != nil {
		className := ""
		if student.Class != nil {
			className = student.Class.Name
		}
		qc.hub.BroadcastAttendanceEvent(wshub.AttendanceEvent{
			Type:        "qr_scan",
			StudentID:   student.ID,
			StudentName: student.FirstName + " " + student.LastName,
			ClassName:   className,
			Status:      result.Status,
			LateMinutes: result.LateMinutes,
			Timestamp:   result.Timestamp,
		})
	}

	return c.JSON(fiber.Map{
		"message":      "Attendance recorded",
		"student_name": student.FirstName + " " + student.LastName,
		"result":       result,
	})
}
