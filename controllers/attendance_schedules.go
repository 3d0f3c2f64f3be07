package controllers

import (
	"sekolahku_go/database"
	"sekolahku_go/middleware"
	"sekolahku_go/models"
	"sekolahku_go/services/attendance"

	"github.com/gofiber/fiber/v2"
)

// AttendanceScheduleController manages per-day check-in/check-out windows
// (admin only).
type AttendanceScheduleController struct{}

type ScheduleRequest struct {
	Name                 string `json:"name" validate:"required"`
	DayOfWeek            int    `json:"day_of_week" validate:"required,min=1,max=7"`
	ClassID              *uint  `json:"class_id"`
	CheckInStart         string `json:"check_in_start" validate:"required"`
	CheckInEnd           string `json:"check_in_end" validate:"required"`
	CheckOutStart        string `json:"check_out_start" validate:"required"`
	CheckOutEnd          string `json:"check_out_end" validate:"required"`
	LateThresholdMinutes int    `json:"late_threshold_minutes"`
}

func (sr *ScheduleRequest) toModel() models.AttendanceSchedule {
	return models.AttendanceSchedule{
		Name:                 sr.Name,
		DayOfWeek:            sr.DayOfWeek,
		ClassID:              sr.ClassID,
		CheckInStart:         sr.CheckInStart,
		CheckInEnd:           sr.CheckInEnd,
		CheckOutStart:        sr.CheckOutStart,
		CheckOutEnd:          sr.CheckOutEnd,
		LateThresholdMinutes: sr.LateThresholdMinutes,
		IsActive:             true,
	}
}

// GetSchedules returns all attendance schedules ordered by day
func (sc *AttendanceScheduleController) GetSchedules(c *fiber.Ctx) error {
	var schedules []models.AttendanceSchedule
	if err := database.DB.Preload("Class").
		Order("day_of_week ASC, class_id IS NULL, check_in_start ASC").
		Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schedules",
		})
	}
	return c.JSON(fiber.Map{"schedules": schedules, "total": len(schedules)})
}

// CreateSchedule adds a new attendance window definition
func (sc *AttendanceScheduleController) CreateSchedule(c *fiber.Ctx) error {
	var req ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	schedule := req.toModel()
	if err := attendance.ValidateSchedule(&schedule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if schedule.ClassID != nil {
		var class models.SchoolClass
		if err := database.DB.First(&class, *schedule.ClassID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Class not found",
			})
		}
	}

	if err := database.DB.Create(&schedule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create schedule",
		})
	}

	middleware.LogActivity(c, "CREATE", "attendance_schedules", schedule.ID, fiber.Map{
		"name":        schedule.Name,
		"day_of_week": schedule.DayOfWeek,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Schedule created successfully",
		"schedule": schedule,
	})
}

// UpdateSchedule edits an existing attendance window definition
func (sc *AttendanceScheduleController) UpdateSchedule(c *fiber.Ctx) error {
	id := c.Params("id")
	var schedule models.AttendanceSchedule
	if err := database.DB.First(&schedule, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Schedule not found",
		})
	}

	var req ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated := req.toModel()
	if err := attendance.ValidateSchedule(&updated); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	schedule.Name = updated.Name
	schedule.DayOfWeek = updated.DayOfWeek
	schedule.ClassID = updated.ClassID
	schedule.CheckInStart = updated.CheckInStart
	schedule.CheckInEnd = updated.CheckInEnd
	schedule.CheckOutStart = updated.CheckOutStart
	schedule.CheckOutEnd = updated.CheckOutEnd
	schedule.LateThresholdMinutes = updated.LateThresholdMinutes

	if err := database.DB.Save(&schedule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update schedule",
		})
	}

	middleware.LogActivity(c, "UPDATE", "attendance_schedules", schedule.ID, fiber.Map{
		"name": schedule.Name,
	})

	return c.JSON(fiber.Map{
		"message":  "Schedule updated successfully",
		"schedule": schedule,
	})
}

// ToggleSchedule enables or disables a schedule
func (sc *AttendanceScheduleController) ToggleSchedule(c *fiber.Ctx) error {
	id := c.Params("id")
	var schedule models.AttendanceSchedule
	if err := database.DB.First(&schedule, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Schedule not found",
		})
	}

	schedule.IsActive = !schedule.IsActive
	if err := database.DB.Save(&schedule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update schedule",
		})
	}

	middleware.LogActivity(c, "UPDATE", "attendance_schedules", schedule.ID, fiber.Map{
		"is_active": schedule.IsActive,
	})

	return c.JSON(fiber.Map{
		"message":  "Schedule updated successfully",
		"schedule": schedule,
	})
}

// DeleteSchedule soft-deletes a schedule definition
func (sc *AttendanceScheduleController) DeleteSchedule(c *fiber.Ctx) error {
	id := c.Params("id")
	var schedule models.AttendanceSchedule
	if err := database.DB.First(&schedule, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Schedule not found",
		})
	}

	if err := database.DB.Delete(&schedule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete schedule",
		})
	}

	middleware.LogActivity(c, "DELETE", "attendance_schedules", schedule.ID, fiber.Map{
		"name": schedule.Name,
	})

	return c.JSON(fiber.Map{"message": "Schedule deleted successfully"})
}
