package controllers

import (
	"time"

	"sekolahku_go/database"
	"sekolahku_go/middleware"
	"sekolahku_go/models"

	"github.com/gofiber/fiber/v2"
)

// ViolationController is the student-affairs read side of the violation
// outbox (teacher/admin).
type ViolationController struct{}

// GetViolations lists violations, filterable by status and student
func (vc *ViolationController) GetViolations(c *fiber.Ctx) error {
	query := database.DB.Preload("Student").Preload("Student.Class")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}

	var violations []models.Violation
	if err := query.Order("created_at DESC").Limit(200).Find(&violations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch violations",
		})
	}

	return c.JSON(fiber.Map{"violations": violations, "total": len(violations)})
}

// ResolveViolation closes a violation with optional notes
func (vc *ViolationController) ResolveViolation(c *fiber.Ctx) error {
	id := c.Params("id")
	var violation models.Violation
	if err := database.DB.First(&violation, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Violation not found",
		})
	}

	if violation.Status != "open" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Violation is already closed",
		})
	}

	var req struct {
		Status string `json:"status" validate:"required"` // resolved or dismissed
		Notes  string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Status != "resolved" && req.Status != "dismissed" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Status must be 'resolved' or 'dismissed'",
		})
	}

	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	now := time.Now()
	violation.Status = req.Status
	violation.ResolvedBy = &user.ID
	violation.ResolvedAt = &now
	if req.Notes != "" {
		violation.Notes = req.Notes
	}

	if err := database.DB.Save(&violation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update violation",
		})
	}

	middleware.LogActivity(c, "UPDATE", "violations", violation.ID, fiber.Map{
		"status": violation.Status,
	})

	return c.JSON(fiber.Map{
		"message":   "Violation updated successfully",
		"violation": violation,
	})
}
