package controllers

import (
	"sekolahku_go/database"
	"sekolahku_go/middleware"
	"sekolahku_go/models"
	"sekolahku_go/utils"

	"github.com/gofiber/fiber/v2"
)

// ClassController manages homeroom classes (admin only for writes).
type ClassController struct{}

type ClassRequest struct {
	Name     string `json:"name" validate:"required"`
	Grade    string `json:"grade"`
	Homeroom string `json:"homeroom"`
}

// GetClasses lists all active classes
func (cc *ClassController) GetClasses(c *fiber.Ctx) error {
	var classes []models.SchoolClass
	if err := database.DB.Where("active = ?", true).Order("grade ASC, name ASC").Find(&classes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch classes",
		})
	}
	return c.JSON(fiber.Map{"classes": classes, "total": len(classes)})
}

// GetClass returns one class with its students
func (cc *ClassController) GetClass(c *fiber.Ctx) error {
	id := c.Params("id")
	var class models.SchoolClass
	if err := database.DB.Preload("Students", "active = ?", true).First(&class, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}
	return c.JSON(fiber.Map{"class": class})
}

// CreateClass adds a new class
func (cc *ClassController) CreateClass(c *fiber.Ctx) error {
	var req ClassRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body, name is required",
		})
	}

	class := models.SchoolClass{
		Name:     utils.SanitizeString(req.Name),
		Grade:    req.Grade,
		Homeroom: req.Homeroom,
		Active:   true,
	}
	if err := database.DB.Create(&class).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A class with this name already exists",
		})
	}

	middleware.LogActivity(c, "CREATE", "classes", class.ID, fiber.Map{
		"name": class.Name,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Class created successfully",
		"class":   class,
	})
}

// UpdateClass edits an existing class
func (cc *ClassController) UpdateClass(c *fiber.Ctx) error {
	id := c.Params("id")
	var class models.SchoolClass
	if err := database.DB.First(&class, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	var req ClassRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != "" {
		class.Name = utils.SanitizeString(req.Name)
	}
	if req.Grade != "" {
		class.Grade = req.Grade
	}
	if req.Homeroom != "" {
		class.Homeroom = req.Homeroom
	}

	if err := database.DB.Save(&class).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update class",
		})
	}

	middleware.LogActivity(c, "UPDATE", "classes", class.ID, fiber.Map{
		"name": class.Name,
	})

	return c.JSON(fiber.Map{
		"message": "Class updated successfully",
		"class":   class,
	})
}
