package controllers

import (
	"sekolahku_go/database"
	"sekolahku_go/middleware"
	"sekolahku_go/models"
	"sekolahku_go/utils"

	"github.com/gofiber/fiber/v2"
)

// LocationController manages the authorized check-in geofences (admin only).
// Locations are soft-disabled rather than deleted so historical attendance
// rows keep a valid reference.
type LocationController struct{}

type LocationRequest struct {
	Name         string  `json:"name" validate:"required"`
	Latitude     float64 `json:"latitude" validate:"required"`
	Longitude    float64 `json:"longitude" validate:"required"`
	RadiusMeters float64 `json:"radius_meters" validate:"required,gt=0"`
}

func (lr *LocationRequest) validate() string {
	if lr.Name == "" {
		return "Name is required"
	}
	if !utils.ValidCoordinate(lr.Latitude, lr.Longitude) {
		return "Latitude must be in [-90, 90] and longitude in [-180, 180]"
	}
	if lr.RadiusMeters <= 0 {
		return "Radius must be greater than zero"
	}
	return ""
}

// GetLocations returns all locations, active first
func (lc *LocationController) GetLocations(c *fiber.Ctx) error {
	var locations []models.AttendanceLocation
	if err := database.DB.Order("is_active DESC, name ASC").Find(&locations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch locations",
		})
	}
	return c.JSON(fiber.Map{"locations": locations, "total": len(locations)})
}

// GetLocation returns a single location by ID
func (lc *LocationController) GetLocation(c *fiber.Ctx) error {
	id := c.Params("id")
	var location models.AttendanceLocation
	if err := database.DB.First(&location, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Location not found",
		})
	}
	return c.JSON(fiber.Map{"location": location})
}

// CreateLocation adds a new geofenced check-in area
func (lc *LocationController) CreateLocation(c *fiber.Ctx) error {
	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	location := models.AttendanceLocation{
		Name:         utils.SanitizeString(req.Name),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		IsActive:     true,
	}

	if err := database.DB.Create(&location).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create location",
		})
	}

	middleware.LogActivity(c, "CREATE", "attendance_locations", location.ID, fiber.Map{
		"name": location.Name,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Location created successfully",
		"location": location,
	})
}

// UpdateLocation edits an existing location
func (lc *LocationController) UpdateLocation(c *fiber.Ctx) error {
	id := c.Params("id")
	var location models.AttendanceLocation
	if err := database.DB.First(&location, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Location not found",
		})
	}

	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	location.Name = utils.SanitizeString(req.Name)
	location.Latitude = req.Latitude
	location.Longitude = req.Longitude
	location.RadiusMeters = req.RadiusMeters

	if err := database.DB.Save(&location).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update location",
		})
	}

	middleware.LogActivity(c, "UPDATE", "attendance_locations", location.ID, fiber.Map{
		"name": location.Name,
	})

	return c.JSON(fiber.Map{
		"message":  "Location updated successfully",
		"location": location,
	})
}

// ToggleLocation enables or disables a location for new check-ins.
// Disabled locations stay in the database.
func (lc *LocationController) ToggleLocation(c *fiber.Ctx) error {
	id := c.Params("id")
	var location models.AttendanceLocation
	if err := database.DB.First(&location, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Location not found",
		})
	}

	location.IsActive = !location.IsActive
	if err := database.DB.Save(&location).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update location",
		})
	}

	middleware.LogActivity(c, "UPDATE", "attendance_locations", location.ID, fiber.Map{
		"is_active": location.IsActive,
	})

	return c.JSON(fiber.Map{
		"message":  "Location updated successfully",
		"location": location,
	})
}
