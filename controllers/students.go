package controllers

import (
	"sekolahku_go/database"
	"sekolahku_go/middleware"
	"sekolahku_go/models"
	"sekolahku_go/utils"

	"github.com/gofiber/fiber/v2"
)

// StudentController manages student profiles (teacher/admin).
type StudentController struct{}

type StudentRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	NISN         string `json:"nisn" validate:"required"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name"`
	Gender       string `json:"gender"`
	Address      string `json:"address"`
	ClassID      *uint  `json:"class_id"`
	ParentName   string `json:"parent_name"`
	ParentPhone  string `json:"parent_phone"`
	ParentLineID string `json:"parent_line_id"`
}

// GetStudents lists students, filterable by class and search term
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	query := database.DB.Preload("Class").Where("active = ?", true)

	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}
	if search := c.Query("search"); search != "" {
		term := "%" + search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR nisn LIKE ?", term, term, term)
	}

	var students []models.Student
	if err := query.Order("first_name ASC").Limit(200).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	return c.JSON(fiber.Map{"students": students, "total": len(students)})
}

// GetStudent returns one student by ID
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id := c.Params("id")
	var student models.Student
	if err := database.DB.Preload("Class").Preload("User").First(&student, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}
	return c.JSON(fiber.Map{"student": student})
}

// CreateStudent creates a student profile together with its login account
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.NISN == "" || req.FirstName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "NISN and first name are required",
		})
	}

	var existing models.Student
	if err := database.DB.Where("nisn = ?", req.NISN).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A student with this NISN already exists",
		})
	}

	username := req.Username
	if username == "" {
		username = req.NISN
	}
	password := req.Password
	if password == "" {
		generated, err := utils.GenerateRandomString(10)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate password",
			})
		}
		password = generated
	}
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := models.User{
		Username: username,
		Password: hashedPassword,
		Role:     "student",
		Status:   "active",
	}

	// Account and profile are created together or not at all.
	tx := database.DB.Begin()
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Username already exists",
		})
	}

	student := models.Student{
		UserID:       user.ID,
		NISN:         req.NISN,
		FirstName:    utils.SanitizeString(req.FirstName),
		LastName:     utils.SanitizeString(req.LastName),
		Gender:       req.Gender,
		Address:      req.Address,
		ClassID:      req.ClassID,
		ParentName:   req.ParentName,
		ParentPhone:  req.ParentPhone,
		ParentLineID: req.ParentLineID,
		Active:       true,
	}
	if err := tx.Create(&student).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create student",
		})
	}
	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create student",
		})
	}

	middleware.LogActivity(c, "CREATE", "students", student.ID, fiber.Map{
		"nisn": student.NISN,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// UpdateStudent edits a student profile
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id := c.Params("id")
	var student models.Student
	if err := database.DB.First(&student, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.FirstName != "" {
		student.FirstName = utils.SanitizeString(req.FirstName)
	}
	if req.LastName != "" {
		student.LastName = utils.SanitizeString(req.LastName)
	}
	if req.Gender != "" {
		student.Gender = req.Gender
	}
	if req.Address != "" {
		student.Address = req.Address
	}
	if req.ClassID != nil {
		student.ClassID = req.ClassID
	}
	if req.ParentName != "" {
		student.ParentName = req.ParentName
	}
	if req.ParentPhone != "" {
		student.ParentPhone = req.ParentPhone
	}
	if req.ParentLineID != "" {
		student.ParentLineID = req.ParentLineID
	}

	if err := database.DB.Save(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student",
		})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, fiber.Map{
		"nisn": student.NISN,
	})

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeactivateStudent disables a student and their login account
func (sc *StudentController) DeactivateStudent(c *fiber.Ctx) error {
	id := c.Params("id")
	var student models.Student
	if err := database.DB.First(&student, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	tx := database.DB.Begin()
	if err := tx.Model(&student).Update("active", false).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate student",
		})
	}
	if err := tx.Model(&models.User{}).Where("id = ?", student.UserID).
		Update("status", "inactive").Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate student",
		})
	}
	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate student",
		})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, fiber.Map{
		"action": "deactivate",
	})

	return c.JSON(fiber.Map{"message": "Student deactivated successfully"})
}
