package routes

import (
	"sekolahku_go/config"
	"sekolahku_go/controllers"
	"sekolahku_go/database"
	"sekolahku_go/middleware"
	"sekolahku_go/services"
	"sekolahku_go/services/attendance"
	"sekolahku_go/services/violations"
	wshub "sekolahku_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *wshub.Hub, violationSink *violations.Service) {
	loc := config.AppConfig.Location()
	engine := attendance.NewEngine(database.DB, violationSink, loc)
	console := attendance.NewQRConsole(database.DB, config.AppConfig.QRCutoffTime, loc)

	authController := &controllers.AuthController{}
	attendanceController := controllers.NewAttendanceController(engine, wsHub)
	qrController := controllers.NewQRConsoleController(console, wsHub)
	locationController := &controllers.LocationController{}
	scheduleController := &controllers.AttendanceScheduleController{}
	violationController := &controllers.ViolationController{}
	studentController := &controllers.StudentController{}
	classController := &controllers.ClassController{}
	notificationController := &controllers.NotificationController{}
	reportController := controllers.NewReportController(services.NewReportService(), services.NewLedgerArchiveService())
	wsController := controllers.NewWebSocketController(wsHub)
	healthController := &controllers.HealthController{}

	app.Get("/health", healthController.HealthCheck)

	api := app.Group("/api")

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	protected.Post("/auth/logout", authController.Logout)
	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)

	// Self-service attendance (students)
	att := protected.Group("/attendance")
	att.Post("/check-in", middleware.RequireRole("student"), attendanceController.CheckIn)
	att.Post("/check-out", middleware.RequireRole("student"), attendanceController.CheckOut)
	att.Get("/today", middleware.RequireRole("student"), attendanceController.TodayStatus)
	att.Get("/history", middleware.RequireRole("student"), attendanceController.GetHistory)
	att.Get("/students/:id/history", middleware.RequireTeacherOrAdmin(), attendanceController.GetStudentHistory)

	// Operator QR console (staff at the gate)
	protected.Post("/qr-console/scan", middleware.RequireTeacherOrAdmin(), qrController.Scan)

	// Geofenced location management
	locations := protected.Group("/locations")
	locations.Get("/", middleware.RequireTeacherOrAdmin(), locationController.GetLocations)
	locations.Get("/:id", middleware.RequireTeacherOrAdmin(), locationController.GetLocation)
	locations.Post("/", middleware.RequireAdmin(), locationController.CreateLocation)
	locations.Put("/:id", middleware.RequireAdmin(), locationController.UpdateLocation)
	locations.Patch("/:id/toggle", middleware.RequireAdmin(), locationController.ToggleLocation)

	// Attendance window schedules
	schedules := protected.Group("/attendance-schedules")
	schedules.Get("/", middleware.RequireTeacherOrAdmin(), scheduleController.GetSchedules)
	schedules.Post("/", middleware.RequireAdmin(), scheduleController.CreateSchedule)
	schedules.Put("/:id", middleware.RequireAdmin(), scheduleController.UpdateSchedule)
	schedules.Patch("/:id/toggle", middleware.RequireAdmin(), scheduleController.ToggleSchedule)
	schedules.Delete("/:id", middleware.RequireAdmin(), scheduleController.DeleteSchedule)

	// Violations (student affairs)
	viol := protected.Group("/violations", middleware.RequireTeacherOrAdmin())
	viol.Get("/", violationController.GetViolations)
	viol.Put("/:id/resolve", violationController.ResolveViolation)

	// Student management
	students := protected.Group("/students", middleware.RequireTeacherOrAdmin())
	students.Get("/", studentController.GetStudents)
	students.Get("/:id", studentController.GetStudent)
	students.Post("/", studentController.CreateStudent)
	students.Put("/:id", studentController.UpdateStudent)
	students.Delete("/:id", middleware.RequireAdmin(), studentController.DeactivateStudent)

	// Class management
	classes := protected.Group("/classes")
	classes.Get("/", classController.GetClasses)
	classes.Get("/:id", middleware.RequireTeacherOrAdmin(), classController.GetClass)
	classes.Post("/", middleware.RequireAdmin(), classController.CreateClass)
	classes.Put("/:id", middleware.RequireAdmin(), classController.UpdateClass)

	// User management (admin)
	users := protected.Group("/users", middleware.RequireAdmin())
	users.Post("/", authController.Register)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)
	notifications.Patch("/read-all", notificationController.MarkAllAsRead)

	// Reports and archives
	reports := protected.Group("/reports", middleware.RequireTeacherOrAdmin())
	reports.Get("/daily", reportController.GetDailyReport)
	reports.Get("/monthly/download", reportController.DownloadMonthlyReport)
	reports.Post("/monthly/export", middleware.RequireAdmin(), reportController.ExportMonthlyReport)
	reports.Get("/archives", middleware.RequireAdmin(), reportController.GetArchives)

	// WebSocket live feed, JWT passed as query parameter
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
	api.Get("/ws/stats", middleware.JWTMiddleware(), middleware.RequireAdmin(), wsController.GetWebSocketStats)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
