package controllers

import (
	"context"
	"time"

	"sekolahku_go/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct{}

// HealthCheck reports database and redis connectivity
func (hc *HealthController) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	checks := fiber.Map{}

	dbStatus := "ok"
	if database.DB == nil {
		dbStatus = "unavailable"
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unreachable"
	}
	if dbStatus != "ok" {
		status = "degraded"
	}
	checks["database"] = dbStatus

	redisStatus := "ok"
	if rdb := database.GetRedisClient(); rdb == nil {
		redisStatus = "unavailable"
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "unreachable"
		}
	}
	// Redis is optional; the violation outbox falls back to direct writes.
	checks["redis"] = redisStatus

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}
