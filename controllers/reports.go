package controllers

import (
	"fmt"
	"time"

	"sekolahku_go/config"
	"sekolahku_go/middleware"
	"sekolahku_go/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ReportController serves attendance reports for staff (teacher/admin).
type ReportController struct {
	reports *services.ReportService
	archive *services.LedgerArchiveService
}

func NewReportController(reports *services.ReportService, archive *services.LedgerArchiveService) *ReportController {
	return &ReportController{reports: reports, archive: archive}
}

// GetDailyReport returns the attendance roll for one day (default today)
func (rc *ReportController) GetDailyReport(c *fiber.Ctx) error {
	loc := config.AppConfig.Location()
	date := time.Now().In(loc)
	if v := c.Query("date"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid date, expected YYYY-MM-DD",
			})
		}
		date = parsed
	}

	rows, err := rc.reports.DailyReport(date)
	if err != nil {
		logrus.WithError(err).Error("Failed to build daily report")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build report",
		})
	}

	return c.JSON(fiber.Map{
		"date":    date.Format("2006-01-02"),
		"rows":    rows,
		"total":   len(rows),
	})
}

// DownloadMonthlyReport streams the month's attendance as an Excel file
func (rc *ReportController) DownloadMonthlyReport(c *fiber.Ctx) error {
	year, month, ok := parseYearMonth(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid year/month",
		})
	}

	workbook, err := rc.reports.BuildMonthlyWorkbook(year, month, config.AppConfig.Location())
	if err != nil {
		logrus.WithError(err).Error("Failed to build monthly workbook")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build report",
		})
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render report",
		})
	}

	fileName := fmt.Sprintf("attendance_%04d_%02d.xlsx", year, int(month))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	return c.Send(buf.Bytes())
}

// ExportMonthlyReport uploads the month's Excel report to S3 and returns the URL
func (rc *ReportController) ExportMonthlyReport(c *fiber.Ctx) error {
	year, month, ok := parseYearMonth(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid year/month",
		})
	}

	url, err := rc.reports.ExportMonthlyToS3(year, month, config.AppConfig.Location())
	if err != nil {
		logrus.WithError(err).Error("Failed to export monthly report to S3")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export report",
		})
	}

	middleware.LogActivity(c, "CREATE", "reports", 0, fiber.Map{
		"year":  year,
		"month": int(month),
		"url":   url,
	})

	return c.JSON(fiber.Map{
		"message": "Report exported successfully",
		"url":     url,
	})
}

// GetArchives lists completed ledger exports (admin only)
func (rc *ReportController) GetArchives(c *fiber.Ctx) error {
	archives, err := rc.archive.GetArchives()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch archives",
		})
	}
	return c.JSON(fiber.Map{"archives": archives, "total": len(archives)})
}

func parseYearMonth(c *fiber.Ctx) (int, time.Month, bool) {
	now := time.Now().In(config.AppConfig.Location())
	year := c.QueryInt("year", now.Year())
	month := c.QueryInt("month", int(now.Month()))
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}
