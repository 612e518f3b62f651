package report

import (
	"fmt"
	"time"

	"marketplace-booking/logger"
	reportSvc "marketplace-booking/services/report"
	"marketplace-booking/types"
	reportTypes "marketplace-booking/types/report"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
)

// ReportController serves the admin fee and KYC reports in JSON, CSV and
// HTML form.
type ReportController struct {
	Reports *reportSvc.Service
	Logger  *logger.AsyncLogger
}

func NewReportController(reports *reportSvc.Service, asyncLogger *logger.AsyncLogger) *ReportController {
	return &ReportController{Reports: reports, Logger: asyncLogger}
}

// Fees renders the fee report for a date range. Defaults to the current
// month, daily granularity, JSON format.
func (rc *ReportController) Fees(c *fiber.Ctx) error {
	q := reportTypes.FeesQuery{
		From:        c.Query("from"),
		To:          c.Query("to"),
		Granularity: c.Query("granularity", "daily"),
		Format:      c.Query("format", "json"),
	}

	if err := q.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: err.Error(),
			Data:    nil,
		})
	}

	from := now.BeginningOfMonth()
	to := now.EndOfMonth()
	if q.From != "" {
		parsed, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
				Status:  fiber.StatusUnprocessableEntity,
				Message: "from must be formatted as YYYY-MM-DD",
				Data:    nil,
			})
		}
		from = now.With(parsed).BeginningOfDay()
	}
	if q.To != "" {
		parsed, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
				Status:  fiber.StatusUnprocessableEntity,
				Message: "to must be formatted as YYYY-MM-DD",
				Data:    nil,
			})
		}
		to = now.With(parsed).EndOfDay()
	}
	if to.Before(from) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: "to must not be before from",
			Data:    nil,
		})
	}

	rows, err := rc.Reports.FeesReport(c.Context(), from, to, q.Granularity)
	if err != nil {
		logger.Error("Failed to build fee report", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to build report",
			Data:    nil,
		})
	}

	switch q.Format {
	case "csv":
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename=%q`, reportSvc.Filename("fees", "csv")))
		return c.SendString(reportSvc.FeesCSV(rows))
	case "html":
		html, err := reportSvc.FeesHTML(rows)
		if err != nil {
			logger.Error("Failed to render fee report html", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Failed to render report",
				Data:    nil,
			})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(html)
	default:
		return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "Fee report built successfully",
			Data: map[string]interface{}{
				"from":        from.Format("2006-01-02"),
				"to":          to.Format("2006-01-02"),
				"granularity": q.Granularity,
				"rows":        rows,
			},
		})
	}
}

// KYC renders the provider verification overview.
func (rc *ReportController) KYC(c *fiber.Ctx) error {
	format := c.Query("format", "json")
	switch format {
	case "json", "csv":
	default:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: "format must be json or csv",
			Data:    nil,
		})
	}

	rows, err := rc.Reports.KYCReport(c.Context())
	if err != nil {
		logger.Error("Failed to build kyc report", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to build report",
			Data:    nil,
		})
	}

	if format == "csv" {
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename=%q`, reportSvc.Filename("kyc", "csv")))
		return c.SendString(reportSvc.KYCCSV(rows))
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "KYC report built successfully",
		Data:    rows,
	})
}
