package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler exposes administrator reports.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Dashboard GET /reports/dashboard?days=N.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.Dashboard(c.UserContext(), actor(c), queryInt(c, "days", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboard})
}

// Export GET /reports/export?type=tickets|audit&format=json|xlsx&start_date=&end_date=.
// Dates accept YYYY-MM-DD or RFC 3339.
func (h *ReportsHandler) Export(c *fiber.Ctx) error {
	fields := apperrors.FieldErrors{}
	start := parseDate(c.Query("start_date"), "start_date", fields)
	end := parseDate(c.Query("end_date"), "end_date", fields)
	format := c.Query("format", "json")
	if format != "json" && format != "xlsx" {
		fields.Add("format", "must be json or xlsx")
	}
	if err := fields.Err(); err != nil {
		return err
	}
	if !end.IsZero() && len(c.Query("end_date")) == len(time.DateOnly) {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	export, err := h.service.Export(c.UserContext(), actor(c), service.ExportQuery{
		Type:  c.Query("type"),
		Start: start,
		End:   end,
	})
	if err != nil {
		return err
	}
	if format == "json" {
		return c.JSON(fiber.Map{"data": export})
	}

	body, err := h.service.ExportXLSX(export)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment(service.ExportFilename(export, "xlsx"))
	return c.Send(body)
}

func parseDate(raw, field string, fields apperrors.FieldErrors) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	fields.Add(field, "must be YYYY-MM-DD or RFC 3339")
	return time.Time{}
}
