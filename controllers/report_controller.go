package controller

import (
	"context"
	"fmt"

	"taskmanager/services"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	Reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{Reports: reports}
}

func (rc *ReportController) ExportTasksReport(c *fiber.Ctx) error {
	return rc.send(c, rc.Reports.ExportTasks)
}

func (rc *ReportController) ExportUsersReport(c *fiber.Ctx) error {
	return rc.send(c, rc.Reports.ExportUsers)
}

func (rc *ReportController) send(c *fiber.Ctx, export func(context.Context, services.Requester) (*services.Report, error)) error {
	report, err := export(c.UserContext(), requester(c))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, services.SpreadsheetContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", report.Filename))
	return c.Send(report.Content)
}
