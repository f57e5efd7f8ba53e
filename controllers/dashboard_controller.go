package controller

import (
	"taskmanager/services"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	Dashboard *services.DashboardService
}

func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{Dashboard: dashboard}
}

// GetDashboardData returns organisation-wide statistics for admins.
func (dc *DashboardController) GetDashboardData(c *fiber.Ctx) error {
	summary, err := dc.Dashboard.AdminSummary(c.UserContext(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetUserDashboardData returns the same statistics scoped to the caller's tasks.
func (dc *DashboardController) GetUserDashboardData(c *fiber.Ctx) error {
	summary, err := dc.Dashboard.UserSummary(c.UserContext(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (dc *DashboardController) GetTasks(c *fiber.Ctx) error {
	list, err := dc.Dashboard.ListTasks(c.UserContext(), requester(c), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
