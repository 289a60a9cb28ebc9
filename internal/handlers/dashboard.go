package handlers

import (
	"sitex/internal/services/dashboard"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService dashboard.Service
}

func NewDashboardHandler(dashboardService dashboard.Service) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetMerchantDashboard returns balances and counts for the merchant
func (h *DashboardHandler) GetMerchantDashboard(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	stats, err := h.dashboardService.GetMerchantDashboard(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Page(c, fiber.Map{"data": stats})
}

// GetAnalytics reports paid activity for ?period=7d|30d|90d|year
func (h *DashboardHandler) GetAnalytics(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	report, err := h.dashboardService.GetAnalytics(c.UserContext(), user.ID, c.Query("period", "30d"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Page(c, fiber.Map{"data": report})
}
