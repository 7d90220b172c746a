package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"storefront/internal/services"
)

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	service *services.DashboardService
	log     *logrus.Entry
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *services.DashboardService, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		log:     log.WithField("handler", "dashboard"),
	}
}

// RegisterAdminRoutes registers the dashboard route.
func (h *DashboardHandler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/dashboard", h.HandleDashboard)
}

// HandleDashboard returns totals, revenue and recent orders.
func (h *DashboardHandler) HandleDashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Could not load dashboard")
	}
	return c.JSON(dashboard)
}
