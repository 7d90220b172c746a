package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
	log     *logrus.Entry
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log.WithField("handler", "orders"),
	}
}

// RegisterRoutes registers the signed-in user's order routes. auth must
// populate the token claims.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Get("/mine", h.HandleGetMyOrders)
	orderRoutes.Get("/mine/:id", h.HandleGetMyOrder)
	orderRoutes.Post("/", h.HandleCreateOrder)

	router.Get("/profile/stats", auth, h.HandleProfileStats)
}

// RegisterAdminRoutes registers the order management routes.
func (h *OrderHandler) RegisterAdminRoutes(admin fiber.Router) {
	orderRoutes := admin.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
}

func identity(c *fiber.Ctx) orders.Identity {
	return orders.Identity{ID: middleware.UserID(c), Email: middleware.Email(c)}
}

// HandleGetMyOrders lists the signed-in user's orders, newest first.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	list, err := h.service.OrdersForUser(c.UserContext(), identity(c))
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve orders")
	}
	return c.JSON(list)
}

// HandleGetMyOrder returns one of the signed-in user's orders.
func (h *OrderHandler) HandleGetMyOrder(c *fiber.Ctx) error {
	orderID := models.ParseID(c.Params("id"))
	view, err := h.service.OrderDetailForUser(c.UserContext(), identity(c), orderID)
	if err != nil {
		return respondError(c, h.log, err, fmt.Sprintf("Order with ID %s not found", orderID))
	}
	return c.JSON(view)
}

// HandleCreateOrder places an order from the session's cart.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var in services.PlaceOrderInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}

	user := models.User{ID: middleware.UserID(c), Email: middleware.Email(c)}
	createdOrder, err := h.service.PlaceOrder(c.UserContext(), middleware.SessionID(c), user, in)
	if err != nil {
		return respondError(c, h.log, err, "Could not create order")
	}
	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// HandleProfileStats returns the signed-in user's order count and spend.
func (h *OrderHandler) HandleProfileStats(c *fiber.Ctx) error {
	stats, err := h.service.ProfileStats(c.UserContext(), identity(c))
	if err != nil {
		return respondError(c, h.log, err, "Could not load profile")
	}
	return c.JSON(stats)
}

// HandleGetOrders retrieves all orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	list, err := h.service.GetAllOrders(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve orders")
	}
	return c.JSON(list)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := models.ParseID(c.Params("id"))
	view, err := h.service.GetOrderByID(c.UserContext(), orderID)
	if err != nil {
		return respondError(c, h.log, err, fmt.Sprintf("Order with ID %s not found", orderID))
	}
	return c.JSON(view)
}

// UpdateOrderStatusRequest represents the request body for updating order status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateOrderStatus updates the status of an order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	orderID := models.ParseID(c.Params("id"))
	updatedOrder, err := h.service.UpdateOrderStatus(c.UserContext(), orderID, req.Status)
	if err != nil {
		return respondError(c, h.log, err, "Could not update order status")
	}
	return c.JSON(updatedOrder)
}

// HandleDeleteOrder removes an order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	orderID := models.ParseID(c.Params("id"))
	if err := h.service.DeleteOrder(c.UserContext(), orderID); err != nil {
		return respondError(c, h.log, err, "Could not delete order")
	}
	return c.JSON(fiber.Map{"message": "Order deleted"})
}
