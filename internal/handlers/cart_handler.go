package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"storefront/internal/apperrors"
	"storefront/internal/cart"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"
)

// CartHandler handles HTTP requests for the session's cart.
type CartHandler struct {
	carts    *cart.Aggregator
	products *services.ProductService
	log      *logrus.Entry
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *cart.Aggregator, products *services.ProductService, log *logrus.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		products: products,
		log:      log.WithField("handler", "cart"),
	}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleView)
	cartRoutes.Post("/", h.HandleAdd)
	cartRoutes.Delete("/", h.HandleClear)
	cartRoutes.Post("/checkout", h.HandleCheckout)
	cartRoutes.Get("/checkout", h.HandleLastCheckout)
	cartRoutes.Post("/:id/increase", h.HandleIncrease)
	cartRoutes.Post("/:id/decrease", h.HandleDecrease)
	cartRoutes.Delete("/:id", h.HandleRemove)
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
}

// HandleView returns the cart with its count and total.
func (h *CartHandler) HandleView(c *fiber.Ctx) error {
	summary, err := h.carts.View(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.log, err, "Could not load cart")
	}
	return c.JSON(summary)
}

// HandleAdd puts a product in the cart. A product already in the cart
// answers 409 with a warning and the unchanged cart.
func (h *CartHandler) HandleAdd(c *fiber.Ctx) error {
	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if req.ProductID == "" {
		return respondError(c, h.log, apperrors.NewValidationError("productId", "productId is required"), "Invalid cart item")
	}

	ctx := c.UserContext()
	product, err := h.products.GetProductByID(ctx, models.ParseID(req.ProductID))
	if err != nil {
		return respondError(c, h.log, err, "Could not add product")
	}

	summary, err := h.carts.Add(ctx, middleware.SessionID(c), *product, req.Size)
	if errors.Is(err, apperrors.ErrDuplicateItem) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Product already in cart",
			"warning": err.Error(),
			"cart":    summary,
		})
	}
	if err != nil {
		return respondError(c, h.log, err, "Could not add product")
	}
	return c.Status(fiber.StatusCreated).JSON(summary)
}

// HandleIncrease adds one unit of a line item.
func (h *CartHandler) HandleIncrease(c *fiber.Ctx) error {
	summary, err := h.carts.Increase(c.UserContext(), middleware.SessionID(c), models.ParseID(c.Params("id")))
	if err != nil {
		return respondError(c, h.log, err, "Could not update cart")
	}
	return c.JSON(summary)
}

// HandleDecrease removes one unit of a line item, never below one.
func (h *CartHandler) HandleDecrease(c *fiber.Ctx) error {
	summary, err := h.carts.Decrease(c.UserContext(), middleware.SessionID(c), models.ParseID(c.Params("id")))
	if err != nil {
		return respondError(c, h.log, err, "Could not update cart")
	}
	return c.JSON(summary)
}

// HandleRemove deletes a line item.
func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	summary, err := h.carts.Remove(c.UserContext(), middleware.SessionID(c), models.ParseID(c.Params("id")))
	if err != nil {
		return respondError(c, h.log, err, "Could not update cart")
	}
	return c.JSON(summary)
}

// HandleClear empties the cart.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	summary, err := h.carts.Clear(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.log, err, "Could not clear cart")
	}
	return c.JSON(summary)
}

// HandleCheckout snapshots the cart as the session's last order summary.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	summary, err := h.carts.Checkout(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.log, err, "Could not check out")
	}
	return c.Status(fiber.StatusCreated).JSON(summary)
}

// HandleLastCheckout returns the most recent checkout snapshot.
func (h *CartHandler) HandleLastCheckout(c *fiber.Ctx) error {
	summary, err := h.carts.LastCheckout(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.log, err, "No checkout found")
	}
	return c.JSON(summary)
}
