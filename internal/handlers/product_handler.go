package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/services"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	log     *logrus.Entry
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		log:     log.WithField("handler", "products"),
	}
}

// RegisterRoutes registers the public product routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products/:id", h.HandleGetProductByID)
}

// RegisterAdminRoutes registers the product management routes.
func (h *ProductHandler) RegisterAdminRoutes(admin fiber.Router) {
	productRoutes := admin.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Patch("/:id", h.HandleUpdateProduct)
	productRoutes.Put("/:id", h.HandleReplaceProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product with its display fields.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := models.ParseID(c.Params("id"))
	product, err := h.service.GetProductByID(c.UserContext(), productID)
	if err != nil {
		return respondError(c, h.log, err, fmt.Sprintf("Product with ID %s not found", productID))
	}
	return c.JSON(fiber.Map{
		"product":       product,
		"displayName":   product.DisplayName(),
		"image":         product.PrimaryImage(),
		"categoryLabel": catalog.CategoryLabel(product.Category),
	})
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badBody(c, err)
	}
	if err := h.service.CreateProduct(c.UserContext(), &product); err != nil {
		return respondError(c, h.log, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return badBody(c, err)
	}
	productID := models.ParseID(c.Params("id"))
	product, err := h.service.UpdateProduct(c.UserContext(), productID, fields)
	if err != nil {
		return respondError(c, h.log, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleReplaceProduct overwrites a product.
func (h *ProductHandler) HandleReplaceProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badBody(c, err)
	}
	productID := models.ParseID(c.Params("id"))
	if err := h.service.ReplaceProduct(c.UserContext(), productID, &product); err != nil {
		return respondError(c, h.log, err, "Could not replace product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := models.ParseID(c.Params("id"))
	if err := h.service.DeleteProduct(c.UserContext(), productID); err != nil {
		return respondError(c, h.log, err, "Could not delete product")
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}
