package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"storefront/internal/apperrors"
	"storefront/internal/catalog"
	"storefront/internal/filter"
	"storefront/internal/middleware"
	"storefront/internal/services"
)

// CatalogHandler serves the filtered, paginated product list.
type CatalogHandler struct {
	storefront *services.StorefrontService
	products   *services.ProductService
	log        *logrus.Entry
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(storefront *services.StorefrontService, products *services.ProductService, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		storefront: storefront,
		products:   products,
		log:        log.WithField("handler", "catalog"),
	}
}

// RegisterRoutes registers the catalog routes.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	catalogRoutes := router.Group("/catalog")
	catalogRoutes.Get("/", h.HandleNavigate)
	catalogRoutes.Get("/filters", h.HandleFilters)
	catalogRoutes.Post("/toggle", h.HandleToggle)
	catalogRoutes.Post("/clear", h.HandleClear)
	catalogRoutes.Post("/search", h.HandleSearch)
	catalogRoutes.Post("/sort", h.HandleSort)
	catalogRoutes.Post("/page", h.HandlePage)
}

type toggleRequest struct {
	Facet string `json:"facet"`
	Value string `json:"value"`
}

type searchRequest struct {
	Q string `json:"q"`
}

type sortRequest struct {
	Order string `json:"order"`
}

type pageRequest struct {
	Page int `json:"page"`
}

func (h *CatalogHandler) session(c *fiber.Ctx) *services.CatalogSession {
	return h.storefront.Session(middleware.SessionID(c))
}

// respond renders the session state. A superseded fetch still answers with
// the state the newer request left behind.
func (h *CatalogHandler) respond(c *fiber.Ctx, st services.SessionState, err error) error {
	if err == nil || catalog.IsSuperseded(err) {
		return c.JSON(st)
	}
	if errors.Is(err, apperrors.ErrValidation) {
		return respondError(c, h.log, err, "Invalid catalog request")
	}
	h.log.WithError(err).Warn("catalog fetch failed")
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"message":      "Could not load products",
		"error":        err.Error(),
		"notification": networkNotice,
		"state":        st,
	})
}

// HandleNavigate loads the catalog for the request's query string.
func (h *CatalogHandler) HandleNavigate(c *fiber.Ctx) error {
	raw := string(c.Request().URI().QueryString())
	st, err := h.session(c).Navigate(c.UserContext(), raw)
	return h.respond(c, st, err)
}

// HandleFilters returns the values each facet can take.
func (h *CatalogHandler) HandleFilters(c *fiber.Ctx) error {
	opts, err := h.products.FilterOptions(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Could not load filters")
	}
	return c.JSON(fiber.Map{
		"categories":     opts.Categories,
		"categoryLabels": catalog.CategoryLabels(opts.Categories),
		"genders":        opts.Genders,
		"colors":         opts.Colors,
	})
}

// HandleToggle flips one facet value.
func (h *CatalogHandler) HandleToggle(c *fiber.Ctx) error {
	var req toggleRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	facet, ok := parseFacet(req.Facet)
	if !ok {
		return respondError(c, h.log, apperrors.NewValidationError("facet", "unknown facet '"+req.Facet+"'"), "Invalid facet")
	}
	if req.Value == "" {
		return respondError(c, h.log, apperrors.NewValidationError("value", "value is required"), "Invalid facet")
	}
	st, err := h.session(c).Toggle(c.UserContext(), facet, req.Value)
	return h.respond(c, st, err)
}

// HandleClear drops every filter.
func (h *CatalogHandler) HandleClear(c *fiber.Ctx) error {
	st, err := h.session(c).ClearAll(c.UserContext())
	return h.respond(c, st, err)
}

// HandleSearch replaces the filter with a free-text search.
func (h *CatalogHandler) HandleSearch(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	st, err := h.session(c).Search(c.UserContext(), req.Q)
	return h.respond(c, st, err)
}

// HandleSort sets the price sort. Unknown orders clear it.
func (h *CatalogHandler) HandleSort(c *fiber.Ctx) error {
	var req sortRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	st, err := h.session(c).SetSort(c.UserContext(), filter.ParseSortOrder(req.Order))
	return h.respond(c, st, err)
}

// HandlePage moves to another page.
func (h *CatalogHandler) HandlePage(c *fiber.Ctx) error {
	var req pageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	st, err := h.session(c).SetPage(c.UserContext(), req.Page)
	return h.respond(c, st, err)
}

func parseFacet(raw string) (filter.Facet, bool) {
	for _, f := range filter.Facets {
		if string(f) == raw {
			return f, true
		}
	}
	return "", false
}
