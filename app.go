package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storage"
	"storefront/pkg/rabbitmq"
)

const (
	sessionIdle  = 30 * time.Minute
	pruneEvery   = 5 * time.Minute
	shutdownWait = 10 * time.Second
)

// dependencies are the stateful collaborators of the app. Events is optional.
type dependencies struct {
	Store    storage.Store
	Products repositories.ProductRepository
	Users    repositories.UserRepository
	Orders   repositories.OrderRepository
	Events   *rabbitmq.Client
}

// application is the wired HTTP app plus the services background jobs need.
type application struct {
	App        *fiber.App
	Storefront *services.StorefrontService
	log        *logrus.Entry
}

// newApplication wires services, handlers and routes.
func newApplication(cfg *config.Config, deps dependencies, log *logrus.Logger) *application {
	var (
		checkoutPublisher cart.CheckoutPublisher
		orderPublisher    services.OrderPublisher
	)
	if deps.Events != nil {
		checkoutPublisher = deps.Events
		orderPublisher = deps.Events
	}

	// --- Services ---
	carts := cart.NewAggregator(deps.Store, checkoutPublisher, log)
	fetcher := catalog.NewFetcher(deps.Products, cfg.APITimeout, log)
	storefrontService := services.NewStorefrontService(fetcher, cfg.PageSize, log)
	productService := services.NewProductService(deps.Products, log)
	userService := services.NewUserService(deps.Users)
	orderService := services.NewOrderService(deps.Orders, carts, orderPublisher, log)
	dashboardService := services.NewDashboardService(deps.Users, deps.Products, deps.Orders)
	authService := services.NewAuthService(deps.Users, deps.Store, services.AuthConfig{
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}, log)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, log)
	catalogHandler := handlers.NewCatalogHandler(storefrontService, productService, log)
	productHandler := handlers.NewProductHandler(productService, log)
	cartHandler := handlers.NewCartHandler(carts, productService, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)
	userHandler := handlers.NewUserHandler(userService, log)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, log)

	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		DisableStartupMessage: true,
		Immutable:             true,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.Metrics())

	// --- Health and metrics ---
	app.Get("/health", func(c *fiber.Ctx) error {
		events := "disabled"
		if deps.Events != nil {
			events = "connected"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"rabbitMQ": events,
			"sessions": storefrontService.Len(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// --- API Routes ---
	apiV1 := app.Group("/api/v1", middleware.Session())
	auth := middleware.AuthRequired(authService, log)
	loginLimit := middleware.NewRateLimiter(cfg.LoginRatePerSecond, cfg.LoginBurst).Handler()

	authHandler.RegisterRoutes(apiV1, loginLimit)
	catalogHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	cartHandler.RegisterRoutes(apiV1)
	orderHandler.RegisterRoutes(apiV1, auth)

	admin := apiV1.Group("/admin", auth, middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(admin)
	userHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	dashboardHandler.RegisterAdminRoutes(admin)

	return &application{
		App:        app,
		Storefront: storefrontService,
		log:        log.WithField("component", "app"),
	}
}

// pruneSessions drops idle catalog sessions until ctx is done.
func (a *application) pruneSessions(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Storefront.Prune(idle); n > 0 {
				a.log.WithField("removed", n).Debug("pruned idle catalog sessions")
			}
		}
	}
}
