package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"storefront/internal/middleware"
	"storefront/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	log         *logrus.Entry
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.WithField("handler", "auth"),
	}
}

// RegisterRoutes registers the authentication routes. limit guards the
// credential checks.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, limit fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/signup", h.HandleSignup)
	authRoutes.Post("/login", limit, h.HandleLogin)
	authRoutes.Post("/admin/login", limit, h.HandleAdminLogin)
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Get("/me", h.HandleMe)
}

// HandleSignup handles new user registration.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var in services.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}

	user, err := h.authService.Signup(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err, "Could not register user")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// HandleLogin checks user credentials and issues a JWT token bound to the
// caller's session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}

	session, err := h.authService.Login(c.UserContext(), middleware.SessionID(c), in)
	if err != nil {
		return respondError(c, h.log, err, "Authentication failed")
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   session.Token,
		"user":    session.User,
		"role":    session.Role,
	})
}

// HandleAdminLogin checks the admin credentials.
func (h *AuthHandler) HandleAdminLogin(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}

	session, err := h.authService.AdminLogin(c.UserContext(), middleware.SessionID(c), in)
	if err != nil {
		return respondError(c, h.log, err, "Authentication failed")
	}
	return c.JSON(fiber.Map{
		"message": "Admin login successful",
		"token":   session.Token,
		"role":    session.Role,
	})
}

// HandleLogout forgets the session's user and admin flag.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.SessionID(c)); err != nil {
		return respondError(c, h.log, err, "Could not log out")
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// HandleMe returns the user signed in on this session.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	ctx := c.UserContext()
	session := middleware.SessionID(c)
	user, err := h.authService.CurrentUser(ctx, session)
	if err != nil {
		return respondError(c, h.log, err, "Not signed in")
	}
	return c.JSON(fiber.Map{
		"user":    user,
		"isAdmin": h.authService.IsAdmin(ctx, session),
	})
}
