package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
	"storefront/internal/services"
)

// UserHandler handles the admin user management routes.
type UserHandler struct {
	service *services.UserService
	log     *logrus.Entry
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.WithField("handler", "users"),
	}
}

// RegisterAdminRoutes registers the user management routes.
func (h *UserHandler) RegisterAdminRoutes(admin fiber.Router) {
	userRoutes := admin.Group("/users")
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Get("/:id", h.HandleGetUser)
	userRoutes.Patch("/:id", h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
}

// HandleGetUsers lists every user without passwords.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.GetAllUsers(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve users")
	}
	return c.JSON(users)
}

// HandleGetUser returns one user.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	user, err := h.service.GetUserByID(c.UserContext(), models.ParseID(c.Params("id")))
	if err != nil {
		return respondError(c, h.log, err, "User not found")
	}
	return c.JSON(user)
}

// HandleUpdateUser applies a partial update.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return badBody(c, err)
	}
	user, err := h.service.UpdateUser(c.UserContext(), models.ParseID(c.Params("id")), fields)
	if err != nil {
		return respondError(c, h.log, err, "Could not update user")
	}
	return c.JSON(user)
}

// HandleDeleteUser removes a user.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), models.ParseID(c.Params("id"))); err != nil {
		return respondError(c, h.log, err, "Could not delete user")
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
