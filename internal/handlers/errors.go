package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"storefront/internal/apperrors"
)

// escapePath is where a shopper is sent when a detail page has nothing to show.
const escapePath = "/products"

// networkNotice is the dismissible message shown when the backend is down.
const networkNotice = "The store is unreachable right now. Please try again."

// respondError maps the error taxonomy to a status and JSON body.
func respondError(c *fiber.Ctx, log *logrus.Entry, err error, message string) error {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, apperrors.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, apperrors.ErrDuplicateItem):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": message,
			"warning": err.Error(),
		})
	case errors.Is(err, apperrors.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
			"escape":  escapePath,
		})
	case errors.Is(err, apperrors.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, apperrors.ErrNetwork):
		log.WithError(err).Warn(message)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message":      message,
			"error":        err.Error(),
			"notification": networkNotice,
		})
	case errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).Warn(message)
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	default:
		log.WithError(err).Error(message)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
