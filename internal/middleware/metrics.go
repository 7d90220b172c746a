package middleware

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/metrics"
)

// Metrics records request counts and latencies by route pattern.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		done := metrics.RequestStarted()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		done(c.Method(), c.Route().Path, status)
		return err
	}
}
