package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

// HeaderSessionID carries the storefront session across requests.
const HeaderSessionID = "X-Session-ID"

// Session assigns every request a session id: the one the client sent when
// it is a valid uuid, otherwise a fresh one. The id is echoed back in the
// response header. The id outlives the request, so it never aliases the
// request buffer.
func Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Get(HeaderSessionID))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Locals(LocalSession, id)
		c.Set(HeaderSessionID, id)
		return c.Next()
	}
}

// SessionID returns the request's session id.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalSession).(string)
	return id
}
