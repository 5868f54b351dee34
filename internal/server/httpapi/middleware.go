package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Kayvinh/messagely/internal/server/access"
	"github.com/Kayvinh/messagely/internal/server/auth"
)

const identityKey = "identity"

// bearerAuth extracts and verifies the bearer token from the Authorization
// header and stores the resulting identity in the request locals. A missing
// or invalid token ends the request with 401.
func (s *Server) bearerAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)

	const scheme = "Bearer "
	if !strings.HasPrefix(header, scheme) {
		return unauthorized(c)
	}

	username, err := auth.GetUsernameFromToken(strings.TrimPrefix(header, scheme), s.jwtSecret)
	if err != nil {
		return unauthorized(c)
	}

	c.Locals(identityKey, access.Identity{Username: username})
	return c.Next()
}

// identityFromCtx returns the identity stored by bearerAuth. The zero value
// is never stored, so a failed assertion means the middleware did not run.
func identityFromCtx(c *fiber.Ctx) (access.Identity, bool) {
	id, ok := c.Locals(identityKey).(access.Identity)
	return id, ok
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}
