package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"pricewatch/internal/domain"
	applog "pricewatch/internal/log"
	"pricewatch/internal/validate"
)

// UserLookup confirms that an identity handed over by the upstream auth layer exists.
type UserLookup interface {
	ByID(ctx context.Context, id string) (*domain.User, error)
}

// RequireUser reads the acting user id from header. The header is set by a trusted
// proxy; this service does no authentication of its own. users may be nil, in which
// case any well-formed id is accepted.
func RequireUser(header string, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(header)
		uid, ok := validate.ID(raw)
		if !ok {
			c.Status(fiber.StatusUnauthorized)
			applog.Security(c, "access.denied.identity", map[string]any{"header": header, "present": raw != ""})
			return unauthorized(c)
		}
		if users != nil {
			u, err := users.ByID(c.UserContext(), uid)
			if err != nil {
				return fail(c, "identity.lookup.fail", err, nil)
			}
			if u == nil {
				c.Status(fiber.StatusUnauthorized)
				applog.Security(c, "access.denied.unknown_user", map[string]any{"user": uid})
				return unauthorized(c)
			}
		}
		c.Locals("userID", uid)
		return c.Next()
	}
}

func userID(c *fiber.Ctx) string {
	uid, _ := c.Locals("userID").(string)
	return uid
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   "Please log in to manage your watchlist.",
	})
}
