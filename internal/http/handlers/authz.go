package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loudim/internal/authz"
	"loudim/internal/domain"
	"loudim/internal/log"
	"loudim/internal/services"
)

// RequireAction gates a route on a staff capability. Anonymous visitors are
// sent to the login page; authenticated users missing the capability get a
// 403 so an agent cannot reach pages outside their track.
func RequireAction(auth *services.AuthService, action authz.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := auth.CurrentUser(ensureSID(c))
		if err != nil {
			log.Error(c, "session.lookup.fail", err, nil)
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}
		if u == nil {
			return c.Redirect("/login", fiber.StatusFound)
		}
		if !authz.Allowed(u.Role, action) {
			log.Security(c, "access.denied", map[string]any{
				"username": u.Username,
				"role":     u.Role,
				"action":   string(action),
			})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{
				"Message": "Access denied",
				"User":    u,
			})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
