package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"loudim/internal/log"
	"loudim/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	return render(c, "login", fiber.Map{"Err": "", "CSRFToken": tok})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	username := c.FormValue("username")
	pass := c.FormValue("password")
	if username == "" || pass == "" {
		tok := c.Cookies("csrf_")
		log.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": "missing_fields"})
		return c.Status(401).Render("login", fiber.Map{"Err": "Invalid username or password", "CSRFToken": tok})
	}

	u, err := h.Auth.Login(sid, username, pass)
	if err != nil {
		tok := c.Cookies("csrf_")
		log.Security(c, "auth.login.fail", map[string]any{"username": username})
		return c.Status(401).Render("login", fiber.Map{"Err": "Invalid username or password", "CSRFToken": tok})
	}

	log.Audit(c, "auth.login.success", map[string]any{"username": username, "role": u.Role})
	return c.Redirect("/admin")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}
