package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"loudim/internal/domain"
	applog "loudim/internal/log"
	"loudim/internal/repos"
	"loudim/internal/services"
	"loudim/internal/validate"
)

type AdminHandler struct {
	Orders *services.OrderService
	Repo   *repos.OrderRepo
	Users  *repos.UserRepo
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	counts, err := h.Repo.CountByStatus()
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the dashboard"})
	}
	trend, err := h.Repo.RevenueTrend(30)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the dashboard"})
	}
	top, err := h.Repo.TopProducts(30, 5)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the dashboard"})
	}
	return render(c, "admin_dashboard", fiber.Map{
		"StatusCounts": counts,
		"Revenue":      trend,
		"TopProducts":  top,
	})
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	f := repos.OrderFilter{
		OrderStatus:    c.Query("order_status"),
		PaymentStatus:  c.Query("payment_status"),
		DeliveryStatus: c.Query("delivery_status"),
		Limit:          100,
	}
	if code, ok := validate.Wilaya(c.Query("wilaya")); ok {
		f.WilayaCode = code
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 1 {
		f.Offset = (page - 1) * f.Limit
	}
	ords, err := h.Repo.List(f)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{"Orders": ords, "Filter": f})
}

// GET /admin/orders/:id
func (h *AdminHandler) OrderDetail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	o, err := h.Repo.Get(id)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	items, err := h.Repo.Items(id)
	if err != nil {
		applog.Error(c, "admin.orders.detail.fail", err, map[string]any{"order_id": id})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load this order"})
	}
	return render(c, "admin_order_detail", fiber.Map{"Order": o, "Items": items})
}

func statusUpdateError(c *fiber.Ctx, err error, orderID int64) error {
	var ve *services.ValidationError
	switch {
	case errors.Is(err, services.ErrForbidden):
		applog.Security(c, "access.denied", map[string]any{"order_id": orderID})
		return c.Status(403).Render("notfound", fiber.Map{"Message": "Access denied"})
	case errors.As(err, &ve):
		return c.Status(400).SendString(ve.Msg)
	}
	applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": orderID})
	return c.Status(400).SendString("could not update status")
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateSalesStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	status := c.FormValue("order_status")
	if !ok || status == "" {
		return c.Status(400).SendString("missing id or status")
	}
	var obs *string
	if v := c.FormValue("observation_notes"); v != "" {
		obs = &v
	}
	if err := h.Orders.SetSalesStatus(currentUser(c).Role, id, status, obs); err != nil {
		return statusUpdateError(c, err, id)
	}
	applog.Audit(c, "admin.orders.sales_status", map[string]any{"order_id": id, "status": status})
	return c.Redirect("/admin/orders/" + strconv.FormatInt(id, 10))
}

// POST /admin/orders/:id/delivery_status
func (h *AdminHandler) UpdateDeliveryStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	status := c.FormValue("delivery_status")
	if !ok || status == "" {
		return c.Status(400).SendString("missing id or status")
	}
	var note *string
	if v := c.FormValue("delivery_note"); v != "" {
		note = &v
	}
	if err := h.Orders.SetDeliveryStatus(currentUser(c).Role, id, status, note); err != nil {
		return statusUpdateError(c, err, id)
	}
	applog.Audit(c, "admin.orders.delivery_status", map[string]any{"order_id": id, "status": status})
	return c.Redirect("/admin/orders/" + strconv.FormatInt(id, 10))
}

// POST /admin/orders/:id/payment_status
func (h *AdminHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	status := c.FormValue("payment_status")
	if !ok || status == "" {
		return c.Status(400).SendString("missing id or status")
	}
	if err := h.Orders.SetPaymentStatus(currentUser(c).Role, id, status); err != nil {
		return statusUpdateError(c, err, id)
	}
	applog.Audit(c, "admin.orders.payment_status", map[string]any{"order_id": id, "status": status})
	return c.Redirect("/admin/orders/" + strconv.FormatInt(id, 10))
}

// GET /admin/users
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Users.List()
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load users"})
	}
	return render(c, "admin_users", fiber.Map{"Users": users})
}

func staffRole(s string) bool {
	switch s {
	case domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleCallAgent, domain.RoleDeliveryAgent:
		return true
	}
	return false
}

// POST /admin/users
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	username := c.FormValue("username")
	pass := c.FormValue("password")
	role := c.FormValue("role")
	if username == "" || len(pass) < 8 || !staffRole(role) {
		return c.Status(400).SendString("invalid input")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		applog.Error(c, "admin.users.create.fail", err, nil)
		return c.Status(500).SendString("could not create user")
	}
	u := domain.User{
		Username: username,
		Hash:     string(hash),
		Role:     role,
		FullName: c.FormValue("full_name"),
		Email:    c.FormValue("email"),
		Phone:    c.FormValue("phone"),
	}
	if _, err := h.Users.Create(u); err != nil {
		applog.Error(c, "admin.users.create.fail", err, map[string]any{"username": username})
		return c.Status(400).SendString("could not create user")
	}
	applog.Audit(c, "admin.users.create", map[string]any{"username": username, "role": role})
	return c.Redirect("/admin/users")
}

// POST /admin/users/:id
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	role := c.FormValue("role")
	if !staffRole(role) {
		return c.Status(400).SendString("invalid role")
	}
	u := domain.User{
		ID:       id,
		Username: c.FormValue("username"),
		Role:     role,
		FullName: c.FormValue("full_name"),
		Email:    c.FormValue("email"),
		Phone:    c.FormValue("phone"),
	}
	// Blank password keeps the current hash.
	if pass := c.FormValue("password"); pass != "" {
		if len(pass) < 8 {
			return c.Status(400).SendString("password too short")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
		if err != nil {
			applog.Error(c, "admin.users.update.fail", err, nil)
			return c.Status(500).SendString("could not update user")
		}
		u.Hash = string(hash)
	}
	if err := h.Users.Update(u); err != nil {
		applog.Error(c, "admin.users.update.fail", err, map[string]any{"user_id": id})
		return c.Status(400).SendString("could not update user")
	}
	applog.Audit(c, "admin.users.update", map[string]any{"user_id": id, "role": role})
	return c.Redirect("/admin/users")
}

// POST /admin/users/:id/delete
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if u := currentUser(c); u != nil && u.ID == id {
		return c.Status(400).SendString("cannot delete your own account")
	}
	if err := h.Users.Delete(id); err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return c.Status(400).SendString("could not delete user")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.Redirect("/admin/users")
}
