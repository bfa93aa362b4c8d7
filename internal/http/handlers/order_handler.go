package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loudim/internal/repos"
	"loudim/internal/validate"
)

type OrderHandler struct {
	Repo *repos.OrderRepo
}

// GET /order/:id, the confirmation page shown after checkout.
func (h *OrderHandler) View(c *fiber.Ctx) error {
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
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	return render(c, "order_confirmation", fiber.Map{"Order": o, "Items": items})
}
