package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loudim/internal/repos"
	"loudim/internal/validate"
)

type ProductHandler struct {
	Prods *repos.ProductRepo
}

// GET /product/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Prods.Get(id)
	if err != nil || !p.Active {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	return render(c, "product", fiber.Map{"P": p})
}
