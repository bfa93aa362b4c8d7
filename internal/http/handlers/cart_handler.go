package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"loudim/internal/log"
	"loudim/internal/services"
	"loudim/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// POST /cart, the add-to-cart form on the product page.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, okID := validate.ID(c.FormValue("product_id"))
	size, okSize := validate.Size(c.FormValue("size"))
	if !okID || !okSize {
		return c.Status(400).SendString("missing product_id or size")
	}
	qty := validate.Qty(c.FormValue("qty"))

	if err := h.Cart.Add(sid, pid, size, qty); err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound),
			errors.Is(err, services.ErrProductUnavailable),
			errors.Is(err, services.ErrInvalidSize):
			return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
		case errors.Is(err, services.ErrInsufficientStock):
			return c.Status(400).SendString("Not enough stock for the requested quantity")
		}
		log.Error(c, "cart.add.fail", err, map[string]any{"product_id": pid, "size": size})
		return c.Status(500).SendString("Could not add to cart")
	}
	log.Info(c, "cart.add", map[string]any{"product_id": pid, "size": size, "qty": qty})
	return c.Redirect("/cart")
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	lines, err := h.Cart.Contents(sid)
	if err != nil {
		log.Error(c, "cart.view.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	var subtotal float64
	for _, l := range lines {
		subtotal += l.LineTotal
	}
	return render(c, "cart", fiber.Map{"Lines": lines, "Subtotal": subtotal})
}
