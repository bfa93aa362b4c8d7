package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loudim/internal/log"
	"loudim/internal/repos"
	"loudim/internal/validate"
)

type CategoryHandler struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

// GET /
func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Cats.List()
	if err != nil {
		log.Error(c, "home.categories.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the storefront"})
	}
	prods, err := h.Prods.List(0, c.Query("search"), 24, 0)
	if err != nil {
		log.Error(c, "home.products.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the storefront"})
	}
	return render(c, "home", fiber.Map{"Categories": cats, "Products": prods, "Search": c.Query("search")})
}

// GET /category/:id
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Category not found"})
	}
	cat, err := h.Cats.Get(id)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Category not found"})
	}
	prods, err := h.Prods.List(id, "", 48, 0)
	if err != nil {
		log.Error(c, "category.products.fail", err, map[string]any{"category_id": id})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load this category"})
	}
	return render(c, "category", fiber.Map{"Category": cat, "Products": prods})
}
