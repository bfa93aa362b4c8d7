package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loudim/internal/domain"
	applog "loudim/internal/log"
	"loudim/internal/repos"
	"loudim/internal/services"
	"loudim/internal/validate"
)

// AdminDeliveryHandler manages region fees and pickup desks.
type AdminDeliveryHandler struct {
	Catalog *services.CatalogService
	Cities  *repos.DeliveryRepo
}

// GET /admin/delivery
func (h *AdminDeliveryHandler) Page(c *fiber.Ctx) error {
	cities, err := h.Cities.ListCities()
	if err != nil {
		applog.Error(c, "admin.delivery.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load delivery settings"})
	}
	desks, err := h.Cities.ListDesks()
	if err != nil {
		applog.Error(c, "admin.delivery.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load delivery settings"})
	}
	return render(c, "admin_delivery", fiber.Map{"Cities": cities, "Desks": desks})
}

// POST /admin/delivery/cities/:code
func (h *AdminDeliveryHandler) UpdateCityFees(c *fiber.Ctx) error {
	code, ok := validate.Wilaya(c.Params("code"))
	home, okH := validate.Price(c.FormValue("home_fee"))
	desk, okD := validate.Price(c.FormValue("desk_fee"))
	if !ok || !okH || !okD {
		return c.Status(400).SendString("invalid input")
	}
	if err := h.Catalog.UpdateCityFees(code, home, desk); err != nil {
		return adminInputError(c, err, "admin.delivery.fees.fail")
	}
	applog.Audit(c, "admin.delivery.fees", map[string]any{"wilaya": code, "home": home, "desk": desk})
	return c.Redirect("/admin/delivery")
}

func deskInput(c *fiber.Ctx) (domain.DeliveryDesk, error) {
	wilayaID, ok := validate.ID(c.FormValue("wilaya_id"))
	if !ok {
		return domain.DeliveryDesk{}, &services.ValidationError{Msg: "wilaya is required"}
	}
	return domain.DeliveryDesk{
		WilayaID:  wilayaID,
		NameEN:    c.FormValue("name_en"),
		NameFR:    c.FormValue("name_fr"),
		NameAR:    c.FormValue("name_ar"),
		AddressEN: c.FormValue("address_en"),
		AddressFR: c.FormValue("address_fr"),
		AddressAR: c.FormValue("address_ar"),
		Phone:     c.FormValue("phone"),
		Active:    c.FormValue("is_active") != "",
	}, nil
}

// POST /admin/delivery/desks
func (h *AdminDeliveryHandler) CreateDesk(c *fiber.Ctx) error {
	d, err := deskInput(c)
	if err != nil {
		return adminInputError(c, err, "admin.delivery.desk.create.fail")
	}
	id, err := h.Catalog.CreateDesk(d)
	if err != nil {
		return adminInputError(c, err, "admin.delivery.desk.create.fail")
	}
	applog.Audit(c, "admin.delivery.desk.create", map[string]any{"desk_id": id})
	return c.Redirect("/admin/delivery")
}

// POST /admin/delivery/desks/:id
func (h *AdminDeliveryHandler) UpdateDesk(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	d, err := deskInput(c)
	if err != nil {
		return adminInputError(c, err, "admin.delivery.desk.update.fail")
	}
	d.ID = id
	if err := h.Catalog.UpdateDesk(d); err != nil {
		return adminInputError(c, err, "admin.delivery.desk.update.fail")
	}
	applog.Audit(c, "admin.delivery.desk.update", map[string]any{"desk_id": id})
	return c.Redirect("/admin/delivery")
}

// POST /admin/delivery/desks/:id/delete
func (h *AdminDeliveryHandler) DeleteDesk(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Catalog.DeleteDesk(id); err != nil {
		applog.Error(c, "admin.delivery.desk.delete.fail", err, map[string]any{"desk_id": id})
		return c.Status(400).SendString("could not delete desk")
	}
	applog.Audit(c, "admin.delivery.desk.delete", map[string]any{"desk_id": id})
	return c.Redirect("/admin/delivery")
}
