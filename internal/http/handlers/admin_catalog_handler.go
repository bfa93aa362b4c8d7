package handlers

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"loudim/internal/domain"
	applog "loudim/internal/log"
	"loudim/internal/repos"
	"loudim/internal/services"
	"loudim/internal/validate"
)

// AdminCatalogHandler covers the super-admin catalog surface: products with
// images and sizes, categories, coupons.
type AdminCatalogHandler struct {
	Catalog *services.CatalogService
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Coupons *repos.CouponRepo
}

func adminInputError(c *fiber.Ctx, err error, action string) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return c.Status(400).SendString(ve.Msg)
	}
	applog.Error(c, action, err, nil)
	return c.Status(400).SendString("could not save")
}

// ---------- products ----------

// GET /admin/products
func (h *AdminCatalogHandler) ProductsPage(c *fiber.Ctx) error {
	prods, err := h.Prods.ListAll()
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	cats, err := h.Cats.List()
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "admin_products", fiber.Map{"Products": prods, "Categories": cats})
}

// GET /admin/products/new and /admin/products/:id/edit
func (h *AdminCatalogHandler) ProductForm(c *fiber.Ctx) error {
	cats, err := h.Cats.List()
	if err != nil {
		applog.Error(c, "admin.products.form.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the form"})
	}
	data := fiber.Map{"Categories": cats}
	if raw := c.Params("id"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Product not found"})
		}
		p, err := h.Prods.Get(id)
		if err != nil {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Product not found"})
		}
		data["P"] = p
	}
	return render(c, "admin_product_form", data)
}

func (h *AdminCatalogHandler) productInput(c *fiber.Ctx) (repos.ProductInput, error) {
	catID, okCat := validate.ID(c.FormValue("category_id"))
	price, okPrice := validate.Price(c.FormValue("price"))
	if !okCat || !okPrice {
		return repos.ProductInput{}, &services.ValidationError{Msg: "category and price are required"}
	}
	in := repos.ProductInput{
		CategoryID:    catID,
		NameEN:        strings.TrimSpace(c.FormValue("name_en")),
		NameFR:        strings.TrimSpace(c.FormValue("name_fr")),
		NameAR:        strings.TrimSpace(c.FormValue("name_ar")),
		DescriptionEN: c.FormValue("description_en"),
		DescriptionFR: c.FormValue("description_fr"),
		DescriptionAR: c.FormValue("description_ar"),
		Price:         price,
		Active:        c.FormValue("is_active") != "",
	}
	if raw := c.FormValue("discount_price"); raw != "" {
		dp, ok := validate.Price(raw)
		if !ok || dp >= price {
			return repos.ProductInput{}, &services.ValidationError{Msg: "discount price must be below the list price"}
		}
		in.DiscountPrice = sql.NullFloat64{Float64: dp, Valid: true}
	}
	return in, nil
}

func sizeInputs(c *fiber.Ctx) []repos.SizeInput {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	names := form.Value["size"]
	quantities := form.Value["size_qty"]
	var out []repos.SizeInput
	for i, raw := range names {
		size, ok := validate.Size(raw)
		if !ok || i >= len(quantities) {
			continue
		}
		qty, err := strconv.Atoi(quantities[i])
		if err != nil || qty < 0 {
			continue
		}
		out = append(out, repos.SizeInput{Size: size, Quantity: qty})
	}
	return out
}

// saveImages validates and stores every uploaded file, returning the
// relative media paths to persist.
func (h *AdminCatalogHandler) saveImages(c *fiber.Ctx) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil // no multipart body, no images
	}
	var paths []string
	for _, fh := range form.File["images"] {
		rel, err := h.Catalog.ValidateImage(fh.Filename, fh.Size)
		if err != nil {
			return nil, err
		}
		if err := c.SaveFile(fh, filepath.Join(h.Catalog.MediaDir, rel)); err != nil {
			return nil, err
		}
		paths = append(paths, rel)
	}
	return paths, nil
}

// POST /admin/products
func (h *AdminCatalogHandler) CreateProduct(c *fiber.Ctx) error {
	in, err := h.productInput(c)
	if err != nil {
		return adminInputError(c, err, "admin.products.create.fail")
	}
	images, err := h.saveImages(c)
	if err != nil {
		return adminInputError(c, err, "admin.products.create.fail")
	}
	id, err := h.Catalog.CreateProduct(in, sizeInputs(c), images)
	if err != nil {
		return adminInputError(c, err, "admin.products.create.fail")
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": id, "name": in.NameEN})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id
func (h *AdminCatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	in, err := h.productInput(c)
	if err != nil {
		return adminInputError(c, err, "admin.products.update.fail")
	}
	images, err := h.saveImages(c)
	if err != nil {
		return adminInputError(c, err, "admin.products.update.fail")
	}
	if err := h.Catalog.UpdateProduct(id, in, sizeInputs(c), images); err != nil {
		return adminInputError(c, err, "admin.products.update.fail")
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id/delete
func (h *AdminCatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Catalog.DeleteProduct(id); err != nil {
		applog.Error(c, "admin.products.delete.fail", err, map[string]any{"product_id": id})
		return c.Status(400).SendString("could not delete product")
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id/primary_image
func (h *AdminCatalogHandler) SetPrimaryImage(c *fiber.Ctx) error {
	pid, okP := validate.ID(c.Params("id"))
	imgID, okI := validate.ID(c.FormValue("image_id"))
	if !okP || !okI {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Catalog.SetPrimaryImage(pid, imgID); err != nil {
		applog.Error(c, "admin.products.primary_image.fail", err, map[string]any{"product_id": pid})
		return c.Status(400).SendString("could not set primary image")
	}
	return c.Redirect("/admin/products/" + strconv.FormatInt(pid, 10) + "/edit")
}

// POST /admin/products/:id/images/delete
func (h *AdminCatalogHandler) DeleteImage(c *fiber.Ctx) error {
	pid, okP := validate.ID(c.Params("id"))
	imgID, okI := validate.ID(c.FormValue("image_id"))
	if !okP || !okI {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Catalog.DeleteProductImage(imgID); err != nil {
		applog.Error(c, "admin.products.image_delete.fail", err, map[string]any{"image_id": imgID})
		return c.Status(400).SendString("could not delete image")
	}
	return c.Redirect("/admin/products/" + strconv.FormatInt(pid, 10) + "/edit")
}

// POST /admin/products/:id/sizes
func (h *AdminCatalogHandler) UpsertSize(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	size, okSize := validate.Size(c.FormValue("size"))
	qty, err := strconv.Atoi(c.FormValue("quantity"))
	if !ok || !okSize || err != nil {
		return c.Status(400).SendString("invalid input")
	}
	if err := h.Catalog.UpsertSize(pid, size, qty); err != nil {
		return adminInputError(c, err, "admin.products.size.fail")
	}
	applog.Audit(c, "admin.products.size", map[string]any{"product_id": pid, "size": size, "qty": qty})
	return c.Redirect("/admin/products/" + strconv.FormatInt(pid, 10) + "/edit")
}

// ---------- categories ----------

// GET /admin/categories
func (h *AdminCatalogHandler) CategoriesPage(c *fiber.Ctx) error {
	cats, err := h.Cats.List()
	if err != nil {
		applog.Error(c, "admin.categories.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load categories"})
	}
	return render(c, "admin_categories", fiber.Map{"Categories": cats})
}

func categoryInput(c *fiber.Ctx) (domain.Category, error) {
	slug, ok := validate.Slug(c.FormValue("slug"))
	if !ok {
		return domain.Category{}, &services.ValidationError{Msg: "invalid slug"}
	}
	return domain.Category{
		NameEN:        strings.TrimSpace(c.FormValue("name_en")),
		NameFR:        strings.TrimSpace(c.FormValue("name_fr")),
		NameAR:        strings.TrimSpace(c.FormValue("name_ar")),
		DescriptionEN: c.FormValue("description_en"),
		DescriptionFR: c.FormValue("description_fr"),
		DescriptionAR: c.FormValue("description_ar"),
		Slug:          slug,
	}, nil
}

// POST /admin/categories
func (h *AdminCatalogHandler) CreateCategory(c *fiber.Ctx) error {
	cat, err := categoryInput(c)
	if err != nil {
		return adminInputError(c, err, "admin.categories.create.fail")
	}
	id, err := h.Catalog.CreateCategory(cat)
	if err != nil {
		return adminInputError(c, err, "admin.categories.create.fail")
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": id, "slug": cat.Slug})
	return c.Redirect("/admin/categories")
}

// POST /admin/categories/:id
func (h *AdminCatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	cat, err := categoryInput(c)
	if err != nil {
		return adminInputError(c, err, "admin.categories.update.fail")
	}
	cat.ID = id
	if err := h.Catalog.UpdateCategory(cat); err != nil {
		return adminInputError(c, err, "admin.categories.update.fail")
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": id})
	return c.Redirect("/admin/categories")
}

// POST /admin/categories/:id/delete
func (h *AdminCatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Catalog.DeleteCategory(id); err != nil {
		return adminInputError(c, err, "admin.categories.delete.fail")
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id})
	return c.Redirect("/admin/categories")
}

// ---------- coupons ----------

// GET /admin/coupons
func (h *AdminCatalogHandler) CouponsPage(c *fiber.Ctx) error {
	coupons, err := h.Coupons.List()
	if err != nil {
		applog.Error(c, "admin.coupons.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load coupons"})
	}
	return render(c, "admin_coupons", fiber.Map{"Coupons": coupons})
}

func couponInput(c *fiber.Ctx) (domain.Coupon, error) {
	code, ok := validate.CouponCode(c.FormValue("code"))
	if !ok {
		return domain.Coupon{}, &services.ValidationError{Msg: "invalid coupon code"}
	}
	value, okV := validate.Price(c.FormValue("discount_value"))
	if !okV {
		return domain.Coupon{}, &services.ValidationError{Msg: "invalid discount value"}
	}
	cp := domain.Coupon{
		Code:          code,
		DiscountType:  c.FormValue("discount_type"),
		DiscountValue: value,
		Active:        c.FormValue("is_active") != "",
	}
	if raw := c.FormValue("min_purchase"); raw != "" {
		v, ok := validate.Price(raw)
		if !ok {
			return domain.Coupon{}, &services.ValidationError{Msg: "invalid minimum purchase"}
		}
		cp.MinPurchase = v
	}
	if raw := c.FormValue("max_discount"); raw != "" {
		v, ok := validate.Price(raw)
		if !ok {
			return domain.Coupon{}, &services.ValidationError{Msg: "invalid maximum discount"}
		}
		cp.MaxDiscount = v
	}
	if raw := c.FormValue("max_uses"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return domain.Coupon{}, &services.ValidationError{Msg: "invalid usage cap"}
		}
		cp.MaxUses = n
	}
	if raw := c.FormValue("starts_at"); raw != "" {
		cp.StartsAt = sql.NullString{String: raw, Valid: true}
	}
	if raw := c.FormValue("ends_at"); raw != "" {
		cp.EndsAt = sql.NullString{String: raw, Valid: true}
	}
	return cp, nil
}

// POST /admin/coupons
func (h *AdminCatalogHandler) CreateCoupon(c *fiber.Ctx) error {
	cp, err := couponInput(c)
	if err != nil {
		return adminInputError(c, err, "admin.coupons.create.fail")
	}
	id, err := h.Catalog.CreateCoupon(cp)
	if err != nil {
		return adminInputError(c, err, "admin.coupons.create.fail")
	}
	applog.Audit(c, "admin.coupons.create", map[string]any{"coupon_id": id, "code": cp.Code})
	return c.Redirect("/admin/coupons")
}

// POST /admin/coupons/:id
func (h *AdminCatalogHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	cp, err := couponInput(c)
	if err != nil {
		return adminInputError(c, err, "admin.coupons.update.fail")
	}
	cp.ID = id
	if err := h.Catalog.UpdateCoupon(cp); err != nil {
		return adminInputError(c, err, "admin.coupons.update.fail")
	}
	applog.Audit(c, "admin.coupons.update", map[string]any{"coupon_id": id})
	return c.Redirect("/admin/coupons")
}

// POST /admin/coupons/:id/delete
func (h *AdminCatalogHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Catalog.DeleteCoupon(id); err != nil {
		applog.Error(c, "admin.coupons.delete.fail", err, map[string]any{"coupon_id": id})
		return c.Status(400).SendString("could not delete coupon")
	}
	applog.Audit(c, "admin.coupons.delete", map[string]any{"coupon_id": id})
	return c.Redirect("/admin/coupons")
}
