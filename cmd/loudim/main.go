package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"loudim/internal/authz"
	"loudim/internal/config"
	"loudim/internal/http/handlers"
	applog "loudim/internal/log"
	"loudim/internal/repos"
	"loudim/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false, "error_message": "Internal Server Error",
				})
			}
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Body size guard; product image uploads are capped separately at 5MB each
	app.Server().MaxRequestBodySize = 32 << 20

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	// The JSON API is called by the storefront scripts without a form token;
	// it stays outside the CSRF scope like the page it serves.
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	app.Static("/static", "./web/static")
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		full := filepath.Join(mediaDir, clean)
		return c.SendFile(full, true)
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc)

	// Public storefront
	app.Get("/", deps.CategoryHandler.Home)
	app.Get("/category/:id", deps.CategoryHandler.List)
	app.Get("/product/:id", deps.ProductHandler.Detail)
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Get("/order/:id", deps.OrderHandler.View)

	// JSON API
	api := app.Group("/api")
	api.Post("/apply_coupon", deps.APIHandler.ApplyCoupon)
	api.Get("/get_delivery_options", deps.APIHandler.DeliveryOptions)
	api.Post("/process_order", deps.APIHandler.ProcessOrder)
	api.Post("/remove_from_cart", deps.APIHandler.RemoveFromCart)
	api.Post("/update_cart_item", deps.APIHandler.UpdateCartItem)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Back office, each route gated on a capability
	app.Get("/admin", handlers.RequireAction(authSvc, authz.ViewStats), deps.AdminHandler.Dashboard)

	orders := app.Group("/admin/orders", handlers.RequireAction(authSvc, authz.ViewOrders))
	orders.Get("/", deps.AdminHandler.OrdersPage)
	orders.Get("/:id", deps.AdminHandler.OrderDetail)
	orders.Post("/:id/status", deps.AdminHandler.UpdateSalesStatus)
	orders.Post("/:id/delivery_status", deps.AdminHandler.UpdateDeliveryStatus)
	orders.Post("/:id/payment_status", deps.AdminHandler.UpdatePaymentStatus)

	products := app.Group("/admin/products", handlers.RequireAction(authSvc, authz.ManageCatalog))
	products.Get("/", deps.AdminCatalogHandler.ProductsPage)
	products.Get("/new", deps.AdminCatalogHandler.ProductForm)
	products.Get("/:id/edit", deps.AdminCatalogHandler.ProductForm)
	products.Post("/", deps.AdminCatalogHandler.CreateProduct)
	products.Post("/:id", deps.AdminCatalogHandler.UpdateProduct)
	products.Post("/:id/delete", deps.AdminCatalogHandler.DeleteProduct)
	products.Post("/:id/primary_image", deps.AdminCatalogHandler.SetPrimaryImage)
	products.Post("/:id/images/delete", deps.AdminCatalogHandler.DeleteImage)
	products.Post("/:id/sizes", deps.AdminCatalogHandler.UpsertSize)

	categories := app.Group("/admin/categories", handlers.RequireAction(authSvc, authz.ManageCatalog))
	categories.Get("/", deps.AdminCatalogHandler.CategoriesPage)
	categories.Post("/", deps.AdminCatalogHandler.CreateCategory)
	categories.Post("/:id", deps.AdminCatalogHandler.UpdateCategory)
	categories.Post("/:id/delete", deps.AdminCatalogHandler.DeleteCategory)

	coupons := app.Group("/admin/coupons", handlers.RequireAction(authSvc, authz.ManageCoupons))
	coupons.Get("/", deps.AdminCatalogHandler.CouponsPage)
	coupons.Post("/", deps.AdminCatalogHandler.CreateCoupon)
	coupons.Post("/:id", deps.AdminCatalogHandler.UpdateCoupon)
	coupons.Post("/:id/delete", deps.AdminCatalogHandler.DeleteCoupon)

	delivery := app.Group("/admin/delivery", handlers.RequireAction(authSvc, authz.ManageDelivery))
	delivery.Get("/", deps.AdminDeliveryHandler.Page)
	delivery.Post("/cities/:code", deps.AdminDeliveryHandler.UpdateCityFees)
	delivery.Post("/desks", deps.AdminDeliveryHandler.CreateDesk)
	delivery.Post("/desks/:id", deps.AdminDeliveryHandler.UpdateDesk)
	delivery.Post("/desks/:id/delete", deps.AdminDeliveryHandler.DeleteDesk)

	users := app.Group("/admin/users", handlers.RequireAction(authSvc, authz.ManageUsers))
	users.Get("/", deps.AdminHandler.UsersPage)
	users.Post("/", deps.AdminHandler.CreateUser)
	users.Post("/:id", deps.AdminHandler.UpdateUser)
	users.Post("/:id/delete", deps.AdminHandler.DeleteUser)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
