package handlers_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"loudim/internal/authz"
	"loudim/internal/config"
	"loudim/internal/domain"
	"loudim/internal/http/handlers"
	"loudim/internal/repos"
	"loudim/internal/services"
)

func newAdminApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{MediaDir: t.TempDir()}
	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	deps := handlers.NewDeps(db, cfg, authSvc)
	authH := &handlers.AuthHandler{Auth: authSvc}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})

	app.Get("/login", authH.LoginForm)
	app.Post("/login", authH.Login)

	app.Get("/admin", handlers.RequireAction(authSvc, authz.ViewStats), deps.AdminHandler.Dashboard)

	orders := app.Group("/admin/orders", handlers.RequireAction(authSvc, authz.ViewOrders))
	orders.Get("/", deps.AdminHandler.OrdersPage)
	orders.Get("/:id", deps.AdminHandler.OrderDetail)
	orders.Post("/:id/status", deps.AdminHandler.UpdateSalesStatus)
	orders.Post("/:id/delivery_status", deps.AdminHandler.UpdateDeliveryStatus)
	orders.Post("/:id/payment_status", deps.AdminHandler.UpdatePaymentStatus)

	products := app.Group("/admin/products", handlers.RequireAction(authSvc, authz.ManageCatalog))
	products.Get("/", deps.AdminCatalogHandler.ProductsPage)

	return app, db
}

// bindSID attaches a fresh session to the seeded account for that role.
func bindSID(t *testing.T, db *sqlx.DB, username, sid string) {
	t.Helper()
	users := repos.NewUserRepo(db)
	u, err := users.ByUsername(username)
	if err != nil {
		t.Fatalf("lookup %s: %v", username, err)
	}
	if err := users.BindSession(sid, u.ID); err != nil {
		t.Fatal(err)
	}
}

func seedOrder(t *testing.T, db *sqlx.DB) int64 {
	t.Helper()
	id, err := repos.NewOrderRepo(db).Create(domain.Order{
		FullName: "Walk In", Phone: "0550000000", WilayaCode: 16,
		DeliveryType: domain.DeliveryHome, Address: sql.NullString{String: "1 Main St", Valid: true},
		CartTotal: 1500, DeliveryFee: 500, TotalAmount: 2000,
	}, []repos.NewOrderLine{{ProductID: 3, Size: "M", Quantity: 1, Price: 1500}})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func get(t *testing.T, app *fiber.App, target, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func postForm(t *testing.T, app *fiber.App, target, sid string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	app, _ := newAdminApp(t)
	resp := get(t, app, "/admin", "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestRoleGatesPerRoute(t *testing.T) {
	app, db := newAdminApp(t)
	bindSID(t, db, "delivery", "sid-del")
	bindSID(t, db, "callcenter", "sid-call")
	bindSID(t, db, "admin", "sid-adm")

	cases := []struct {
		sid, target string
		want        int
	}{
		{"sid-del", "/admin", http.StatusForbidden},
		{"sid-del", "/admin/orders/", http.StatusOK},
		{"sid-call", "/admin", http.StatusOK},
		{"sid-call", "/admin/products/", http.StatusForbidden},
		{"sid-adm", "/admin", http.StatusOK},
		{"sid-adm", "/admin/products/", http.StatusOK},
	}
	for _, tc := range cases {
		resp := get(t, app, tc.target, tc.sid)
		if resp.StatusCode != tc.want {
			t.Errorf("%s as %s: expected %d, got %d", tc.target, tc.sid, tc.want, resp.StatusCode)
		}
	}
}

func TestStatusRoutesAreRoleScoped(t *testing.T) {
	app, db := newAdminApp(t)
	id := seedOrder(t, db)
	bindSID(t, db, "delivery", "sid-del")
	bindSID(t, db, "callcenter", "sid-call")

	base := "/admin/orders/" + strconv.FormatInt(id, 10)

	// A delivery agent may not touch the sales track.
	resp := postForm(t, app, base+"/status", "sid-del",
		url.Values{"order_status": {"confirmed"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	// Fulfillment cannot start before the sale is confirmed.
	resp = postForm(t, app, base+"/delivery_status", "sid-del",
		url.Values{"delivery_status": {"ready"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp = postForm(t, app, base+"/status", "sid-call",
		url.Values{"order_status": {"confirmed"}, "observation_notes": {"customer reached"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}

	// A call agent may not touch the fulfillment track.
	resp = postForm(t, app, base+"/delivery_status", "sid-call",
		url.Values{"delivery_status": {"ready"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp = postForm(t, app, base+"/delivery_status", "sid-del",
		url.Values{"delivery_status": {"ready"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}

	var got struct {
		Order    string `db:"order_status"`
		Delivery string `db:"delivery_status"`
	}
	if err := db.Get(&got, `SELECT order_status, delivery_status FROM orders WHERE id=?`, id); err != nil {
		t.Fatal(err)
	}
	if got.Order != domain.SalesConfirmed || got.Delivery != domain.FulfillmentReady {
		t.Fatalf("unexpected statuses: %+v", got)
	}
}

func TestLoginThrottle(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	authH := &handlers.AuthHandler{Auth: &services.AuthService{Users: repos.NewUserRepo(db)}}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
	}), authH.Login)

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	for i := 0; i < 5; i++ {
		resp := postForm(t, app, "/login", "", form)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, resp.StatusCode)
		}
	}
	resp := postForm(t, app, "/login", "", form)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated attempts, got %d", resp.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	app, _ := newAdminApp(t)

	resp := postForm(t, app, "/login", "sid-x",
		url.Values{"username": {"admin"}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp = postForm(t, app, "/login", "sid-x",
		url.Values{"username": {"admin"}, "password": {"Passw0rd!"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/admin" {
		t.Fatalf("expected redirect to /admin, got %q", loc)
	}

	// The session now resolves to the admin account.
	resp = get(t, app, "/admin", "sid-x")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
