package services

import (
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loudim/internal/cart"
	"loudim/internal/domain"
	"loudim/internal/repos"
)

type orderFixture struct {
	db      *sqlx.DB
	cart    *CartService
	coupons *repos.CouponRepo
	orders  *repos.OrderRepo
	prods   *repos.ProductRepo
	svc     *OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	prods := repos.NewProductRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	cartSvc := NewCartService(cart.NewStore(), prods)
	svc := NewOrderService(cartSvc, NewCouponService(couponRepo),
		NewDeliveryService(repos.NewDeliveryRepo(db)), orderRepo, prods)

	return &orderFixture{db: db, cart: cartSvc, coupons: couponRepo,
		orders: orderRepo, prods: prods, svc: svc}
}

// a 1000 DZD product with ten units of size 40
func (f *orderFixture) seedThousandProduct(t *testing.T) int64 {
	t.Helper()
	id, err := f.prods.Create(repos.ProductInput{
		CategoryID: 1, NameEN: "Basic Shoe", Price: 1000, Active: true,
	}, []repos.SizeInput{{Size: "40", Quantity: 10}}, nil)
	require.NoError(t, err)
	return id
}

func (f *orderFixture) sizeQty(t *testing.T, productID int64, size string) int {
	t.Helper()
	n, err := f.prods.SizeQuantity(productID, size)
	require.NoError(t, err)
	return n
}

func homeCheckout() CheckoutInput {
	return CheckoutInput{
		FullName:     "Amine B",
		Phone:        "0550123456",
		WilayaCode:   16, // Algiers, home fee 500
		DeliveryType: domain.DeliveryHome,
		Address:      "12 Rue Didouche Mourad",
	}
}

func TestCheckoutTotalsAndStockDeltas(t *testing.T) {
	f := newOrderFixture(t)
	pid := f.seedThousandProduct(t)
	require.NoError(t, f.cart.Add("sid", pid, "40", 2))

	res, err := f.svc.Create("sid", homeCheckout())
	require.NoError(t, err)
	assert.InDelta(t, 2500, res.TotalAmount, 0.001) // 1000*2 + 500 fee

	o, err := f.orders.Get(res.OrderID)
	require.NoError(t, err)
	assert.InDelta(t, 2000, o.CartTotal, 0.001)
	assert.InDelta(t, 500, o.DeliveryFee, 0.001)
	assert.InDelta(t, 0, o.DiscountAmount, 0.001)
	assert.InDelta(t, o.CartTotal+o.DeliveryFee-o.DiscountAmount, o.TotalAmount, 0.001)
	assert.Equal(t, domain.SalesPending, o.OrderStatus)
	assert.Equal(t, "", o.DeliveryStatus)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)

	// Stock decremented by exactly the ordered quantity, cart emptied.
	assert.Equal(t, 8, f.sizeQty(t, pid, "40"))
	lines, err := f.cart.Contents("sid")
	require.NoError(t, err)
	assert.Empty(t, lines)

	items, err := f.orders.Items(res.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.InDelta(t, 1000, items[0].Price, 0.001)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCheckoutAppliesCouponAndChargesUsage(t *testing.T) {
	f := newOrderFixture(t)
	pid := f.seedThousandProduct(t)
	couponID, err := f.coupons.Create(domain.Coupon{
		Code: "PERC10", DiscountType: domain.DiscountPercentage,
		DiscountValue: 10, MinPurchase: 1000, MaxDiscount: 150, Active: true,
	})
	require.NoError(t, err)

	require.NoError(t, f.cart.Add("sid", pid, "40", 2))
	in := homeCheckout()
	in.CouponCode = "PERC10"

	res, err := f.svc.Create("sid", in)
	require.NoError(t, err)
	// 10% of 2000 capped at 150: 2000 - 150 + 500
	assert.InDelta(t, 2350, res.TotalAmount, 0.001)
	assert.Empty(t, res.CouponRejection)

	o, err := f.orders.Get(res.OrderID)
	require.NoError(t, err)
	assert.InDelta(t, 150, o.DiscountAmount, 0.001)
	require.True(t, o.CouponID.Valid)
	assert.Equal(t, couponID, o.CouponID.Int64)

	c, err := f.coupons.Get(couponID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsesCount)
}

func TestCheckoutProceedsWhenCouponRefused(t *testing.T) {
	f := newOrderFixture(t)
	pid := f.seedThousandProduct(t)
	couponID, err := f.coupons.Create(domain.Coupon{
		Code: "SPENT", DiscountType: domain.DiscountFixed,
		DiscountValue: 300, MaxUses: 1, UsesCount: 1, Active: true,
	})
	require.NoError(t, err)

	require.NoError(t, f.cart.Add("sid", pid, "40", 1))
	in := homeCheckout()
	in.CouponCode = "SPENT"

	res, err := f.svc.Create("sid", in)
	require.NoError(t, err)
	assert.InDelta(t, 1500, res.TotalAmount, 0.001) // full price + fee
	assert.Equal(t, "Coupon usage limit reached", res.CouponRejection)

	o, err := f.orders.Get(res.OrderID)
	require.NoError(t, err)
	assert.False(t, o.CouponID.Valid)
	assert.InDelta(t, 0, o.DiscountAmount, 0.001)

	c, err := f.coupons.Get(couponID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsesCount)
}

func TestCheckoutOverdrawNamesProductAndSize(t *testing.T) {
	f := newOrderFixture(t)
	// Street Low size 42 has two units; claim both, then shrink stock
	// behind the cart's back.
	require.NoError(t, f.cart.Add("sid", 2, "42", 2))
	_, err := f.db.Exec(`UPDATE product_sizes SET quantity=1 WHERE product_id=2 AND size='42'`)
	require.NoError(t, err)

	_, err = f.svc.Create("sid", homeCheckout())
	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Insufficient stock for Street Low (Size: 42)", se.Msg)

	// Nothing was written.
	var n int
	require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, n)
}

func TestOrderCreateIsAtomicOnStockConflict(t *testing.T) {
	f := newOrderFixture(t)
	couponID, err := f.coupons.Create(domain.Coupon{
		Code: "ATOM", DiscountType: domain.DiscountFixed, DiscountValue: 100, Active: true,
	})
	require.NoError(t, err)

	o := domain.Order{
		FullName: "X", Phone: "0550000000", WilayaCode: 16,
		DeliveryType: domain.DeliveryHome,
		CouponID:     sql.NullInt64{Int64: couponID, Valid: true},
		CartTotal:    7500, TotalAmount: 7900, DeliveryFee: 500, DiscountAmount: 100,
	}
	// Runner Classic size 41 holds six units; first line drains them so the
	// second line's guarded decrement hits zero rows.
	_, err = f.orders.Create(o, []repos.NewOrderLine{
		{ProductID: 1, Size: "41", Quantity: 6, Price: 7500},
		{ProductID: 1, Size: "41", Quantity: 1, Price: 7500},
	})
	require.ErrorIs(t, err, repos.ErrStockConflict)

	var n int
	require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, n)
	require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM order_items`))
	assert.Zero(t, n)
	assert.Equal(t, 6, f.sizeQty(t, 1, "41"))

	c, err := f.coupons.Get(couponID)
	require.NoError(t, err)
	assert.Equal(t, 0, c.UsesCount)
}

func TestCheckoutValidatesBeforeAnyWrite(t *testing.T) {
	f := newOrderFixture(t)
	pid := f.seedThousandProduct(t)
	require.NoError(t, f.cart.Add("sid", pid, "40", 2))

	in := homeCheckout()
	in.Address = ""
	_, err := f.svc.Create("sid", in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Address is required for home delivery", ve.Msg)

	// Stock untouched, cart intact.
	assert.Equal(t, 10, f.sizeQty(t, pid, "40"))
	lines, err := f.cart.Contents("sid")
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	in = homeCheckout()
	in.Phone = ""
	_, err = f.svc.Create("sid", in)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Missing required field: phone", ve.Msg)

	in = homeCheckout()
	in.Email = "not-an-email"
	_, err = f.svc.Create("sid", in)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Invalid email format", ve.Msg)
}

func TestCheckoutRejectsBadPickupDesk(t *testing.T) {
	f := newOrderFixture(t)
	pid := f.seedThousandProduct(t)
	require.NoError(t, f.cart.Add("sid", pid, "40", 1))

	deskCheckout := func(deskID int64) CheckoutInput {
		in := homeCheckout()
		in.DeliveryType = domain.DeliveryDeskPickup
		in.Address = ""
		in.PickupDeskID = deskID
		return in
	}

	var ve *ValidationError

	// No such desk.
	_, err := f.svc.Create("sid", deskCheckout(999))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Invalid pickup desk", ve.Msg)

	// Desk 3 is in Oran, the order ships to Algiers.
	_, err = f.svc.Create("sid", deskCheckout(3))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Invalid pickup desk", ve.Msg)

	// Nothing was written along the way.
	assert.Equal(t, 10, f.sizeQty(t, pid, "40"))
	lines, err := f.cart.Contents("sid")
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	res, err := f.svc.Create("sid", deskCheckout(1))
	require.NoError(t, err)
	assert.InDelta(t, 1300, res.TotalAmount, 0.001) // 1000 + 300 desk fee
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.Create("sid", homeCheckout())
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestUnpricedWilayaShipsFree(t *testing.T) {
	f := newOrderFixture(t)
	pid := f.seedThousandProduct(t)
	require.NoError(t, f.cart.Add("sid", pid, "40", 1))

	in := homeCheckout()
	in.WilayaCode = 45 // valid code, no fee row seeded

	res, err := f.svc.Create("sid", in)
	require.NoError(t, err)
	assert.InDelta(t, 1000, res.TotalAmount, 0.001)

	o, err := f.orders.Get(res.OrderID)
	require.NoError(t, err)
	assert.InDelta(t, 0, o.DeliveryFee, 0.001)
}

func TestStatusTracksAreRoleScoped(t *testing.T) {
	f := newOrderFixture(t)
	pid := f.seedThousandProduct(t)
	require.NoError(t, f.cart.Add("sid", pid, "40", 1))
	res, err := f.svc.Create("sid", homeCheckout())
	require.NoError(t, err)
	id := res.OrderID

	// Delivery agents own fulfillment, not the sales track.
	err = f.svc.SetSalesStatus(domain.RoleDeliveryAgent, id, domain.SalesConfirmed, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	err = f.svc.SetPaymentStatus(domain.RoleDeliveryAgent, id, domain.PaymentPaid)
	assert.ErrorIs(t, err, ErrForbidden)

	// Fulfillment cannot start before sales confirms.
	var ve *ValidationError
	err = f.svc.SetDeliveryStatus(domain.RoleDeliveryAgent, id, domain.FulfillmentReady, nil)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "order must be confirmed before fulfillment", ve.Msg)

	obs := "confirmed by phone"
	require.NoError(t, f.svc.SetSalesStatus(domain.RoleCallAgent, id, domain.SalesConfirmed, &obs))

	// Call agents own sales and payment, not fulfillment.
	err = f.svc.SetDeliveryStatus(domain.RoleCallAgent, id, domain.FulfillmentReady, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.svc.SetDeliveryStatus(domain.RoleDeliveryAgent, id, domain.FulfillmentReady, nil))
	require.NoError(t, f.svc.SetDeliveryStatus(domain.RoleDeliveryAgent, id, domain.FulfillmentDelivered, nil))
	require.NoError(t, f.svc.SetPaymentStatus(domain.RoleCallAgent, id, domain.PaymentPaid))

	o, err := f.orders.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.SalesConfirmed, o.OrderStatus)
	assert.Equal(t, domain.FulfillmentDelivered, o.DeliveryStatus)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	require.True(t, o.ObservationNotes.Valid)
	assert.Equal(t, "confirmed by phone", o.ObservationNotes.String)
}

func TestSalesStatusIsTerminal(t *testing.T) {
	f := newOrderFixture(t)
	pid := f.seedThousandProduct(t)
	require.NoError(t, f.cart.Add("sid", pid, "40", 1))
	res, err := f.svc.Create("sid", homeCheckout())
	require.NoError(t, err)

	require.NoError(t, f.svc.SetSalesStatus(domain.RoleCallAgent, res.OrderID, domain.SalesCanceled, nil))

	var ve *ValidationError
	err = f.svc.SetSalesStatus(domain.RoleCallAgent, res.OrderID, domain.SalesConfirmed, nil)
	require.ErrorAs(t, err, &ve)

	// Delivered and returned are terminal on the fulfillment track too.
	err = f.svc.SetDeliveryStatus(domain.RoleDeliveryAgent, res.OrderID, domain.FulfillmentReady, nil)
	require.ErrorAs(t, err, &ve)
}
