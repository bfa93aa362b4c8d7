package services

import (
	"database/sql"
	"errors"
	"fmt"

	"loudim/internal/authz"
	"loudim/internal/domain"
	"loudim/internal/repos"
	"loudim/internal/validate"
)

type OrderService struct {
	Cart     *CartService
	Coupons  *CouponService
	Delivery *DeliveryService
	Orders   *repos.OrderRepo
	Prods    *repos.ProductRepo
}

func NewOrderService(cartSvc *CartService, coupons *CouponService, delivery *DeliveryService,
	orders *repos.OrderRepo, prods *repos.ProductRepo) *OrderService {
	return &OrderService{Cart: cartSvc, Coupons: coupons, Delivery: delivery, Orders: orders, Prods: prods}
}

type CheckoutInput struct {
	FullName     string
	Phone        string
	Email        string
	WilayaCode   int
	DeliveryType string
	Address      string
	PickupDeskID int64
	CouponCode   string
}

type CheckoutResult struct {
	OrderID     int64
	TotalAmount float64
	// CouponRejection carries the evaluator's message when a submitted code
	// was refused; the order still went through at full price.
	CouponRejection string
}

func (in CheckoutInput) validate() error {
	if _, ok := validate.Name(in.FullName); !ok {
		return &ValidationError{Msg: "Missing required field: full_name"}
	}
	if _, ok := validate.Phone(in.Phone); !ok {
		return &ValidationError{Msg: "Missing required field: phone"}
	}
	if !validate.WilayaCode(in.WilayaCode) {
		return &ValidationError{Msg: "Missing required field: wilaya_code"}
	}
	if _, ok := validate.DeliveryType(in.DeliveryType); !ok {
		return &ValidationError{Msg: "Missing required field: delivery_type"}
	}
	if in.DeliveryType == domain.DeliveryHome && in.Address == "" {
		return &ValidationError{Msg: "Address is required for home delivery"}
	}
	if in.DeliveryType == domain.DeliveryDeskPickup && in.PickupDeskID <= 0 {
		return &ValidationError{Msg: "Pickup desk is required for desk delivery"}
	}
	if in.Email != "" {
		if _, ok := validate.Email(in.Email); !ok {
			return &ValidationError{Msg: "Invalid email format"}
		}
	}
	return nil
}

// Create runs the whole checkout: fail-fast validation and stock re-check,
// pricing, then the one atomic persist. The cart is cleared only after the
// transaction commits, so a failed checkout can simply be retried.
func (s *OrderService) Create(sid string, in CheckoutInput) (CheckoutResult, error) {
	if err := in.validate(); err != nil {
		return CheckoutResult{}, err
	}
	if in.DeliveryType == domain.DeliveryDeskPickup {
		if err := s.Delivery.ValidatePickupDesk(in.WilayaCode, in.PickupDeskID); err != nil {
			return CheckoutResult{}, err
		}
	}

	items, err := s.Cart.Contents(sid)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(items) == 0 {
		return CheckoutResult{}, ErrCartEmpty
	}

	// Stock re-check against current catalog state; guards against changes
	// between cart-build and checkout.
	for _, it := range items {
		qty, err := s.Prods.SizeQuantity(it.ProductID, it.Size)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return CheckoutResult{}, &StockError{Msg: fmt.Sprintf(
					"Insufficient stock for %s (Size: %s)", it.Name.EN, it.Size)}
			}
			return CheckoutResult{}, err
		}
		if qty < it.Quantity {
			return CheckoutResult{}, &StockError{Msg: fmt.Sprintf(
				"Insufficient stock for %s (Size: %s)", it.Name.EN, it.Size)}
		}
	}

	fee, err := s.Delivery.FeeFor(in.WilayaCode, in.DeliveryType)
	if err != nil {
		return CheckoutResult{}, err
	}

	// Subtotal is re-derived server-side, never trusted from the client.
	subtotal := 0.0
	for _, it := range items {
		subtotal += it.LineTotal
	}

	var discount float64
	var couponID sql.NullInt64
	var couponRejection string
	if in.CouponCode != "" {
		res, err := s.Coupons.Evaluate(in.CouponCode, subtotal)
		var cerr *CouponError
		switch {
		case err == nil:
			discount = res.DiscountAmount
			couponID = sql.NullInt64{Int64: res.CouponID, Valid: true}
		case errors.As(err, &cerr):
			// A refused code does not abort checkout; the order proceeds
			// at full price and the rejection is reported alongside.
			couponRejection = cerr.Msg
		default:
			return CheckoutResult{}, err
		}
	}

	total := subtotal + fee - discount

	o := domain.Order{
		FullName:       in.FullName,
		Phone:          in.Phone,
		WilayaCode:     in.WilayaCode,
		DeliveryType:   in.DeliveryType,
		CouponID:       couponID,
		CartTotal:      subtotal,
		DeliveryFee:    fee,
		DiscountAmount: discount,
		TotalAmount:    total,
	}
	if in.Email != "" {
		o.Email = sql.NullString{String: in.Email, Valid: true}
	}
	if in.DeliveryType == domain.DeliveryHome {
		o.Address = sql.NullString{String: in.Address, Valid: true}
	} else {
		o.PickupDeskID = sql.NullInt64{Int64: in.PickupDeskID, Valid: true}
	}

	lines := make([]repos.NewOrderLine, 0, len(items))
	for _, it := range items {
		price := it.Price
		if it.DiscountPrice != nil {
			price = *it.DiscountPrice
		}
		lines = append(lines, repos.NewOrderLine{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     price,
		})
	}

	orderID, err := s.Orders.Create(o, lines)
	if err != nil {
		if errors.Is(err, repos.ErrStockConflict) {
			return CheckoutResult{}, &StockError{Msg: "Not enough stock available"}
		}
		return CheckoutResult{}, err
	}

	s.Cart.Clear(sid)
	return CheckoutResult{OrderID: orderID, TotalAmount: total, CouponRejection: couponRejection}, nil
}

// ---------- Status manager ----------

// The sales track moves only out of pending; confirmed/canceled/no_answer
// are terminal for the call center.
var salesTransitions = map[string][]string{
	domain.SalesPending: {domain.SalesConfirmed, domain.SalesCanceled, domain.SalesNoAnswer},
}

// The fulfillment track starts empty, opens once sales confirms, and ends at
// delivered or returned.
var fulfillmentTransitions = map[string][]string{
	"":                         {domain.FulfillmentReady, domain.FulfillmentNotReady},
	domain.FulfillmentReady:    {domain.FulfillmentNotReady, domain.FulfillmentDelivered, domain.FulfillmentReturned},
	domain.FulfillmentNotReady: {domain.FulfillmentReady, domain.FulfillmentDelivered, domain.FulfillmentReturned},
}

func allowedTransition(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SetSalesStatus is the call-center transition: pending → confirmed,
// canceled or no_answer, optionally attaching an observation note.
func (s *OrderService) SetSalesStatus(role string, orderID int64, status string, observation *string) error {
	if !authz.Allowed(role, authz.SetSalesStatus) {
		return ErrForbidden
	}
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return err
	}
	if !allowedTransition(salesTransitions, o.OrderStatus, status) {
		return &ValidationError{Msg: fmt.Sprintf("cannot move order from %s to %s", o.OrderStatus, status)}
	}
	return s.Orders.UpdateSalesStatus(orderID, status, observation)
}

// SetDeliveryStatus is the fulfillment transition; it additionally requires
// the sales track to have reached confirmed.
func (s *OrderService) SetDeliveryStatus(role string, orderID int64, status string, note *string) error {
	if !authz.Allowed(role, authz.SetDeliveryStatus) {
		return ErrForbidden
	}
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return err
	}
	if o.OrderStatus != domain.SalesConfirmed {
		return &ValidationError{Msg: "order must be confirmed before fulfillment"}
	}
	if !allowedTransition(fulfillmentTransitions, o.DeliveryStatus, status) {
		return &ValidationError{Msg: fmt.Sprintf("cannot move delivery from %q to %s", o.DeliveryStatus, status)}
	}
	return s.Orders.UpdateDeliveryStatus(orderID, status, note)
}

// SetPaymentStatus: the payment enum is unordered, any value may be set by
// an authorized role.
func (s *OrderService) SetPaymentStatus(role string, orderID int64, status string) error {
	if !authz.Allowed(role, authz.SetPaymentStatus) {
		return ErrForbidden
	}
	switch status {
	case domain.PaymentPending, domain.PaymentPaid, domain.PaymentRefunded:
	default:
		return &ValidationError{Msg: "invalid payment status"}
	}
	if _, err := s.Orders.Get(orderID); err != nil {
		return err
	}
	return s.Orders.UpdatePaymentStatus(orderID, status)
}
