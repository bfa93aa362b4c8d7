package services

import "errors"

// Failure classes surfaced to the HTTP boundary. Handlers translate these to
// statuses and user-facing messages; anything else is a persistence error and
// stays generic.
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidSize        = errors.New("invalid size")
	ErrInsufficientStock  = errors.New("not enough stock available")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrItemNotFound       = errors.New("item not found in cart")
	ErrCartEmpty          = errors.New("cart is empty")

	ErrBadCreds  = errors.New("invalid username or password")
	ErrForbidden = errors.New("not allowed for this role")
)

// ValidationError is a checkout input failure; the message names the field
// and is safe to show to the customer verbatim.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// CouponError is an evaluation rejection. It never aborts checkout on its
// own; process_order proceeds without the discount.
type CouponError struct{ Msg string }

func (e *CouponError) Error() string { return e.Msg }

// StockError names the product and size that fell short.
type StockError struct{ Msg string }

func (e *StockError) Error() string { return e.Msg }
