package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"loudim/internal/log"
	"loudim/internal/services"
	"loudim/internal/validate"
)

// APIHandler is the JSON surface the storefront pages call from the browser.
// Responses always carry success plus either payload fields or error_message.
type APIHandler struct {
	Cart     *services.CartService
	Coupon   *services.CouponService
	Delivery *services.DeliveryService
	Orders   *services.OrderService
}

func apiError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error_message": msg})
}

// ApplyCoupon evaluates a code against the submitted subtotal. Evaluation
// never charges usage; that happens inside the order transaction.
func (h *APIHandler) ApplyCoupon(c *fiber.Ctx) error {
	var req struct {
		CouponCode string  `json:"coupon_code"`
		CartTotal  float64 `json:"cart_total"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	code, ok := validate.CouponCode(req.CouponCode)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "Missing required field: coupon_code")
	}
	if req.CartTotal <= 0 {
		return apiError(c, fiber.StatusBadRequest, "Missing required field: cart_total")
	}

	res, err := h.Coupon.Evaluate(code, req.CartTotal)
	if err != nil {
		var ce *services.CouponError
		if errors.As(err, &ce) {
			return c.JSON(fiber.Map{"success": false, "error_message": ce.Msg})
		}
		log.Error(c, "api.coupon.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "Internal Server Error")
	}
	return c.JSON(fiber.Map{
		"success":         true,
		"coupon_id":       res.CouponID,
		"discount_amount": res.DiscountAmount,
	})
}

// DeliveryOptions returns region fees and active pickup desks for one wilaya.
func (h *APIHandler) DeliveryOptions(c *fiber.Ctx) error {
	code, ok := validate.Wilaya(c.Query("wilaya_code"))
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "Invalid wilaya_code")
	}

	opts, err := h.Delivery.OptionsFor(code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apiError(c, fiber.StatusNotFound, "Wilaya not found")
		}
		log.Error(c, "api.delivery_options.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	desks := make([]fiber.Map, 0, len(opts.Desks))
	for _, d := range opts.Desks {
		desks = append(desks, fiber.Map{
			"id":      d.ID,
			"name":    d.Name(),
			"address": d.Address(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"wilaya": fiber.Map{
			"code": opts.City.WilayaCode,
			"name": opts.City.Name(),
		},
		"delivery_fees": fiber.Map{
			"home": opts.City.HomeFee,
			"desk": opts.City.DeskFee,
		},
		"pickup_desks": desks,
	})
}

// ProcessOrder runs the checkout for the caller's session cart.
func (h *APIHandler) ProcessOrder(c *fiber.Ctx) error {
	var req struct {
		FullName     string `json:"full_name"`
		Phone        string `json:"phone"`
		Email        string `json:"email"`
		WilayaCode   int    `json:"wilaya_code"`
		DeliveryType string `json:"delivery_type"`
		Address      string `json:"address"`
		PickupDeskID int64  `json:"pickup_desk_id"`
		CouponCode   string `json:"coupon_code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	sid := ensureSID(c)
	res, err := h.Orders.Create(sid, services.CheckoutInput{
		FullName:     req.FullName,
		Phone:        req.Phone,
		Email:        req.Email,
		WilayaCode:   req.WilayaCode,
		DeliveryType: req.DeliveryType,
		Address:      req.Address,
		PickupDeskID: req.PickupDeskID,
		CouponCode:   req.CouponCode,
	})
	if err != nil {
		var ve *services.ValidationError
		var se *services.StockError
		switch {
		case errors.As(err, &ve):
			return apiError(c, fiber.StatusBadRequest, ve.Msg)
		case errors.As(err, &se):
			return apiError(c, fiber.StatusBadRequest, se.Msg)
		case errors.Is(err, services.ErrCartEmpty):
			return apiError(c, fiber.StatusBadRequest, "Cart is empty")
		}
		log.Error(c, "api.order.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	log.Audit(c, "order.create", map[string]any{
		"order_id": res.OrderID,
		"total":    res.TotalAmount,
		"wilaya":   req.WilayaCode,
	})
	out := fiber.Map{
		"success":      true,
		"order_id":     res.OrderID,
		"total_amount": res.TotalAmount,
	}
	if res.CouponRejection != "" {
		out["coupon_message"] = res.CouponRejection
	}
	return c.JSON(out)
}

// RemoveFromCart drops one size line from the session cart.
func (h *APIHandler) RemoveFromCart(c *fiber.Ctx) error {
	var req struct {
		ProductID int64  `json:"product_id"`
		Size      string `json:"size"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ProductID <= 0 {
		return apiError(c, fiber.StatusBadRequest, "Missing required field: product_id")
	}
	size, ok := validate.Size(req.Size)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "Missing required field: size")
	}

	sid := ensureSID(c)
	if !h.Cart.Remove(sid, req.ProductID, size) {
		return c.JSON(fiber.Map{"success": false, "error_message": "Item not found in cart"})
	}
	total, err := h.Cart.Subtotal(sid)
	if err != nil {
		log.Error(c, "api.cart.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "Internal Server Error")
	}
	return c.JSON(fiber.Map{"success": true, "new_cart_total": total})
}

// UpdateCartItem sets the absolute quantity of one size line. Zero does not
// remove here; the storefront calls remove_from_cart for that.
func (h *APIHandler) UpdateCartItem(c *fiber.Ctx) error {
	var req struct {
		ProductID   int64  `json:"product_id"`
		Size        string `json:"size"`
		NewQuantity int    `json:"new_quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ProductID <= 0 {
		return apiError(c, fiber.StatusBadRequest, "Missing required field: product_id")
	}
	size, ok := validate.Size(req.Size)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "Missing required field: size")
	}
	if req.NewQuantity <= 0 {
		return apiError(c, fiber.StatusBadRequest, "Quantity must be at least 1")
	}

	sid := ensureSID(c)
	if err := h.Cart.UpdateQuantity(sid, req.ProductID, size, req.NewQuantity); err != nil {
		switch {
		case errors.Is(err, services.ErrItemNotFound):
			return c.JSON(fiber.Map{"success": false, "error_message": "Item not found in cart"})
		case errors.Is(err, services.ErrInsufficientStock):
			return c.JSON(fiber.Map{"success": false, "error_message": "Insufficient stock"})
		case errors.Is(err, services.ErrProductUnavailable), errors.Is(err, services.ErrProductNotFound):
			return c.JSON(fiber.Map{"success": false, "error_message": "Product is unavailable"})
		}
		log.Error(c, "api.cart.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	lines, err := h.Cart.Contents(sid)
	if err != nil {
		log.Error(c, "api.cart.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "Internal Server Error")
	}
	var lineTotal, cartTotal float64
	for _, l := range lines {
		cartTotal += l.LineTotal
		if l.ProductID == req.ProductID && l.Size == size {
			lineTotal = l.LineTotal
		}
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"updated_subtotal": lineTotal,
		"new_cart_total":   cartTotal,
	})
}
