package services

import (
	"database/sql"
	"errors"
	"fmt"

	"loudim/internal/domain"
	"loudim/internal/money"
	"loudim/internal/repos"
)

type CouponService struct {
	Coupons *repos.CouponRepo
}

func NewCouponService(coupons *repos.CouponRepo) *CouponService {
	return &CouponService{Coupons: coupons}
}

type CouponResult struct {
	CouponID       int64
	DiscountAmount float64
}

// Evaluate validates a code against a cart subtotal and computes the
// discount. It never mutates uses_count; usage is charged only when an
// order actually commits, so abandoned evaluations cost nothing.
//
// Rejection order matches the storefront contract: unknown/inactive/out of
// window, then minimum not met, then usage cap.
func (s *CouponService) Evaluate(code string, cartSubtotal float64) (CouponResult, error) {
	c, err := s.Coupons.ActiveByCode(code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CouponResult{}, &CouponError{Msg: "Invalid or expired coupon"}
		}
		return CouponResult{}, err
	}

	if cartSubtotal < c.MinPurchase {
		return CouponResult{}, &CouponError{
			Msg: fmt.Sprintf("Minimum order amount of %s required", money.Format(c.MinPurchase)),
		}
	}
	if c.MaxUses > 0 && c.UsesCount >= c.MaxUses {
		return CouponResult{}, &CouponError{Msg: "Coupon usage limit reached"}
	}

	var discount float64
	switch c.DiscountType {
	case domain.DiscountPercentage:
		discount = cartSubtotal * (c.DiscountValue / 100)
		if c.MaxDiscount > 0 && discount > c.MaxDiscount {
			discount = c.MaxDiscount
		}
	default: // fixed: never discount more than the order itself
		discount = c.DiscountValue
	}
	if discount > cartSubtotal {
		discount = cartSubtotal
	}

	return CouponResult{CouponID: c.ID, DiscountAmount: discount}, nil
}
