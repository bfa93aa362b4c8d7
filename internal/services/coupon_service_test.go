package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loudim/internal/domain"
	"loudim/internal/repos"
)

func newCouponFixture(t *testing.T) (*CouponService, *repos.CouponRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := repos.NewCouponRepo(db)
	return NewCouponService(repo), repo
}

func mustCreateCoupon(t *testing.T, repo *repos.CouponRepo, c domain.Coupon) int64 {
	t.Helper()
	id, err := repo.Create(c)
	require.NoError(t, err)
	return id
}

func TestPercentageDiscountClampedByCap(t *testing.T) {
	svc, repo := newCouponFixture(t)
	mustCreateCoupon(t, repo, domain.Coupon{
		Code: "PERC10", DiscountType: domain.DiscountPercentage,
		DiscountValue: 10, MinPurchase: 1000, MaxDiscount: 150, Active: true,
	})

	// 10% of 2000 is 200, capped to 150.
	res, err := svc.Evaluate("PERC10", 2000)
	require.NoError(t, err)
	assert.InDelta(t, 150, res.DiscountAmount, 0.001)

	// Below the cap the raw percentage applies.
	res, err = svc.Evaluate("PERC10", 1200)
	require.NoError(t, err)
	assert.InDelta(t, 120, res.DiscountAmount, 0.001)
}

func TestPercentageUncappedWhenMaxDiscountZero(t *testing.T) {
	svc, repo := newCouponFixture(t)
	mustCreateCoupon(t, repo, domain.Coupon{
		Code: "HALF", DiscountType: domain.DiscountPercentage,
		DiscountValue: 50, Active: true,
	})

	res, err := svc.Evaluate("HALF", 10000)
	require.NoError(t, err)
	assert.InDelta(t, 5000, res.DiscountAmount, 0.001)
}

func TestFixedDiscountNeverExceedsSubtotal(t *testing.T) {
	svc, repo := newCouponFixture(t)
	mustCreateCoupon(t, repo, domain.Coupon{
		Code: "MINUS500", DiscountType: domain.DiscountFixed,
		DiscountValue: 500, Active: true,
	})

	res, err := svc.Evaluate("MINUS500", 300)
	require.NoError(t, err)
	assert.InDelta(t, 300, res.DiscountAmount, 0.001)

	res, err = svc.Evaluate("MINUS500", 2000)
	require.NoError(t, err)
	assert.InDelta(t, 500, res.DiscountAmount, 0.001)
}

func TestEvaluateRejectionOrder(t *testing.T) {
	svc, repo := newCouponFixture(t)
	mustCreateCoupon(t, repo, domain.Coupon{
		Code: "STRICT", DiscountType: domain.DiscountFixed,
		DiscountValue: 100, MinPurchase: 1000, MaxUses: 1, UsesCount: 1, Active: true,
	})

	var ce *CouponError

	// Unknown code first.
	_, err := svc.Evaluate("NOPE", 5000)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Invalid or expired coupon", ce.Msg)

	// Minimum beats the exhausted cap when both apply.
	_, err = svc.Evaluate("STRICT", 500)
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, "Minimum order amount of")
	assert.Contains(t, ce.Msg, "1,000.00 DZD")

	_, err = svc.Evaluate("STRICT", 5000)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Coupon usage limit reached", ce.Msg)
}

func TestInactiveAndOutOfWindowCouponsAreInvalid(t *testing.T) {
	svc, repo := newCouponFixture(t)
	mustCreateCoupon(t, repo, domain.Coupon{
		Code: "OFF", DiscountType: domain.DiscountFixed, DiscountValue: 100, Active: false,
	})
	mustCreateCoupon(t, repo, domain.Coupon{
		Code: "PAST", DiscountType: domain.DiscountFixed, DiscountValue: 100, Active: true,
		EndsAt: sql.NullString{String: "2000-01-01 00:00:00", Valid: true},
	})
	mustCreateCoupon(t, repo, domain.Coupon{
		Code: "FUTURE", DiscountType: domain.DiscountFixed, DiscountValue: 100, Active: true,
		StartsAt: sql.NullString{String: "2100-01-01 00:00:00", Valid: true},
	})

	var ce *CouponError
	for _, code := range []string{"OFF", "PAST", "FUTURE"} {
		_, err := svc.Evaluate(code, 5000)
		require.ErrorAs(t, err, &ce, code)
		assert.Equal(t, "Invalid or expired coupon", ce.Msg, code)
	}
}

func TestEvaluateNeverChargesUsage(t *testing.T) {
	svc, repo := newCouponFixture(t)
	id := mustCreateCoupon(t, repo, domain.Coupon{
		Code: "FREEBIE", DiscountType: domain.DiscountFixed, DiscountValue: 100, MaxUses: 5, Active: true,
	})

	for i := 0; i < 3; i++ {
		_, err := svc.Evaluate("FREEBIE", 5000)
		require.NoError(t, err)
	}
	c, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 0, c.UsesCount)
}
