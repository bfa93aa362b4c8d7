package repos

import (
	"loudim/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CouponRepo struct{ db *sqlx.DB }

func NewCouponRepo(db *sqlx.DB) *CouponRepo { return &CouponRepo{db: db} }

const couponCols = `
  id, code, discount_type, discount_value, min_purchase, max_discount,
  max_uses, uses_count, starts_at, ends_at, is_active, created_at`

// ActiveByCode looks up a usable coupon: exact-case code match, active flag
// set, and "now" inside the validity window when the window is bounded.
func (r *CouponRepo) ActiveByCode(code string) (domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.Get(&c, `
	  SELECT `+couponCols+` FROM coupons
	  WHERE code = ? AND is_active = 1
	    AND (starts_at IS NULL OR starts_at <= CURRENT_TIMESTAMP)
	    AND (ends_at IS NULL OR ends_at >= CURRENT_TIMESTAMP)
	`, code)
	return c, err
}

func (r *CouponRepo) List() ([]domain.Coupon, error) {
	var out []domain.Coupon
	err := r.db.Select(&out, `SELECT `+couponCols+` FROM coupons ORDER BY created_at DESC`)
	return out, err
}

func (r *CouponRepo) Get(id int64) (domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.Get(&c, `SELECT `+couponCols+` FROM coupons WHERE id=?`, id)
	return c, err
}

func (r *CouponRepo) Create(c domain.Coupon) (int64, error) {
	res, err := r.db.Exec(`
	  INSERT INTO coupons(code,discount_type,discount_value,min_purchase,
	    max_discount,max_uses,uses_count,starts_at,ends_at,is_active)
	  VALUES(?,?,?,?,?,?,?,?,?,?)
	`, c.Code, c.DiscountType, c.DiscountValue, c.MinPurchase,
		c.MaxDiscount, c.MaxUses, c.UsesCount, c.StartsAt, c.EndsAt, c.Active)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update never touches uses_count; redemption is charged only through the
// guarded increment inside the order transaction.
func (r *CouponRepo) Update(c domain.Coupon) error {
	_, err := r.db.Exec(`
	  UPDATE coupons SET code=?, discount_type=?, discount_value=?,
	    min_purchase=?, max_discount=?, max_uses=?, starts_at=?, ends_at=?, is_active=?
	  WHERE id=?
	`, c.Code, c.DiscountType, c.DiscountValue, c.MinPurchase,
		c.MaxDiscount, c.MaxUses, c.StartsAt, c.EndsAt, c.Active, c.ID)
	return err
}

func (r *CouponRepo) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM coupons WHERE id=?`, id)
	return err
}
