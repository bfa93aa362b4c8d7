package repos

import (
	"errors"
	"fmt"

	"loudim/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// ErrStockConflict means a size's stock changed under us inside the order
// transaction; the whole order is rolled back.
var ErrStockConflict = errors.New("stock changed during checkout")

// ErrCouponExhausted means the coupon hit its usage cap between evaluation
// and commit; the order is rolled back rather than record an unpaid use.
var ErrCouponExhausted = errors.New("coupon usage limit reached")

type NewOrderLine struct {
	ProductID int64
	Size      string
	Quantity  int
	Price     float64 // snapshot: discount price if set, else list price
}

// Create is the single durable-writing phase of checkout: order header, item
// snapshots, per-size stock decrements and the coupon usage increment commit
// together or not at all.
//
// The decrement is guarded (quantity >= n) so two concurrent checkouts for
// the last unit cannot both succeed; zero rows affected aborts the order.
func (r *OrderRepo) Create(o domain.Order, lines []NewOrderLine) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
	  INSERT INTO orders(full_name, phone, email, wilaya_code, delivery_type,
	    address, pickup_desk_id, coupon_id, cart_total, delivery_fee,
	    discount_amount, total_amount, payment_status, order_status, delivery_status)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,'pending','pending','')
	`, o.FullName, o.Phone, o.Email, o.WilayaCode, o.DeliveryType,
		o.Address, o.PickupDeskID, o.CouponID, o.CartTotal, o.DeliveryFee,
		o.DiscountAmount, o.TotalAmount)
	if err != nil {
		return 0, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, l := range lines {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, product_id, size, quantity, price)
		  VALUES(?,?,?,?,?)
		`, orderID, l.ProductID, l.Size, l.Quantity, l.Price); err != nil {
			return 0, err
		}

		dec, err := tx.Exec(`
		  UPDATE product_sizes SET quantity = quantity - ?
		  WHERE product_id = ? AND size = ? AND quantity >= ?
		`, l.Quantity, l.ProductID, l.Size, l.Quantity)
		if err != nil {
			return 0, err
		}
		if n, _ := dec.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("%w: product %d size %s", ErrStockConflict, l.ProductID, l.Size)
		}
	}

	if o.CouponID.Valid {
		inc, err := tx.Exec(`
		  UPDATE coupons SET uses_count = uses_count + 1
		  WHERE id = ? AND (max_uses = 0 OR uses_count < max_uses)
		`, o.CouponID.Int64)
		if err != nil {
			return 0, err
		}
		if n, _ := inc.RowsAffected(); n == 0 {
			return 0, ErrCouponExhausted
		}
	}

	return orderID, tx.Commit()
}

func (r *OrderRepo) Get(id int64) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `SELECT * FROM orders WHERE id = ?`, id)
	return o, err
}

type OrderItemRow struct {
	domain.OrderItem
	NameEN   string  `db:"name_en"`
	Subtotal float64 `db:"subtotal"`
}

func (r *OrderRepo) Items(orderID int64) ([]OrderItemRow, error) {
	var out []OrderItemRow
	err := r.db.Select(&out, `
	  SELECT oi.id, oi.order_id, oi.product_id, oi.size, oi.quantity, oi.price,
	         COALESCE(p.name_en,'') AS name_en,
	         (oi.quantity * oi.price) AS subtotal
	  FROM order_items oi
	  LEFT JOIN products p ON p.id = oi.product_id
	  WHERE oi.order_id = ?
	  ORDER BY oi.id
	`, orderID)
	return out, err
}

type OrderFilter struct {
	OrderStatus    string
	PaymentStatus  string
	DeliveryStatus string
	WilayaCode     int
	Limit          int
	Offset         int
}

type OrderSummary struct {
	ID             int64   `db:"id"`
	FullName       string  `db:"full_name"`
	Phone          string  `db:"phone"`
	WilayaCode     int     `db:"wilaya_code"`
	DeliveryType   string  `db:"delivery_type"`
	TotalAmount    float64 `db:"total_amount"`
	PaymentStatus  string  `db:"payment_status"`
	OrderStatus    string  `db:"order_status"`
	DeliveryStatus string  `db:"delivery_status"`
	ItemCount      int     `db:"item_count"`
	CreatedAt      string  `db:"created_at"`
}

func (r *OrderRepo) List(f OrderFilter) ([]OrderSummary, error) {
	where := `1=1`
	args := []any{}
	if f.OrderStatus != "" {
		where += ` AND o.order_status = ?`
		args = append(args, f.OrderStatus)
	}
	if f.PaymentStatus != "" {
		where += ` AND o.payment_status = ?`
		args = append(args, f.PaymentStatus)
	}
	if f.DeliveryStatus != "" {
		where += ` AND o.delivery_status = ?`
		args = append(args, f.DeliveryStatus)
	}
	if f.WilayaCode > 0 {
		where += ` AND o.wilaya_code = ?`
		args = append(args, f.WilayaCode)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Offset)

	var out []OrderSummary
	err := r.db.Select(&out, `
	  SELECT o.id, o.full_name, o.phone, o.wilaya_code, o.delivery_type,
	         o.total_amount, o.payment_status, o.order_status, o.delivery_status,
	         COUNT(oi.id) AS item_count, o.created_at
	  FROM orders o
	  LEFT JOIN order_items oi ON oi.order_id = o.id
	  WHERE `+where+`
	  GROUP BY o.id
	  ORDER BY datetime(o.created_at) DESC, o.id DESC
	  LIMIT ? OFFSET ?`, args...)
	return out, err
}

func (r *OrderRepo) UpdateSalesStatus(id int64, status string, observation *string) error {
	if observation != nil {
		_, err := r.db.Exec(`
		  UPDATE orders SET order_status=?, observation_notes=? WHERE id=?
		`, status, *observation, id)
		return err
	}
	_, err := r.db.Exec(`UPDATE orders SET order_status=? WHERE id=?`, status, id)
	return err
}

func (r *OrderRepo) UpdateDeliveryStatus(id int64, status string, note *string) error {
	if note != nil {
		_, err := r.db.Exec(`
		  UPDATE orders SET delivery_status=?, delivery_note=? WHERE id=?
		`, status, *note, id)
		return err
	}
	_, err := r.db.Exec(`UPDATE orders SET delivery_status=? WHERE id=?`, status, id)
	return err
}

func (r *OrderRepo) UpdatePaymentStatus(id int64, status string) error {
	_, err := r.db.Exec(`UPDATE orders SET payment_status=? WHERE id=?`, status, id)
	return err
}

// ---------- Dashboard statistics ----------

type StatusCount struct {
	Status string `db:"order_status"`
	Count  int    `db:"count"`
}

type RevenuePoint struct {
	Date       string  `db:"date"`
	OrderCount int     `db:"order_count"`
	Revenue    float64 `db:"revenue"`
}

type TopProduct struct {
	ProductID     int64  `db:"product_id"`
	NameEN        string `db:"name_en"`
	OrderCount    int    `db:"order_count"`
	TotalQuantity int    `db:"total_quantity"`
}

func (r *OrderRepo) CountByStatus() ([]StatusCount, error) {
	var out []StatusCount
	err := r.db.Select(&out, `
	  SELECT order_status, COUNT(*) AS count FROM orders GROUP BY order_status`)
	return out, err
}

func (r *OrderRepo) RevenueTrend(days int) ([]RevenuePoint, error) {
	var out []RevenuePoint
	err := r.db.Select(&out, `
	  SELECT DATE(created_at) AS date,
	         COUNT(*) AS order_count,
	         SUM(total_amount) AS revenue
	  FROM orders
	  WHERE DATE(created_at) >= DATE('now', ?)
	  GROUP BY DATE(created_at)
	  ORDER BY date`, fmt.Sprintf("-%d day", days))
	return out, err
}

func (r *OrderRepo) TopProducts(days, limit int) ([]TopProduct, error) {
	var out []TopProduct
	err := r.db.Select(&out, `
	  SELECT oi.product_id, COALESCE(p.name_en,'') AS name_en,
	         COUNT(oi.id) AS order_count,
	         SUM(oi.quantity) AS total_quantity
	  FROM order_items oi
	  JOIN orders o ON o.id = oi.order_id
	  LEFT JOIN products p ON p.id = oi.product_id
	  WHERE DATE(o.created_at) >= DATE('now', ?)
	  GROUP BY oi.product_id
	  ORDER BY total_quantity DESC
	  LIMIT ?`, fmt.Sprintf("-%d day", days), limit)
	return out, err
}
