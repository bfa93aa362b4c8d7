package domain

import "database/sql"

// Localized is the {en,fr,ar} shape the storefront JS expects for names
// and addresses coming out of the JSON API.
type Localized struct {
	EN string `json:"en"`
	FR string `json:"fr"`
	AR string `json:"ar"`
}

type Category struct {
	ID            int64  `db:"id"`
	NameEN        string `db:"name_en"`
	NameFR        string `db:"name_fr"`
	NameAR        string `db:"name_ar"`
	DescriptionEN string `db:"description_en"`
	DescriptionFR string `db:"description_fr"`
	DescriptionAR string `db:"description_ar"`
	Slug          string `db:"slug"`
	CreatedAt     string `db:"created_at"`
	UpdatedAt     string `db:"updated_at"`
}

type Product struct {
	ID            int64           `db:"id"`
	CategoryID    int64           `db:"category_id"`
	NameEN        string          `db:"name_en"`
	NameFR        string          `db:"name_fr"`
	NameAR        string          `db:"name_ar"`
	DescriptionEN string          `db:"description_en"`
	DescriptionFR string          `db:"description_fr"`
	DescriptionAR string          `db:"description_ar"`
	Price         float64         `db:"price"`
	DiscountPrice sql.NullFloat64 `db:"discount_price"`
	Active        bool            `db:"is_active"`
	CreatedAt     string          `db:"created_at"`
	UpdatedAt     string          `db:"updated_at"`

	Images []ProductImage `db:"-"`
	Sizes  []ProductSize  `db:"-"`
}

// EffectivePrice is the discount price when one is set, else the list price.
func (p Product) EffectivePrice() float64 {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Float64
	}
	return p.Price
}

func (p Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.Primary {
			return img.Path
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].Path
	}
	return ""
}

type ProductImage struct {
	ID        int64  `db:"id"`
	ProductID int64  `db:"product_id"`
	Path      string `db:"image_path"`
	Primary   bool   `db:"is_primary"`
}

// ProductSize is a per-size stock record; quantity is mutated only by the
// order transaction and the admin stock operations.
type ProductSize struct {
	ID        int64  `db:"id"`
	ProductID int64  `db:"product_id"`
	Size      string `db:"size"`
	Quantity  int    `db:"quantity"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	ID            int64          `db:"id"`
	Code          string         `db:"code"`
	DiscountType  string         `db:"discount_type"`
	DiscountValue float64        `db:"discount_value"`
	MinPurchase   float64        `db:"min_purchase"`
	MaxDiscount   float64        `db:"max_discount"` // 0 = uncapped
	MaxUses       int            `db:"max_uses"`     // 0 = unlimited
	UsesCount     int            `db:"uses_count"`
	StartsAt      sql.NullString `db:"starts_at"`
	EndsAt        sql.NullString `db:"ends_at"`
	Active        bool           `db:"is_active"`
	CreatedAt     string         `db:"created_at"`
}

type DeliveryCity struct {
	ID         int64   `db:"id"`
	WilayaCode int     `db:"wilaya_code"`
	NameEN     string  `db:"name_en"`
	NameFR     string  `db:"name_fr"`
	NameAR     string  `db:"name_ar"`
	HomeFee    float64 `db:"home_fee"`
	DeskFee    float64 `db:"desk_fee"`
}

func (c DeliveryCity) Name() Localized { return Localized{EN: c.NameEN, FR: c.NameFR, AR: c.NameAR} }

type DeliveryDesk struct {
	ID        int64  `db:"id"`
	WilayaID  int64  `db:"wilaya_id"`
	NameEN    string `db:"name_en"`
	NameFR    string `db:"name_fr"`
	NameAR    string `db:"name_ar"`
	AddressEN string `db:"address_en"`
	AddressFR string `db:"address_fr"`
	AddressAR string `db:"address_ar"`
	Phone     string `db:"phone"`
	Active    bool   `db:"is_active"`
}

func (d DeliveryDesk) Name() Localized { return Localized{EN: d.NameEN, FR: d.NameFR, AR: d.NameAR} }
func (d DeliveryDesk) Address() Localized {
	return Localized{EN: d.AddressEN, FR: d.AddressFR, AR: d.AddressAR}
}

const (
	DeliveryHome       = "home"
	DeliveryDeskPickup = "desk"
)

// Sales track, owned by the call center.
const (
	SalesPending   = "pending"
	SalesConfirmed = "confirmed"
	SalesCanceled  = "canceled"
	SalesNoAnswer  = "no_answer"
)

// Fulfillment track, owned by delivery agents. Empty until first set.
const (
	FulfillmentReady     = "ready"
	FulfillmentNotReady  = "not_ready"
	FulfillmentDelivered = "delivered"
	FulfillmentReturned  = "returned"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

type Order struct {
	ID               int64           `db:"id"`
	FullName         string          `db:"full_name"`
	Phone            string          `db:"phone"`
	Email            sql.NullString  `db:"email"`
	WilayaCode       int             `db:"wilaya_code"`
	DeliveryType     string          `db:"delivery_type"`
	Address          sql.NullString  `db:"address"`
	PickupDeskID     sql.NullInt64   `db:"pickup_desk_id"`
	CouponID         sql.NullInt64   `db:"coupon_id"`
	CartTotal        float64         `db:"cart_total"`
	DeliveryFee      float64         `db:"delivery_fee"`
	DiscountAmount   float64         `db:"discount_amount"`
	TotalAmount      float64         `db:"total_amount"`
	PaymentStatus    string          `db:"payment_status"`
	OrderStatus      string          `db:"order_status"`
	DeliveryStatus   string          `db:"delivery_status"`
	ObservationNotes sql.NullString  `db:"observation_notes"`
	DeliveryNote     sql.NullString  `db:"delivery_note"`
	CreatedAt        string          `db:"created_at"`
}

// OrderItem carries the price snapshot taken at order time; unlike cart
// lines it never tracks later catalog changes.
type OrderItem struct {
	ID        int64   `db:"id"`
	OrderID   int64   `db:"order_id"`
	ProductID int64   `db:"product_id"`
	Size      string  `db:"size"`
	Quantity  int     `db:"quantity"`
	Price     float64 `db:"price"`
}
