package services

import (
	"database/sql"
	"errors"
	"sort"

	"loudim/internal/cart"
	"loudim/internal/domain"
	"loudim/internal/repos"
)

// CartService applies catalog rules to the session cart store: stock caps on
// every mutation, live price enrichment on every read.
type CartService struct {
	Store *cart.Store
	Prods *repos.ProductRepo
}

func NewCartService(store *cart.Store, prods *repos.ProductRepo) *CartService {
	return &CartService{Store: store, Prods: prods}
}

// CartLine is a cart entry enriched with current catalog data. Prices here
// are live, never snapshots; a later price change shows up on the next read.
type CartLine struct {
	ProductID     int64            `json:"product_id"`
	Size          string           `json:"size"`
	Quantity      int              `json:"quantity"`
	Name          domain.Localized `json:"name"`
	Price         float64          `json:"price"`
	DiscountPrice *float64         `json:"discount_price,omitempty"`
	ImagePath     string           `json:"image_path,omitempty"`
	LineTotal     float64          `json:"line_total"`
}

func (s *CartService) sizeStock(p domain.Product, size string) (int, bool) {
	for _, ps := range p.Sizes {
		if ps.Size == size {
			return ps.Quantity, true
		}
	}
	return 0, false
}

// Add merges qty into the line for (productID, size), enforcing the size's
// current stock as the ceiling for the merged quantity.
func (s *CartService) Add(sid string, productID int64, size string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return err
	}
	if !p.Active {
		return ErrProductUnavailable
	}
	avail, ok := s.sizeStock(p, size)
	if !ok {
		return ErrInvalidSize
	}
	key := cart.LineKey{ProductID: productID, Size: size}
	current := s.Store.Quantity(sid, key)
	if current+qty > avail {
		return ErrInsufficientStock
	}
	s.Store.Set(sid, key, current+qty)
	return nil
}

// UpdateQuantity sets an absolute quantity; zero removes the line.
func (s *CartService) UpdateQuantity(sid string, productID int64, size string, newQty int) error {
	if newQty < 0 {
		return ErrInvalidQuantity
	}
	key := cart.LineKey{ProductID: productID, Size: size}
	if newQty == 0 {
		if !s.Store.Remove(sid, key) {
			return ErrItemNotFound
		}
		return nil
	}
	if s.Store.Quantity(sid, key) == 0 {
		return ErrItemNotFound
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return err
	}
	avail, ok := s.sizeStock(p, size)
	if !ok {
		return ErrInvalidSize
	}
	if newQty > avail {
		return ErrInsufficientStock
	}
	s.Store.Set(sid, key, newQty)
	return nil
}

// Remove reports whether the line existed.
func (s *CartService) Remove(sid string, productID int64, size string) bool {
	return s.Store.Remove(sid, cart.LineKey{ProductID: productID, Size: size})
}

// Contents enriches every line from the live catalog. Lines whose product no
// longer exists are dropped from the result.
func (s *CartService) Contents(sid string) ([]CartLine, error) {
	lines := s.Store.Lines(sid)
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].Size < lines[j].Size
	})

	out := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		p, err := s.Prods.Get(l.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		cl := CartLine{
			ProductID: l.ProductID,
			Size:      l.Size,
			Quantity:  l.Quantity,
			Name:      domain.Localized{EN: p.NameEN, FR: p.NameFR, AR: p.NameAR},
			Price:     p.Price,
			ImagePath: p.PrimaryImage(),
			LineTotal: p.EffectivePrice() * float64(l.Quantity),
		}
		if p.DiscountPrice.Valid {
			v := p.DiscountPrice.Float64
			cl.DiscountPrice = &v
		}
		out = append(out, cl)
	}
	return out, nil
}

// Subtotal is the authoritative cart total used at checkout:
// Σ (discount price if set, else price) × quantity over current prices.
func (s *CartService) Subtotal(sid string) (float64, error) {
	lines, err := s.Contents(sid)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, l := range lines {
		total += l.LineTotal
	}
	return total, nil
}

func (s *CartService) Clear(sid string) { s.Store.Clear(sid) }
