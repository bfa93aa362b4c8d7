package repos

import (
	"testing"

	"loudim/internal/domain"
)

func TestCouponCreateRoundTrips(t *testing.T) {
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := NewCouponRepo(db)
	id, err := repo.Create(domain.Coupon{
		Code: "SPENT", DiscountType: domain.DiscountFixed, DiscountValue: 200,
		MaxUses: 1, UsesCount: 1, Active: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsesCount != 1 {
		t.Fatalf("uses_count: expected 1, got %d", got.UsesCount)
	}
	if got.MaxUses != 1 || got.Code != "SPENT" || !got.Active {
		t.Fatalf("unexpected coupon: %+v", got)
	}
}
