package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loudim/internal/cart"
	"loudim/internal/repos"
)

// Seed catalog: product 1 "Runner Classic" 7500 (40:10, 41:6, 42:0),
// product 2 "Street Low" 8900/7900 (41:4, 42:2), product 3 "Plain Tee"
// 1500 (M:25, L:12).
func newCartFixture(t *testing.T) (*CartService, *repos.ProductRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	prods := repos.NewProductRepo(db)
	return NewCartService(cart.NewStore(), prods), prods
}

func TestAddMergesPerSizeAndCapsAtStock(t *testing.T) {
	svc, _ := newCartFixture(t)

	require.NoError(t, svc.Add("sid", 1, "40", 6))
	require.NoError(t, svc.Add("sid", 1, "41", 2))

	// Merging 5 more into size 40 would exceed the 10 in stock.
	err := svc.Add("sid", 1, "40", 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	lines, err := svc.Contents("sid")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 6, lines[0].Quantity)
	assert.Equal(t, "40", lines[0].Size)
	assert.Equal(t, 2, lines[1].Quantity)
}

func TestAddRejectsBadInput(t *testing.T) {
	svc, _ := newCartFixture(t)

	assert.ErrorIs(t, svc.Add("sid", 999, "40", 1), ErrProductNotFound)
	assert.ErrorIs(t, svc.Add("sid", 1, "45", 1), ErrInvalidSize)
	assert.ErrorIs(t, svc.Add("sid", 1, "42", 1), ErrInsufficientStock) // zero stock
	assert.ErrorIs(t, svc.Add("sid", 1, "40", 0), ErrInvalidQuantity)
}

func TestUpdateQuantityIsAbsolute(t *testing.T) {
	svc, _ := newCartFixture(t)
	require.NoError(t, svc.Add("sid", 1, "41", 2))

	require.NoError(t, svc.UpdateQuantity("sid", 1, "41", 6))
	assert.ErrorIs(t, svc.UpdateQuantity("sid", 1, "41", 7), ErrInsufficientStock)

	// Zero removes the line; a second update finds nothing.
	require.NoError(t, svc.UpdateQuantity("sid", 1, "41", 0))
	assert.ErrorIs(t, svc.UpdateQuantity("sid", 1, "41", 3), ErrItemNotFound)
}

func TestContentsUsesLivePrices(t *testing.T) {
	svc, _ := newCartFixture(t)
	require.NoError(t, svc.Add("sid", 2, "41", 2)) // discounted 8900 -> 7900
	require.NoError(t, svc.Add("sid", 3, "M", 1))  // 1500

	sub, err := svc.Subtotal("sid")
	require.NoError(t, err)
	assert.InDelta(t, 2*7900+1500, sub, 0.001)

	lines, err := svc.Contents("sid")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.NotNil(t, lines[0].DiscountPrice)
	assert.InDelta(t, 7900, *lines[0].DiscountPrice, 0.001)
	assert.InDelta(t, 8900, lines[0].Price, 0.001)
}

func TestContentsDropsVanishedProducts(t *testing.T) {
	svc, prods := newCartFixture(t)
	require.NoError(t, svc.Add("sid", 3, "M", 1))
	require.NoError(t, svc.Add("sid", 1, "40", 1))

	_, err := prods.Delete(3)
	require.NoError(t, err)

	lines, err := svc.Contents("sid")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 1, lines[0].ProductID)
}

func TestRemoveReportsPresence(t *testing.T) {
	svc, _ := newCartFixture(t)
	require.NoError(t, svc.Add("sid", 1, "40", 1))

	assert.True(t, svc.Remove("sid", 1, "40"))
	assert.False(t, svc.Remove("sid", 1, "40"))
}

func TestCartsAreIsolatedBySession(t *testing.T) {
	svc, _ := newCartFixture(t)
	require.NoError(t, svc.Add("a", 1, "40", 2))
	require.NoError(t, svc.Add("b", 1, "40", 5))

	la, err := svc.Contents("a")
	require.NoError(t, err)
	lb, err := svc.Contents("b")
	require.NoError(t, err)
	assert.Equal(t, 2, la[0].Quantity)
	assert.Equal(t, 5, lb[0].Quantity)
}
