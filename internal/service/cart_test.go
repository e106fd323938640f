package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/storefront/internal/model"
)

func TestGetCartIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	u := seedUser(t, db, "cart@example.com", model.RoleCustomer)

	first, err := carts.GetCart(u.ID)
	require.NoError(t, err)
	second, err := carts.GetCart(u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&model.Cart{}).Where("user_id = ?", u.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestAddItemMergesLines(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	u := seedUser(t, db, "merge@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Blue T-Shirt", "TS-01", 1999, 10)

	_, err := carts.AddItem(u.ID, p.ID, 2)
	require.NoError(t, err)
	cart, err := carts.AddItem(u.ID, p.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems)
	assert.EqualValues(t, 5*1999, cart.TotalCents)
}

func TestAddItemChecksLiveStock(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	u := seedUser(t, db, "stock@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Rare Item", "RARE-01", 500, 1)

	_, err := carts.AddItem(u.ID, p.ID, 2)
	assert.Equal(t, KindInsufficientStock, KindOf(err))

	_, err = carts.AddItem(u.ID, 9999, 1)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdateQuantity(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	u := seedUser(t, db, "qty@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Sneakers", "SN-01", 6999, 5)

	_, err := carts.AddItem(u.ID, p.ID, 2)
	require.NoError(t, err)

	t.Run("quantity above stock rejected", func(t *testing.T) {
		_, err := carts.UpdateQuantity(u.ID, p.ID, 6)
		assert.Equal(t, KindInsufficientStock, KindOf(err))
	})

	t.Run("positive quantity replaces the line", func(t *testing.T) {
		cart, err := carts.UpdateQuantity(u.ID, p.ID, 4)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 4, cart.Items[0].Quantity)
		assert.EqualValues(t, 4*6999, cart.TotalCents)
	})

	t.Run("zero quantity removes the line", func(t *testing.T) {
		cart, err := carts.UpdateQuantity(u.ID, p.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.EqualValues(t, 0, cart.TotalCents)
	})

	t.Run("missing line is not found", func(t *testing.T) {
		_, err := carts.UpdateQuantity(u.ID, p.ID, 1)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

// Cart totals track live catalog prices until checkout freezes them.
func TestTotalsFollowPriceChanges(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	u := seedUser(t, db, "price@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Hoodie", "HD-01", 4599, 10)
	other := seedProduct(t, db, "Cap", "CAP-01", 1500, 10)

	_, err := carts.AddItem(u.ID, p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", p.ID).
		Update("price_cents", 5999).Error)

	cart, err := carts.AddItem(u.ID, other.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5999+2*1500, cart.TotalCents)
	assert.Equal(t, 3, cart.TotalItems)
}

func TestClearCart(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	u := seedUser(t, db, "clear@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Book", "BK-01", 2500, 10)

	_, err := carts.AddItem(u.ID, p.ID, 3)
	require.NoError(t, err)

	cart, err := carts.Clear(u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)
	assert.EqualValues(t, 0, cart.TotalCents)
}
