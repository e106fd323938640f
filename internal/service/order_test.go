package service

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/storefront/internal/model"
)

func TestCreateOrderTotals(t *testing.T) {
	db := newTestDB(t)
	email := &fakeEmail{}
	orders := NewOrderService(db, email, testLogger())

	u := seedUser(t, db, "buyer@example.com", model.RoleCustomer)
	a := seedProduct(t, db, "Widget A", "WA-01", 1000, 10)
	b := seedProduct(t, db, "Widget B", "WB-01", 500, 10)

	order, err := orders.Create(u.ID, CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 1},
		},
		ShippingAddress: model.ShippingAddress{Street: "1 Main St", City: "Town", Country: "US"},
		PaymentMethod:   model.PaymentCreditCard,
		ShippingCents:   500,
		TaxCents:        200,
		DiscountCents:   100,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 2500, order.SubtotalCents)
	assert.EqualValues(t, 3100, order.TotalCents)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"), order.OrderNumber)
	require.Len(t, order.Items, 2)

	var stockA, stockB model.Product
	require.NoError(t, db.First(&stockA, a.ID).Error)
	require.NoError(t, db.First(&stockB, b.ID).Error)
	assert.Equal(t, 8, stockA.Stock)
	assert.Equal(t, 9, stockB.Stock)

	assert.Contains(t, email.sent, "Order confirmation")
}

func TestCreateOrderRejectsEmptyAndUnknown(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, &fakeEmail{}, testLogger())
	u := seedUser(t, db, "empty@example.com", model.RoleCustomer)

	_, err := orders.Create(u.ID, CreateOrderInput{PaymentMethod: model.PaymentWallet})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = orders.Create(u.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: 9999, Quantity: 1}},
		PaymentMethod: model.PaymentWallet,
	})
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = orders.Create(u.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: 1, Quantity: 1}},
		PaymentMethod: "cheque",
	})
	assert.Equal(t, KindValidation, KindOf(err))
}

// A failed stock check on a later item must roll back every earlier
// decrement; a rejected order consumes nothing.
func TestCreateOrderRollsBackOnPartialFailure(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, &fakeEmail{}, testLogger())

	u := seedUser(t, db, "rollback@example.com", model.RoleCustomer)
	a := seedProduct(t, db, "Plenty", "PL-01", 1000, 10)
	b := seedProduct(t, db, "Scarce", "SC-01", 500, 1)

	_, err := orders.Create(u.ID, CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: a.ID, Quantity: 3},
			{ProductID: b.ID, Quantity: 2},
		},
		PaymentMethod: model.PaymentDebitCard,
	})
	require.Error(t, err)
	assert.Equal(t, KindInsufficientStock, KindOf(err))

	var gotA, gotB model.Product
	require.NoError(t, db.First(&gotA, a.ID).Error)
	require.NoError(t, db.First(&gotB, b.ID).Error)
	assert.Equal(t, 10, gotA.Stock, "earlier decrement must be rolled back")
	assert.Equal(t, 1, gotB.Stock)

	var count int64
	db.Model(&model.Order{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

// Exactly one of two concurrent buyers of the last unit succeeds.
func TestConcurrentLastUnit(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, &fakeEmail{}, testLogger())

	u1 := seedUser(t, db, "fast@example.com", model.RoleCustomer)
	u2 := seedUser(t, db, "slow@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Last One", "LAST-01", 9999, 1)

	input := func() CreateOrderInput {
		return CreateOrderInput{
			Items:         []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
			PaymentMethod: model.PaymentWallet,
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []uint{u1.ID, u2.ID} {
		wg.Add(1)
		go func(i int, uid uint) {
			defer wg.Done()
			_, errs[i] = orders.Create(uid, input())
		}(i, uid)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			assert.Equal(t, KindInsufficientStock, KindOf(err))
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one buyer must lose")

	var got model.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 0, got.Stock)
}

// The item snapshot is frozen at purchase time.
func TestOrderSnapshotSurvivesPriceEdits(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, &fakeEmail{}, testLogger())

	u := seedUser(t, db, "snap@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Original Name", "SNAP-01", 1999, 5)

	order, err := orders.Create(u.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: model.PaymentWallet,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"price_cents": 9999, "name": "Renamed"}).Error)

	got, err := orders.OrderByID(order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Original Name", got.Items[0].Name)
	assert.EqualValues(t, 1999, got.Items[0].PriceCents)
}

func TestUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, &fakeEmail{}, testLogger())
	u := seedUser(t, db, "status@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Thing", "TH-01", 100, 10)

	order, err := orders.Create(u.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: model.PaymentWallet,
	})
	require.NoError(t, err)

	t.Run("unrecognized status rejected", func(t *testing.T) {
		_, err := orders.UpdateStatus(order.ID, "lost")
		assert.Equal(t, KindInvalidState, KindOf(err))
	})

	t.Run("illegal jump rejected", func(t *testing.T) {
		_, err := orders.UpdateStatus(order.ID, model.OrderDelivered)
		assert.Equal(t, KindInvalidState, KindOf(err))
	})

	t.Run("shipped stamps dates and eta", func(t *testing.T) {
		_, err := orders.UpdateStatus(order.ID, model.OrderConfirmed)
		require.NoError(t, err)
		got, err := orders.UpdateStatus(order.ID, model.OrderShipped)
		require.NoError(t, err)

		require.NotNil(t, got.ShippedDate)
		require.NotNil(t, got.EstimatedDelivery)
		assert.WithinDuration(t, got.ShippedDate.Add(7*24*time.Hour), *got.EstimatedDelivery, time.Minute)
	})

	t.Run("delivered stamps date", func(t *testing.T) {
		got, err := orders.UpdateStatus(order.ID, model.OrderDelivered)
		require.NoError(t, err)
		require.NotNil(t, got.DeliveredDate)
	})

	t.Run("no transitions out of delivered", func(t *testing.T) {
		_, err := orders.UpdateStatus(order.ID, model.OrderShipped)
		assert.Equal(t, KindInvalidState, KindOf(err))
	})
}

func TestCancelOrder(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, &fakeEmail{}, testLogger())
	u := seedUser(t, db, "cancel@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Restockable", "RS-01", 1500, 5)

	order, err := orders.Create(u.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: p.ID, Quantity: 3}},
		PaymentMethod: model.PaymentWallet,
	})
	require.NoError(t, err)

	t.Run("cancelling pending succeeds and restocks", func(t *testing.T) {
		got, err := orders.CancelOrder(order.ID, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, model.OrderCancelled, got.Status)
		assert.Equal(t, "changed my mind", got.CancellationReason)
		require.NotNil(t, got.CancelledDate)

		var restocked model.Product
		require.NoError(t, db.First(&restocked, p.ID).Error)
		assert.Equal(t, 5, restocked.Stock)
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		_, err := orders.CancelOrder(order.ID, "again")
		assert.Equal(t, KindInvalidState, KindOf(err))
	})

	t.Run("cancelling delivered fails", func(t *testing.T) {
		delivered, err := orders.Create(u.ID, CreateOrderInput{
			Items:         []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
			PaymentMethod: model.PaymentWallet,
		})
		require.NoError(t, err)
		for _, s := range []model.OrderStatus{model.OrderConfirmed, model.OrderShipped, model.OrderDelivered} {
			_, err = orders.UpdateStatus(delivered.ID, s)
			require.NoError(t, err)
		}
		_, err = orders.CancelOrder(delivered.ID, "too late")
		assert.Equal(t, KindInvalidState, KindOf(err))
	})
}

func TestUpdatePaymentStatusIsIndependent(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, &fakeEmail{}, testLogger())
	u := seedUser(t, db, "pay@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Payable", "PAY-01", 100, 5)

	order, err := orders.Create(u.ID, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: model.PaymentNetBanking,
	})
	require.NoError(t, err)

	got, err := orders.UpdatePaymentStatus(order.ID, model.PaymentCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, got.PaymentStatus)
	assert.Equal(t, model.OrderPending, got.Status)

	_, err = orders.UpdatePaymentStatus(order.ID, "voided")
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestCheckoutCart(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, &fakeEmail{}, testLogger())
	carts := NewCartService(db)

	u := seedUser(t, db, "checkout@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Cart Thing", "CT-01", 2000, 10)

	t.Run("empty cart rejected", func(t *testing.T) {
		_, err := orders.CheckoutCart(u.ID, CreateOrderInput{PaymentMethod: model.PaymentWallet})
		assert.Equal(t, KindValidation, KindOf(err))
	})

	_, err := carts.AddItem(u.ID, p.ID, 2)
	require.NoError(t, err)

	order, err := orders.CheckoutCart(u.ID, CreateOrderInput{PaymentMethod: model.PaymentWallet})
	require.NoError(t, err)
	assert.EqualValues(t, 4000, order.SubtotalCents)
	require.Len(t, order.Items, 1)

	cart, err := carts.GetCart(u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.EqualValues(t, 0, cart.TotalCents)
}

func TestStatistics(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, &fakeEmail{}, testLogger())
	u := seedUser(t, db, "stats@example.com", model.RoleCustomer)
	p := seedProduct(t, db, "Counted", "CNT-01", 1000, 10)

	for i := 0; i < 3; i++ {
		_, err := orders.Create(u.ID, CreateOrderInput{
			Items:         []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
			PaymentMethod: model.PaymentWallet,
		})
		require.NoError(t, err)
	}

	stats, err := orders.Statistics(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.EqualValues(t, 3000, stats.TotalRevenueCents)
	assert.EqualValues(t, 1000, stats.AverageOrderValueCents)
	assert.Equal(t, 3, stats.OrdersByStatus[model.OrderPending])
	assert.Equal(t, 3, stats.OrdersByPaymentStatus[model.PaymentPending])
}
