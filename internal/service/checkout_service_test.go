package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	orders    []models.Order
	items     [][]models.OrderItem
	failWrite bool
}

func (f *fakeOrderStore) CreateOrderWithItems(_ context.Context, order *models.Order, items []models.OrderItem) error {
	if f.failWrite {
		return errors.New("database unavailable")
	}
	order.ID = fmt.Sprintf("order-%d", len(f.orders)+1)
	f.orders = append(f.orders, *order)
	f.items = append(f.items, items)
	return nil
}

type fakePayments struct {
	declined bool
	calls    int
}

func (f *fakePayments) Process(_ context.Context, _ string, _ float64) (string, error) {
	f.calls++
	if f.declined {
		return "", ErrPaymentDeclined
	}
	return "TXN-test", nil
}

type fakePublisher struct {
	created []*models.OrderCreatedEvent
}

func (f *fakePublisher) PublishOrderCreated(_ context.Context, event *models.OrderCreatedEvent) error {
	f.created = append(f.created, event)
	return nil
}

func checkoutFixture(store *fakeOrderStore, payments *fakePayments) (*CheckoutService, *fakePublisher) {
	cat := catalog.New([]models.Product{
		{ID: 1, Name: "Probe", Price: 50},
		{ID: 2, Name: "Hub", Price: 200},
	})
	publisher := &fakePublisher{}
	cs := NewCheckoutService(cat, store, payments, publisher, 10, 0.15)
	return cs, publisher
}

func cartWith(items map[int64]int) *cart.Store {
	s := cart.NewStore("session", nil)
	ctx := context.Background()
	for productID, qty := range items {
		s.AddItem(ctx, productID)
		s.UpdateQuantity(ctx, productID, qty)
	}
	return s
}

func TestTotals(t *testing.T) {
	cs, _ := checkoutFixture(&fakeOrderStore{}, &fakePayments{})

	totals, err := cs.Totals([]models.CartItem{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, 100.0, totals.Subtotal)
	assert.Equal(t, 10.0, totals.Shipping)
	assert.Equal(t, 15.0, totals.Tax)
	assert.Equal(t, 125.0, totals.Total)
}

func TestTotalsUnknownProduct(t *testing.T) {
	cs, _ := checkoutFixture(&fakeOrderStore{}, &fakePayments{})

	_, err := cs.Totals([]models.CartItem{{ProductID: 99, Quantity: 1}})
	assert.Error(t, err)
}

func TestCreateOrderUnauthenticatedLeavesCartIntact(t *testing.T) {
	store := &fakeOrderStore{}
	cs, _ := checkoutFixture(store, &fakePayments{})
	c := cartWith(map[int64]int{1: 2})

	_, err := cs.CreateOrder(context.Background(), "", c)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Empty(t, store.orders)
}

func TestCreateOrderStoresQuantitySumAsTotal(t *testing.T) {
	store := &fakeOrderStore{}
	cs, _ := checkoutFixture(store, &fakePayments{})
	c := cartWith(map[int64]int{1: 2, 2: 3})

	_, err := cs.CreateOrder(context.Background(), "user-1", c)
	require.NoError(t, err)

	require.Len(t, store.orders, 1)
	assert.Equal(t, 5.0, store.orders[0].Total)
	assert.Equal(t, models.OrderStatusPending, store.orders[0].Status)
}

func TestCreateOrderClearsCartAndPublishes(t *testing.T) {
	store := &fakeOrderStore{}
	cs, publisher := checkoutFixture(store, &fakePayments{})
	c := cartWith(map[int64]int{1: 1})

	orderID, err := cs.CreateOrder(context.Background(), "user-1", c)
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)

	assert.Empty(t, c.Items())
	require.Len(t, publisher.created, 1)
	assert.Equal(t, orderID, publisher.created[0].OrderID)
	assert.Equal(t, models.EventTypeOrderCreated, publisher.created[0].EventType)
}

func TestCreateOrderWriteFailureKeepsCart(t *testing.T) {
	store := &fakeOrderStore{failWrite: true}
	cs, publisher := checkoutFixture(store, &fakePayments{})
	c := cartWith(map[int64]int{1: 2})

	_, err := cs.CreateOrder(context.Background(), "user-1", c)
	assert.Error(t, err)

	require.Len(t, c.Items(), 1)
	assert.Empty(t, publisher.created)
}

func TestSubmitEmptyCartRejected(t *testing.T) {
	cs, _ := checkoutFixture(&fakeOrderStore{}, &fakePayments{})
	c := cart.NewStore("session", nil)

	_, err := cs.Submit(context.Background(), "sess", "user-1", c)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmitSuccessEmitsOneConfirmation(t *testing.T) {
	store := &fakeOrderStore{}
	payments := &fakePayments{}
	cs, publisher := checkoutFixture(store, payments)
	c := cartWith(map[int64]int{1: 2})

	result, err := cs.Submit(context.Background(), "sess", "user-1", c)
	require.NoError(t, err)

	assert.Equal(t, "order-1", result.OrderID)
	assert.Equal(t, "TXN-test", result.TxID)
	assert.Equal(t, 125.0, result.Totals.Total)
	assert.Empty(t, c.Items())
	assert.Len(t, publisher.created, 1)
	assert.Equal(t, 1, payments.calls)
	assert.Equal(t, StateSuccess, cs.State("sess"))
}

func TestSubmitPaymentDeclinedKeepsCartAndPermitsRetry(t *testing.T) {
	store := &fakeOrderStore{}
	payments := &fakePayments{declined: true}
	cs, _ := checkoutFixture(store, payments)
	c := cartWith(map[int64]int{1: 2})

	_, err := cs.Submit(context.Background(), "sess", "user-1", c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	require.Len(t, c.Items(), 1)
	assert.Empty(t, store.orders)
	assert.Equal(t, StateFailed, cs.State("sess"))

	// retry succeeds once payment recovers
	payments.declined = false
	result, err := cs.Submit(context.Background(), "sess", "user-1", c)
	require.NoError(t, err)
	assert.Equal(t, "order-1", result.OrderID)
	assert.Empty(t, c.Items())
}

func TestStateDefaultsToFormEntry(t *testing.T) {
	cs, _ := checkoutFixture(&fakeOrderStore{}, &fakePayments{})
	assert.Equal(t, StateFormEntry, cs.State("fresh"))
}

func TestResetReturnsToFormEntry(t *testing.T) {
	cs, _ := checkoutFixture(&fakeOrderStore{}, &fakePayments{})
	c := cartWith(map[int64]int{1: 1})

	_, err := cs.Submit(context.Background(), "sess", "user-1", c)
	require.NoError(t, err)
	require.Equal(t, StateSuccess, cs.State("sess"))

	cs.Reset("sess")
	assert.Equal(t, StateFormEntry, cs.State("sess"))
}
