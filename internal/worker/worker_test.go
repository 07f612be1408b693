package worker

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFulfillmentStore struct {
	statuses  map[string]string
	processed map[string]bool
}

func newFakeFulfillmentStore() *fakeFulfillmentStore {
	return &fakeFulfillmentStore{
		statuses:  make(map[string]string),
		processed: make(map[string]bool),
	}
}

func (f *fakeFulfillmentStore) UpdateOrderStatus(_ context.Context, orderID, status string) error {
	f.statuses[orderID] = status
	return nil
}

func (f *fakeFulfillmentStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeFulfillmentStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	f.processed[eventID] = true
	return nil
}

type fakeStatusPublisher struct {
	events []*models.OrderStatusChangedEvent
}

func (f *fakeStatusPublisher) PublishOrderStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestWorker(store *fakeFulfillmentStore, publisher *fakeStatusPublisher) *FulfillmentWorker {
	return NewFulfillmentWorker(nil, store, publisher, 0)
}

func createdEvent(eventID, orderID string) *models.OrderCreatedEvent {
	return &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		UserID:  "user-1",
	}
}

func statusEvent(eventID, orderID, from, to string) *models.OrderStatusChangedEvent {
	return &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		UserID:  "user-1",
		From:    from,
		To:      to,
	}
}

func TestNextStatusChain(t *testing.T) {
	assert.Equal(t, models.OrderStatusProcessing, nextStatus(models.OrderStatusPending))
	assert.Equal(t, models.OrderStatusShipped, nextStatus(models.OrderStatusProcessing))
	assert.Equal(t, models.OrderStatusDelivered, nextStatus(models.OrderStatusShipped))
	assert.Equal(t, "", nextStatus(models.OrderStatusDelivered))
	assert.Equal(t, "", nextStatus("unknown"))
}

func TestOrderCreatedAdvancesToProcessing(t *testing.T) {
	store := newFakeFulfillmentStore()
	publisher := &fakeStatusPublisher{}
	w := newTestWorker(store, publisher)

	err := w.handleOrderCreated(context.Background(), createdEvent("evt-1", "order-1"))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusProcessing, store.statuses["order-1"])
	assert.True(t, store.processed["evt-1"])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.OrderStatusPending, publisher.events[0].From)
	assert.Equal(t, models.OrderStatusProcessing, publisher.events[0].To)
}

func TestDuplicateEventIsIgnored(t *testing.T) {
	store := newFakeFulfillmentStore()
	publisher := &fakeStatusPublisher{}
	w := newTestWorker(store, publisher)

	ctx := context.Background()
	require.NoError(t, w.handleOrderCreated(ctx, createdEvent("evt-1", "order-1")))
	require.NoError(t, w.handleOrderCreated(ctx, createdEvent("evt-1", "order-1")))

	// the redelivery must not publish a second transition
	assert.Len(t, publisher.events, 1)
}

func TestStatusChangedAdvancesOneStep(t *testing.T) {
	store := newFakeFulfillmentStore()
	publisher := &fakeStatusPublisher{}
	w := newTestWorker(store, publisher)

	err := w.handleOrderStatusChanged(context.Background(),
		statusEvent("evt-2", "order-1", models.OrderStatusPending, models.OrderStatusProcessing))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusShipped, store.statuses["order-1"])
	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.OrderStatusShipped, publisher.events[0].To)
}

func TestDeliveredIsTerminal(t *testing.T) {
	store := newFakeFulfillmentStore()
	publisher := &fakeStatusPublisher{}
	w := newTestWorker(store, publisher)

	err := w.handleOrderStatusChanged(context.Background(),
		statusEvent("evt-3", "order-1", models.OrderStatusShipped, models.OrderStatusDelivered))
	require.NoError(t, err)

	assert.Empty(t, store.statuses)
	assert.Empty(t, publisher.events)
	assert.True(t, store.processed["evt-3"])
}

func TestFullFulfillmentCycle(t *testing.T) {
	store := newFakeFulfillmentStore()
	publisher := &fakeStatusPublisher{}
	w := newTestWorker(store, publisher)
	ctx := context.Background()

	require.NoError(t, w.handleOrderCreated(ctx, createdEvent("evt-1", "order-1")))
	for i := 0; i < len(publisher.events); i++ {
		require.NoError(t, w.handleOrderStatusChanged(ctx, publisher.events[i]))
	}

	assert.Equal(t, models.OrderStatusDelivered, store.statuses["order-1"])
	// pending->processing, processing->shipped, shipped->delivered
	assert.Len(t, publisher.events, 3)
}
