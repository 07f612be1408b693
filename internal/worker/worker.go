package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FulfillmentStore is the persistence the worker needs: order status writes
// plus the processed-events idempotency guard.
type FulfillmentStore interface {
	UpdateOrderStatus(ctx context.Context, orderID string, status string) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// StatusPublisher publishes order status transitions back onto the bus.
type StatusPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// FulfillmentWorker advances orders through
// pending -> processing -> shipped -> delivered. Each step is driven by an
// event, so a restart resumes wherever the order left off. Orders are never
// advanced by the storefront itself.
type FulfillmentWorker struct {
	consumer  *broker.Consumer
	store     FulfillmentStore
	publisher StatusPublisher
	stepDelay time.Duration
	logger    *zap.Logger
	handler   *broker.EventHandler
}

// NewFulfillmentWorker creates a new fulfillment worker
func NewFulfillmentWorker(
	consumer *broker.Consumer,
	store FulfillmentStore,
	publisher StatusPublisher,
	stepDelay time.Duration,
) *FulfillmentWorker {
	w := &FulfillmentWorker{
		consumer:  consumer,
		store:     store,
		publisher: publisher,
		stepDelay: stepDelay,
		logger:    util.GetLogger(),
	}

	handler := broker.NewEventHandler()
	handler.OnOrderCreated(w.handleOrderCreated)
	handler.OnOrderStatusChanged(w.handleOrderStatusChanged)
	w.handler = handler

	return w
}

// Start starts the worker
func (w *FulfillmentWorker) Start(ctx context.Context) error {
	log.Println("Starting fulfillment worker...")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop stops the worker
func (w *FulfillmentWorker) Stop() error {
	log.Println("Stopping fulfillment worker...")
	return w.consumer.Close()
}

// nextStatus returns the status that follows the given one, or "".
func nextStatus(status string) string {
	switch status {
	case models.OrderStatusPending:
		return models.OrderStatusProcessing
	case models.OrderStatusProcessing:
		return models.OrderStatusShipped
	case models.OrderStatusShipped:
		return models.OrderStatusDelivered
	default:
		return ""
	}
}

func (w *FulfillmentWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := w.advance(ctx, event.OrderID, event.UserID, models.OrderStatusPending); err != nil {
		return err
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}

func (w *FulfillmentWorker) handleOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if nextStatus(event.To) != "" {
		if w.stepDelay > 0 {
			time.Sleep(w.stepDelay)
		}
		if err := w.advance(ctx, event.OrderID, event.UserID, event.To); err != nil {
			return err
		}
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}

// advance moves an order one step along the status chain and announces it.
func (w *FulfillmentWorker) advance(ctx context.Context, orderID, userID, from string) error {
	to := nextStatus(from)
	if to == "" {
		return nil
	}

	if err := w.store.UpdateOrderStatus(ctx, orderID, to); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	util.FulfillmentTransitionsTotal.WithLabelValues(to).Inc()
	w.logger.Info("Order status advanced",
		zap.String("order_id", orderID),
		zap.String("from", from),
		zap.String("to", to))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		UserID:  userID,
		From:    from,
		To:      to,
	}
	if err := w.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		w.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}
	return nil
}
