package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FlowState is the checkout sequencing state.
type FlowState string

const (
	StateFormEntry  FlowState = "form_entry"
	StateSubmitting FlowState = "submitting"
	StateSuccess    FlowState = "success"
	StateFailed     FlowState = "failed"
)

// Cart is the view of the cart store the checkout flow needs.
type Cart interface {
	Items() []models.CartItem
	Clear(ctx context.Context)
}

// ProductCatalog resolves product ids to catalog records.
type ProductCatalog interface {
	GetProduct(id int64) (*models.Product, error)
}

// OrderStore persists orders atomically.
type OrderStore interface {
	CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
}

// OrderEventPublisher announces new orders to the fulfillment pipeline.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
}

// CheckoutResult is the single confirmation emitted by a successful submit.
type CheckoutResult struct {
	OrderID string        `json:"order_id"`
	TxID    string        `json:"tx_id"`
	Totals  models.Totals `json:"totals"`
}

// CheckoutService sequences form submission, payment, order creation, and
// cart clearing. Each session runs its own flow:
// FormEntry -> Submitting -> Success | Failed; any failure leaves the cart
// intact and permits retry.
type CheckoutService struct {
	catalog   ProductCatalog
	store     OrderStore
	payments  PaymentProcessor
	publisher OrderEventPublisher
	shipping  float64
	taxRate   float64
	logger    *zap.Logger

	mu     sync.Mutex
	states map[string]FlowState
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	catalog ProductCatalog,
	store OrderStore,
	payments PaymentProcessor,
	publisher OrderEventPublisher,
	shipping, taxRate float64,
) *CheckoutService {
	return &CheckoutService{
		catalog:   catalog,
		store:     store,
		payments:  payments,
		publisher: publisher,
		shipping:  shipping,
		taxRate:   taxRate,
		logger:    util.GetLogger(),
		states:    make(map[string]FlowState),
	}
}

// State returns the flow state for a session. Sessions with no checkout
// activity are in form entry.
func (cs *CheckoutService) State(sessionID string) FlowState {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if state, ok := cs.states[sessionID]; ok {
		return state
	}
	return StateFormEntry
}

// Reset returns a session's flow to form entry, as when the checkout view
// reloads. A submit in flight is left alone.
func (cs *CheckoutService) Reset(sessionID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.states[sessionID] != StateSubmitting {
		cs.states[sessionID] = StateFormEntry
	}
}

// Totals computes the display figures for a cart, fresh on every call:
// subtotal is price-weighted, shipping is a flat rate, tax is a fixed rate
// on the subtotal.
func (cs *CheckoutService) Totals(items []models.CartItem) (models.Totals, error) {
	var subtotal float64
	for _, item := range items {
		product, err := cs.catalog.GetProduct(item.ProductID)
		if err != nil {
			return models.Totals{}, err
		}
		subtotal += product.Price * float64(item.Quantity)
	}

	tax := subtotal * cs.taxRate
	return models.Totals{
		Subtotal: subtotal,
		Shipping: cs.shipping,
		Tax:      tax,
		Total:    subtotal + cs.shipping + tax,
	}, nil
}

// CreateOrder writes the order for the current cart and clears the cart on
// success. Fails with ErrUnauthenticated when no identity is present, in
// which case the cart is untouched.
//
// The stored total is the sum of quantities, not a price-weighted amount;
// display totals come from Totals.
func (cs *CheckoutService) CreateOrder(ctx context.Context, userID string, cart Cart) (string, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateOrder")
	defer span.End()

	if userID == "" {
		util.OrdersFailedTotal.WithLabelValues("unauthenticated").Inc()
		return "", ErrUnauthenticated
	}

	items := cart.Items()

	var total float64
	for _, item := range items {
		total += float64(item.Quantity)
	}

	orderItems := make([]models.OrderItem, 0, len(items))
	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		if _, err := cs.catalog.GetProduct(item.ProductID); err != nil {
			util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
			return "", err
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order := &models.Order{
		UserID: userID,
		Total:  total,
		Status: models.OrderStatusPending,
	}

	if err := cs.store.CreateOrderWithItems(ctx, order, orderItems); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return "", fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	cs.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID))

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID: order.ID,
		UserID:  userID,
		Total:   order.Total,
		Items:   eventItems,
	}
	if err := cs.publisher.PublishOrderCreated(ctx, event); err != nil {
		cs.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	cart.Clear(ctx)
	return order.ID, nil
}

// Submit runs the full checkout: payment first, then order creation, then
// cart clearing. It returns exactly one confirmation on success. An empty
// cart rejects the submission before anything runs, and a submit while one
// is already in flight for the session is refused.
func (cs *CheckoutService) Submit(ctx context.Context, sessionID, userID string, cart Cart) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Submit")
	defer span.End()

	items := cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	cs.mu.Lock()
	if cs.states[sessionID] == StateSubmitting {
		cs.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	cs.states[sessionID] = StateSubmitting
	cs.mu.Unlock()

	util.CheckoutAttemptsTotal.Inc()

	result, err := cs.submit(ctx, userID, cart, items)
	cs.mu.Lock()
	if err != nil {
		cs.states[sessionID] = StateFailed
	} else {
		cs.states[sessionID] = StateSuccess
	}
	cs.mu.Unlock()

	if err != nil {
		util.CheckoutFailedTotal.Inc()
		return nil, err
	}

	util.CheckoutSuccessTotal.Inc()
	return result, nil
}

func (cs *CheckoutService) submit(ctx context.Context, userID string, cart Cart, items []models.CartItem) (*CheckoutResult, error) {
	totals, err := cs.Totals(items)
	if err != nil {
		return nil, err
	}

	txID, err := cs.payments.Process(ctx, userID, totals.Total)
	if err != nil {
		cs.logger.Warn("Checkout payment failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("payment processing failed: %w", err)
	}

	orderID, err := cs.CreateOrder(ctx, userID, cart)
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{
		OrderID: orderID,
		TxID:    txID,
		Totals:  totals,
	}, nil
}
