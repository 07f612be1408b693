package service

import (
	"context"
	"fmt"
	"sync"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// ShopDataStore is the persistence boundary for user-scoped shop records.
type ShopDataStore interface {
	GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error)
	GetAddressesByUserID(ctx context.Context, userID string) ([]models.Address, error)
	CreateAddress(ctx context.Context, address *models.Address) error
	UpdateAddress(ctx context.Context, userID string, address *models.Address) error
	DeleteAddress(ctx context.Context, userID, id string) error
	GetPaymentMethodsByUserID(ctx context.Context, userID string) ([]models.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, userID string, method *models.PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, userID, id string) error
}

// ShopService maintains the signed-in user's orders, addresses, and payment
// methods. Mutations re-fetch the affected list afterwards instead of
// merging optimistically.
type ShopService struct {
	store  ShopDataStore
	logger *zap.Logger

	mu      sync.Mutex
	loading bool
	lastErr error
}

// NewShopService creates a new shop data service
func NewShopService(store ShopDataStore) *ShopService {
	return &ShopService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// Loading reports whether a shop data operation is in flight.
func (s *ShopService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last operation error, or nil.
func (s *ShopService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *ShopService) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *ShopService) finish(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

// FetchOrders returns the user's orders, newest first, with line items.
func (s *ShopService) FetchOrders(ctx context.Context, userID string) ([]models.Order, error) {
	s.begin()
	orders, err := s.store.GetOrdersByUserID(ctx, userID)
	if err != nil {
		err = fmt.Errorf("failed to fetch orders: %w", err)
	}
	s.finish(err)
	return orders, err
}

// FetchAddresses returns the user's addresses, default first.
func (s *ShopService) FetchAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	s.begin()
	addresses, err := s.store.GetAddressesByUserID(ctx, userID)
	if err != nil {
		err = fmt.Errorf("failed to fetch addresses: %w", err)
	}
	s.finish(err)
	return addresses, err
}

// AddAddress inserts an address and returns the refreshed list.
func (s *ShopService) AddAddress(ctx context.Context, userID string, address *models.Address) ([]models.Address, error) {
	s.begin()
	address.UserID = userID
	if err := s.store.CreateAddress(ctx, address); err != nil {
		err = fmt.Errorf("failed to add address: %w", err)
		s.finish(err)
		return nil, err
	}
	addresses, err := s.store.GetAddressesByUserID(ctx, userID)
	s.finish(err)
	return addresses, err
}

// UpdateAddress updates an address and returns the refreshed list.
func (s *ShopService) UpdateAddress(ctx context.Context, userID string, address *models.Address) ([]models.Address, error) {
	s.begin()
	if err := s.store.UpdateAddress(ctx, userID, address); err != nil {
		err = fmt.Errorf("failed to update address: %w", err)
		s.finish(err)
		return nil, err
	}
	addresses, err := s.store.GetAddressesByUserID(ctx, userID)
	s.finish(err)
	return addresses, err
}

// DeleteAddress removes an address and returns the refreshed list.
func (s *ShopService) DeleteAddress(ctx context.Context, userID, id string) ([]models.Address, error) {
	s.begin()
	if err := s.store.DeleteAddress(ctx, userID, id); err != nil {
		err = fmt.Errorf("failed to delete address: %w", err)
		s.finish(err)
		return nil, err
	}
	addresses, err := s.store.GetAddressesByUserID(ctx, userID)
	s.finish(err)
	return addresses, err
}

// FetchPaymentMethods returns the user's payment methods, default first.
func (s *ShopService) FetchPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error) {
	s.begin()
	methods, err := s.store.GetPaymentMethodsByUserID(ctx, userID)
	if err != nil {
		err = fmt.Errorf("failed to fetch payment methods: %w", err)
	}
	s.finish(err)
	return methods, err
}

// AddPaymentMethod inserts a payment method and returns the refreshed list.
func (s *ShopService) AddPaymentMethod(ctx context.Context, userID string, method *models.PaymentMethod) ([]models.PaymentMethod, error) {
	s.begin()
	method.UserID = userID
	if err := s.store.CreatePaymentMethod(ctx, method); err != nil {
		err = fmt.Errorf("failed to add payment method: %w", err)
		s.finish(err)
		return nil, err
	}
	methods, err := s.store.GetPaymentMethodsByUserID(ctx, userID)
	s.finish(err)
	return methods, err
}

// UpdatePaymentMethod updates a payment method and returns the refreshed list.
func (s *ShopService) UpdatePaymentMethod(ctx context.Context, userID string, method *models.PaymentMethod) ([]models.PaymentMethod, error) {
	s.begin()
	if err := s.store.UpdatePaymentMethod(ctx, userID, method); err != nil {
		err = fmt.Errorf("failed to update payment method: %w", err)
		s.finish(err)
		return nil, err
	}
	methods, err := s.store.GetPaymentMethodsByUserID(ctx, userID)
	s.finish(err)
	return methods, err
}

// DeletePaymentMethod removes a payment method and returns the refreshed list.
func (s *ShopService) DeletePaymentMethod(ctx context.Context, userID, id string) ([]models.PaymentMethod, error) {
	s.begin()
	if err := s.store.DeletePaymentMethod(ctx, userID, id); err != nil {
		err = fmt.Errorf("failed to delete payment method: %w", err)
		s.finish(err)
		return nil, err
	}
	methods, err := s.store.GetPaymentMethodsByUserID(ctx, userID)
	s.finish(err)
	return methods, err
}
