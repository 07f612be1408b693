package service

import (
	"context"
	"errors"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShopDataStore struct {
	addresses map[string][]models.Address
	methods   map[string][]models.PaymentMethod
	orders    map[string][]models.Order
	failNext  error
	nextID    int
}

func newFakeShopDataStore() *fakeShopDataStore {
	return &fakeShopDataStore{
		addresses: make(map[string][]models.Address),
		methods:   make(map[string][]models.PaymentMethod),
		orders:    make(map[string][]models.Order),
	}
}

func (f *fakeShopDataStore) fail() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeShopDataStore) GetOrdersByUserID(_ context.Context, userID string) ([]models.Order, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.orders[userID], nil
}

func (f *fakeShopDataStore) GetAddressesByUserID(_ context.Context, userID string) ([]models.Address, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.addresses[userID], nil
}

func (f *fakeShopDataStore) CreateAddress(_ context.Context, address *models.Address) error {
	if err := f.fail(); err != nil {
		return err
	}
	f.nextID++
	address.ID = string(rune('a' + f.nextID - 1))
	f.addresses[address.UserID] = append(f.addresses[address.UserID], *address)
	return nil
}

func (f *fakeShopDataStore) UpdateAddress(_ context.Context, userID string, address *models.Address) error {
	for i, a := range f.addresses[userID] {
		if a.ID == address.ID {
			address.UserID = userID
			f.addresses[userID][i] = *address
			return nil
		}
	}
	return errors.New("address not found")
}

func (f *fakeShopDataStore) DeleteAddress(_ context.Context, userID, id string) error {
	list := f.addresses[userID]
	for i, a := range list {
		if a.ID == id {
			f.addresses[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errors.New("address not found")
}

func (f *fakeShopDataStore) GetPaymentMethodsByUserID(_ context.Context, userID string) ([]models.PaymentMethod, error) {
	return f.methods[userID], nil
}

func (f *fakeShopDataStore) CreatePaymentMethod(_ context.Context, method *models.PaymentMethod) error {
	f.nextID++
	method.ID = string(rune('a' + f.nextID - 1))
	f.methods[method.UserID] = append(f.methods[method.UserID], *method)
	return nil
}

func (f *fakeShopDataStore) UpdatePaymentMethod(_ context.Context, userID string, method *models.PaymentMethod) error {
	for i, m := range f.methods[userID] {
		if m.ID == method.ID {
			method.UserID = userID
			f.methods[userID][i] = *method
			return nil
		}
	}
	return errors.New("payment method not found")
}

func (f *fakeShopDataStore) DeletePaymentMethod(_ context.Context, userID, id string) error {
	list := f.methods[userID]
	for i, m := range list {
		if m.ID == id {
			f.methods[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errors.New("payment method not found")
}

func TestAddAddressReturnsRefreshedList(t *testing.T) {
	store := newFakeShopDataStore()
	svc := NewShopService(store)
	ctx := context.Background()

	addresses, err := svc.AddAddress(ctx, "user-1", &models.Address{
		Type: "shipping", Name: "Home", Street: "1 Farm Rd", City: "Ames",
	})
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, "user-1", addresses[0].UserID)
	assert.NotEmpty(t, addresses[0].ID)
	assert.False(t, svc.Loading())
	assert.NoError(t, svc.Err())
}

func TestUpdateAddressIsUserScoped(t *testing.T) {
	store := newFakeShopDataStore()
	svc := NewShopService(store)
	ctx := context.Background()

	addresses, err := svc.AddAddress(ctx, "user-1", &models.Address{Name: "Home"})
	require.NoError(t, err)
	id := addresses[0].ID

	// another user cannot touch it
	_, err = svc.UpdateAddress(ctx, "user-2", &models.Address{ID: id, Name: "Hijacked"})
	assert.Error(t, err)

	addresses, err = svc.UpdateAddress(ctx, "user-1", &models.Address{ID: id, Name: "Farmhouse"})
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, "Farmhouse", addresses[0].Name)
}

func TestDeleteAddressReturnsRefreshedList(t *testing.T) {
	store := newFakeShopDataStore()
	svc := NewShopService(store)
	ctx := context.Background()

	addresses, err := svc.AddAddress(ctx, "user-1", &models.Address{Name: "Home"})
	require.NoError(t, err)

	addresses, err = svc.DeleteAddress(ctx, "user-1", addresses[0].ID)
	require.NoError(t, err)
	assert.Empty(t, addresses)
}

func TestPaymentMethodLifecycle(t *testing.T) {
	store := newFakeShopDataStore()
	svc := NewShopService(store)
	ctx := context.Background()

	methods, err := svc.AddPaymentMethod(ctx, "user-1", &models.PaymentMethod{
		Type: "visa", Last4: "4242", Expiry: "12/27",
	})
	require.NoError(t, err)
	require.Len(t, methods, 1)
	id := methods[0].ID

	methods, err = svc.UpdatePaymentMethod(ctx, "user-1", &models.PaymentMethod{
		ID: id, Type: "visa", Last4: "4242", Expiry: "12/29",
	})
	require.NoError(t, err)
	assert.Equal(t, "12/29", methods[0].Expiry)

	methods, err = svc.DeletePaymentMethod(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Empty(t, methods)
}

func TestFetchOrdersSurfacesError(t *testing.T) {
	store := newFakeShopDataStore()
	store.failNext = errors.New("connection reset")
	svc := NewShopService(store)

	_, err := svc.FetchOrders(context.Background(), "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, svc.Err(), err)
}

func TestFetchOrdersEmptyForNewUser(t *testing.T) {
	svc := NewShopService(newFakeShopDataStore())

	orders, err := svc.FetchOrders(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}
