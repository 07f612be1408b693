package cart

import (
	"context"
	"errors"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersister struct {
	snapshots map[string][]models.CartItem
	saveErr   error
}

func newMemPersister() *memPersister {
	return &memPersister{snapshots: make(map[string][]models.CartItem)}
}

func (p *memPersister) SaveCartSnapshot(_ context.Context, sessionID string, items []models.CartItem) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.snapshots[sessionID] = items
	return nil
}

func (p *memPersister) LoadCartSnapshot(_ context.Context, sessionID string) ([]models.CartItem, error) {
	items, ok := p.snapshots[sessionID]
	if !ok {
		return []models.CartItem{}, nil
	}
	return items, nil
}

func (p *memPersister) DeleteCartSnapshot(_ context.Context, sessionID string) error {
	delete(p.snapshots, sessionID)
	return nil
}

func TestAddItemTwiceIncrementsQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", newMemPersister())

	s.AddItem(ctx, 1)
	s.AddItem(ctx, 1)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestNoDuplicateEntriesAndNoNonPositiveQuantities(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", newMemPersister())

	s.AddItem(ctx, 1)
	s.AddItem(ctx, 2)
	s.AddItem(ctx, 1)
	s.UpdateQuantity(ctx, 2, 5)
	s.AddItem(ctx, 3)
	s.RemoveItem(ctx, 3)
	s.AddItem(ctx, 3)
	s.UpdateQuantity(ctx, 1, 1)

	seen := make(map[int64]bool)
	for _, item := range s.Items() {
		assert.False(t, seen[item.ProductID], "duplicate entry for product %d", item.ProductID)
		seen[item.ProductID] = true
		assert.GreaterOrEqual(t, item.Quantity, 1)
	}
}

func TestUpdateQuantityZeroRemovesEntry(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", newMemPersister())

	s.AddItem(ctx, 1)
	s.UpdateQuantity(ctx, 1, 0)

	assert.Empty(t, s.Items())
}

func TestUpdateQuantityNegativeOnMissingProductIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", newMemPersister())

	s.AddItem(ctx, 1)
	s.UpdateQuantity(ctx, 99, -1)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ProductID)
}

func TestUpdateQuantityPositiveOnMissingProductIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", newMemPersister())

	s.UpdateQuantity(ctx, 42, 3)

	assert.Empty(t, s.Items())
}

func TestRemoveItemDeletesRegardlessOfQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", newMemPersister())

	s.AddItem(ctx, 1)
	s.UpdateQuantity(ctx, 1, 7)
	s.RemoveItem(ctx, 1)

	assert.Empty(t, s.Items())
}

func TestClearEmptiesCart(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", newMemPersister())

	s.AddItem(ctx, 1)
	s.AddItem(ctx, 2)
	s.Clear(ctx)

	assert.Empty(t, s.Items())
}

func TestMutationsPersistSnapshot(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s := NewStore("s1", p)

	s.AddItem(ctx, 1)
	s.AddItem(ctx, 1)
	s.AddItem(ctx, 2)

	assert.Equal(t, []models.CartItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, p.snapshots["s1"])
}

func TestRestoreLoadsPersistedSnapshot(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	p.snapshots["s1"] = []models.CartItem{{ProductID: 4, Quantity: 3}}

	s := NewStore("s1", p)
	require.NoError(t, s.Restore(ctx))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(4), items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestSnapshotFailureDoesNotAffectLocalState(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	p.saveErr = errors.New("redis down")

	s := NewStore("s1", p)
	s.AddItem(ctx, 1)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}
