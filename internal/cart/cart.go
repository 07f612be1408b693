package cart

import (
	"context"
	"sync"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Persister stores cart snapshots durably, keyed by session.
type Persister interface {
	SaveCartSnapshot(ctx context.Context, sessionID string, items []models.CartItem) error
	LoadCartSnapshot(ctx context.Context, sessionID string) ([]models.CartItem, error)
	DeleteCartSnapshot(ctx context.Context, sessionID string) error
}

// Store is the single source of truth for one session's in-progress cart.
// Mutations apply to local state immediately; the snapshot write is
// fire-and-forget, with failures logged rather than surfaced.
type Store struct {
	mu        sync.Mutex
	sessionID string
	items     []models.CartItem
	persister Persister
	logger    *zap.Logger
}

// NewStore creates an empty cart store for a session.
func NewStore(sessionID string, persister Persister) *Store {
	return &Store{
		sessionID: sessionID,
		items:     []models.CartItem{},
		persister: persister,
		logger:    util.GetLogger(),
	}
}

// Restore loads the persisted snapshot for this session, replacing any local
// state. A missing snapshot leaves the cart empty.
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	items, err := s.persister.LoadCartSnapshot(ctx, s.sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	return nil
}

// Items returns a copy of the cart contents in insertion order.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// AddItem increments an existing entry's quantity by 1, or inserts a new
// entry with quantity 1. Per-product caps are an API-layer rule, not
// enforced here.
func (s *Store) AddItem(ctx context.Context, productID int64) {
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		s.items = append(s.items, models.CartItem{ProductID: productID, Quantity: 1})
	}
	s.mu.Unlock()

	s.snapshot(ctx)
}

// RemoveItem deletes the entry unconditionally, regardless of quantity.
func (s *Store) RemoveItem(ctx context.Context, productID int64) {
	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mu.Unlock()

	s.snapshot(ctx)
}

// UpdateQuantity sets an existing entry's quantity when q > 0; q <= 0
// deletes the entry. A positive update for a product not in the cart is a
// no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	s.mu.Lock()
	if quantity > 0 {
		for i := range s.items {
			if s.items[i].ProductID == productID {
				s.items[i].Quantity = quantity
				break
			}
		}
	} else {
		kept := s.items[:0]
		for _, item := range s.items {
			if item.ProductID != productID {
				kept = append(kept, item)
			}
		}
		s.items = kept
	}
	s.mu.Unlock()

	s.snapshot(ctx)
}

// Clear empties the cart. Called after a successful order submission.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = []models.CartItem{}
	s.mu.Unlock()

	s.snapshot(ctx)
}

func (s *Store) snapshot(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveCartSnapshot(ctx, s.sessionID, s.Items()); err != nil {
		s.logger.Warn("Failed to persist cart snapshot",
			zap.String("session_id", s.sessionID),
			zap.Error(err))
	}
}
