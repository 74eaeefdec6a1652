package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

// Slot names under which a session's state is stored.
const (
	SlotCart     = "cart"
	SlotCheckout = "checkout"
)

// SlotStore is the raw persistence port. Each (session, slot) pair holds one
// opaque JSON document and a version that starts at 1 and grows by one per
// successful save.
type SlotStore interface {
	// Load returns the stored payload and its version. A missing or expired
	// slot yields (nil, 0, nil).
	Load(ctx context.Context, sessionID, slot string) ([]byte, int64, error)

	// Save stores payload if the slot's current version equals expected
	// (0 for a slot that does not exist yet) and returns the new version.
	// A mismatch returns domain.ErrVersionConflict.
	Save(ctx context.Context, sessionID, slot string, payload []byte, expected int64) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// CartRepository persists cart snapshots.
type CartRepository interface {
	LoadCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	// SaveCart writes c if the stored version still equals c.Version and
	// returns the committed snapshot carrying the new version.
	SaveCart(ctx context.Context, c *domain.Cart) (*domain.Cart, error)
}

// CheckoutRepository persists checkout state.
type CheckoutRepository interface {
	LoadCheckout(ctx context.Context, sessionID string) (*domain.CheckoutState, error)
	SaveCheckout(ctx context.Context, s *domain.CheckoutState) (*domain.CheckoutState, error)
}

// Store encodes carts and checkout state as JSON documents on top of a
// SlotStore. It implements both CartRepository and CheckoutRepository.
type Store struct {
	slots SlotStore
	now   func() time.Time
}

// New creates a Store backed by slots.
func New(slots SlotStore) *Store {
	return &Store{slots: slots, now: time.Now}
}

// Ping checks the underlying backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.slots.Ping(ctx)
}

// LoadCart returns the session's cart, or an empty cart at version 0.
func (s *Store) LoadCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	payload, version, err := s.slots.Load(ctx, sessionID, SlotCart)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	c := &domain.Cart{SessionID: sessionID, Lines: []domain.CartLine{}}
	if payload != nil {
		if err := json.Unmarshal(payload, c); err != nil {
			return nil, fmt.Errorf("unmarshal cart: %w", err)
		}
		if c.Lines == nil {
			c.Lines = []domain.CartLine{}
		}
	}
	c.SessionID = sessionID
	c.Version = version
	return c, nil
}

// SaveCart implements CartRepository.
func (s *Store) SaveCart(ctx context.Context, c *domain.Cart) (*domain.Cart, error) {
	next := &domain.Cart{
		SessionID: c.SessionID,
		Lines:     domain.CloneLines(c.Lines),
		Version:   c.Version + 1,
		UpdatedAt: s.now().UTC(),
	}
	payload, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}

	version, err := s.slots.Save(ctx, c.SessionID, SlotCart, payload, c.Version)
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	next.Version = version
	return next, nil
}

// LoadCheckout returns the session's checkout state, or an empty state at
// version 0.
func (s *Store) LoadCheckout(ctx context.Context, sessionID string) (*domain.CheckoutState, error) {
	payload, version, err := s.slots.Load(ctx, sessionID, SlotCheckout)
	if err != nil {
		return nil, fmt.Errorf("load checkout: %w", err)
	}

	st := &domain.CheckoutState{}
	if payload != nil {
		if err := json.Unmarshal(payload, st); err != nil {
			return nil, fmt.Errorf("unmarshal checkout: %w", err)
		}
	}
	st.SessionID = sessionID
	st.Version = version
	return st, nil
}

// SaveCheckout implements CheckoutRepository.
func (s *Store) SaveCheckout(ctx context.Context, st *domain.CheckoutState) (*domain.CheckoutState, error) {
	next := st.Clone()
	next.Version = st.Version + 1
	next.UpdatedAt = s.now().UTC()

	payload, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout: %w", err)
	}

	version, err := s.slots.Save(ctx, st.SessionID, SlotCheckout, payload, st.Version)
	if err != nil {
		return nil, fmt.Errorf("save checkout: %w", err)
	}
	next.Version = version
	return next, nil
}
