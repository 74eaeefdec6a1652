package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
)

// Manager hands out one Store per session so that writes from this process
// are serialized, keeping the most recently used ones. Stores hold no cart
// state, so an evicted one is simply recreated.
type Manager struct {
	repo   repository.CartRepository
	logger *slog.Logger

	mu        sync.Mutex
	stores    *lru.Cache[string, *Store]
	observers []Observer
}

// NewManager creates a manager caching up to size stores.
func NewManager(repo repository.CartRepository, size int, logger *slog.Logger) (*Manager, error) {
	stores, err := lru.New[string, *Store](size)
	if err != nil {
		return nil, fmt.Errorf("create cart store cache: %w", err)
	}
	return &Manager{repo: repo, logger: logger, stores: stores}, nil
}

// OnChange registers fn on every store, current and future.
func (m *Manager) OnChange(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observers = append(m.observers, fn)
	for _, id := range m.stores.Keys() {
		if st, ok := m.stores.Peek(id); ok {
			st.Subscribe(fn)
		}
	}
}

// Store returns the store for sessionID, creating it if needed.
func (m *Manager) Store(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.stores.Get(sessionID); ok {
		return st
	}

	st := NewStore(sessionID, m.repo, m.logger)
	for _, fn := range m.observers {
		st.Subscribe(fn)
	}
	m.stores.Add(sessionID, st)
	return st
}

// Snapshot is a convenience for Store(sessionID).Snapshot(ctx).
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return m.Store(sessionID).Snapshot(ctx)
}

// Len returns how many stores are cached.
func (m *Manager) Len() int {
	return m.stores.Len()
}
