package memory

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

type slotKey struct{ session, slot string }

type entry struct {
	payload   []byte
	version   int64
	expiresAt time.Time
}

// SlotStore is an in-process repository.SlotStore. Entries expire after the
// configured TTL; a zero TTL keeps them forever.
type SlotStore struct {
	mu      sync.Mutex
	entries map[slotKey]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewSlotStore creates an empty in-memory store.
func NewSlotStore(ttl time.Duration) *SlotStore {
	return &SlotStore{
		entries: make(map[slotKey]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *SlotStore) live(k slotKey) (entry, bool) {
	e, ok := s.entries[k]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, k)
		return entry{}, false
	}
	return e, true
}

// Load implements repository.SlotStore.
func (s *SlotStore) Load(_ context.Context, sessionID, slot string) ([]byte, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(slotKey{sessionID, slot})
	if !ok {
		return nil, 0, nil
	}
	return append([]byte(nil), e.payload...), e.version, nil
}

// Save implements repository.SlotStore.
func (s *SlotStore) Save(_ context.Context, sessionID, slot string, payload []byte, expected int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := slotKey{sessionID, slot}
	cur, _ := s.live(k)
	if cur.version != expected {
		return 0, domain.ErrVersionConflict
	}

	next := entry{payload: append([]byte(nil), payload...), version: expected + 1}
	if s.ttl > 0 {
		next.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[k] = next
	return next.version, nil
}

// Ping always succeeds.
func (s *SlotStore) Ping(context.Context) error { return nil }

// PurgeExpired drops expired entries and returns how many were removed.
func (s *SlotStore) PurgeExpired(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k := range s.entries {
		if _, ok := s.live(k); !ok {
			n++
		}
	}
	return n, nil
}
