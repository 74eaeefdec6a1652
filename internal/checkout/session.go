package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/metrics"
)

// DefaultLookupTimeout bounds every external lookup.
const DefaultLookupTimeout = 10 * time.Second

// Token identifies the generation a lookup started in.
type Token struct {
	SessionID  string
	Generation uint64
}

// Sessions tracks a generation number per session. Any cart or address
// change bumps it, so a lookup started before the change can tell that its
// result is stale. A session evicted from the cache invalidates every token
// issued for it.
type Sessions struct {
	timeout time.Duration

	mu   sync.Mutex
	seq  uint64
	gens *lru.Cache[string, uint64]
}

// NewSessions creates a registry tracking up to size sessions.
func NewSessions(size int, timeout time.Duration) (*Sessions, error) {
	gens, err := lru.New[string, uint64](size)
	if err != nil {
		return nil, fmt.Errorf("create session registry: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Sessions{timeout: timeout, gens: gens}, nil
}

// Current returns a token for the session's current generation.
func (s *Sessions) Current(sessionID string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen, ok := s.gens.Get(sessionID)
	if !ok {
		s.seq++
		gen = s.seq
		s.gens.Add(sessionID, gen)
	}
	return Token{SessionID: sessionID, Generation: gen}
}

// Bump starts a new generation for the session.
func (s *Sessions) Bump(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.gens.Add(sessionID, s.seq)
}

// Valid reports whether t is still the session's current generation.
func (s *Sessions) Valid(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen, ok := s.gens.Peek(t.SessionID)
	return ok && gen == t.Generation
}

// OnCartChanged bumps the generation of the cart's session. It matches
// cart.Observer.
func (s *Sessions) OnCartChanged(_ context.Context, c *domain.Cart) {
	s.Bump(c.SessionID)
}

// Lookup runs fn under the lookup timeout and discards its result with
// domain.ErrStaleResult if the session moved to a new generation meanwhile.
// name labels the stale-result metric.
func Lookup[T any](ctx context.Context, s *Sessions, sessionID, name string, fn func(context.Context) (T, error)) (T, error) {
	token := s.Current(sessionID)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := fn(ctx)
	if !s.Valid(token) {
		metrics.StaleResults.WithLabelValues(name).Inc()
		var zero T
		return zero, fmt.Errorf("%s: %w", name, domain.ErrStaleResult)
	}
	return res, err
}
