package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/metrics"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// maxSaveAttempts bounds how often a mutation is replayed on a fresh snapshot
// after another writer committed first.
const maxSaveAttempts = 3

// AddLineInput describes a line to add. UnitPrice, Name, Slug and Image are
// taken as given; Stock caps the merged quantity when positive.
type AddLineInput struct {
	ProductID string
	Slug      string
	Name      string
	UnitPrice int64
	Image     string
	Variant   *domain.Variant
	Quantity  int
	Stock     int
}

// Observer is notified with the committed snapshot after every mutation that
// changed the cart. Observers run on the mutating goroutine after the store
// lock is released.
type Observer func(ctx context.Context, c *domain.Cart)

// Store serializes one session's cart mutations. It keeps no copy of the
// cart: every read and every mutation starts from the persisted snapshot, so
// an expired slot or a write from another replica is seen immediately. A
// failed save leaves the persisted cart untouched.
type Store struct {
	sessionID string
	repo      repository.CartRepository
	logger    *slog.Logger

	mu     sync.Mutex
	subs   map[int]Observer
	nextID int
}

// NewStore creates the store for sessionID.
func NewStore(sessionID string, repo repository.CartRepository, logger *slog.Logger) *Store {
	return &Store{
		sessionID: sessionID,
		repo:      repo,
		logger:    logger,
		subs:      make(map[int]Observer),
	}
}

// SessionID returns the session the store belongs to.
func (s *Store) SessionID() string { return s.sessionID }

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// load reads the persisted cart. Lines sharing an identity can only come from
// a corrupted or hand-edited slot; they are folded together and logged.
func (s *Store) load(ctx context.Context) (*domain.Cart, error) {
	c, err := s.repo.LoadCart(ctx, s.sessionID)
	if err != nil {
		return nil, err
	}
	if dups := domain.DuplicateIdentities(c.Lines); len(dups) > 0 {
		s.logger.ErrorContext(ctx, "persisted cart has duplicate lines, merging",
			slog.String("session_id", s.sessionID),
			slog.Int64("version", c.Version),
			slog.Any("identities", dups),
		)
		c.Lines = domain.MergeDuplicates(c.Lines)
	}
	return c, nil
}

// Snapshot returns the current persisted cart.
func (s *Store) Snapshot(ctx context.Context) (*domain.Cart, error) {
	return s.load(ctx)
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines(ctx context.Context) ([]domain.CartLine, error) {
	c, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return c.Lines, nil
}

// Subtotal returns Σ unitPrice × quantity; 0 for an empty cart.
func (s *Store) Subtotal(ctx context.Context) (int64, error) {
	c, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return domain.Subtotal(c.Lines), nil
}

// ItemCount returns the total quantity across lines.
func (s *Store) ItemCount(ctx context.Context) (int, error) {
	c, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return domain.ItemCount(c.Lines), nil
}

// AddLine merges in.Quantity into the line with the same identity, or
// appends a new line. On merge the line takes the given price, name, slug
// and image.
func (s *Store) AddLine(ctx context.Context, in AddLineInput) (*domain.Cart, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.UnitPrice < 0 {
		return nil, apperrors.InvalidInput("unit price must not be negative")
	}

	return s.mutate(ctx, "add", func(lines []domain.CartLine) ([]domain.CartLine, bool, error) {
		if i := domain.FindLine(lines, in.ProductID, in.Variant); i >= 0 {
			qty := lines[i].Quantity + in.Quantity
			if err := checkQuantity(qty, in.Stock); err != nil {
				return nil, false, err
			}
			lines[i].Quantity = qty
			lines[i].UnitPrice = in.UnitPrice
			lines[i].Name = in.Name
			lines[i].Slug = in.Slug
			lines[i].Image = in.Image
			return lines, true, nil
		}

		if len(lines) >= domain.MaxLinesPerCart {
			return nil, false, fmt.Errorf("cart must not contain more than %d lines: %w", domain.MaxLinesPerCart, domain.ErrLineLimit)
		}
		if err := checkQuantity(in.Quantity, in.Stock); err != nil {
			return nil, false, err
		}
		return append(lines, domain.CartLine{
			ProductID: in.ProductID,
			Slug:      in.Slug,
			Name:      in.Name,
			UnitPrice: in.UnitPrice,
			Image:     in.Image,
			Variant:   in.Variant.Clone(),
			Quantity:  in.Quantity,
		}), true, nil
	})
}

func checkQuantity(qty, stock int) error {
	if qty > domain.MaxQuantityPerLine {
		return fmt.Errorf("quantity must not exceed %d: %w", domain.MaxQuantityPerLine, domain.ErrLineLimit)
	}
	if stock > 0 && qty > stock {
		return fmt.Errorf("only %d in stock: %w", stock, domain.ErrOutOfStock)
	}
	return nil
}

// UpdateQuantity adds delta to the line's quantity, never going below 1.
// An increase is checked against stock when stock is positive. A missing
// line is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, v *domain.Variant, delta, stock int) (*domain.Cart, error) {
	return s.mutate(ctx, "update_quantity", func(lines []domain.CartLine) ([]domain.CartLine, bool, error) {
		i := domain.FindLine(lines, productID, v)
		if i < 0 {
			return lines, false, nil
		}
		qty := max(1, lines[i].Quantity+delta)
		if qty > lines[i].Quantity {
			if err := checkQuantity(qty, stock); err != nil {
				return nil, false, err
			}
		}
		if qty == lines[i].Quantity {
			return lines, false, nil
		}
		lines[i].Quantity = qty
		return lines, true, nil
	})
}

// RemoveLine removes the line with the given product and variant identity.
func (s *Store) RemoveLine(ctx context.Context, productID string, v *domain.Variant) (*domain.Cart, error) {
	return s.mutate(ctx, "remove_line", func(lines []domain.CartLine) ([]domain.CartLine, bool, error) {
		i := domain.FindLine(lines, productID, v)
		if i < 0 {
			return lines, false, nil
		}
		return append(lines[:i], lines[i+1:]...), true, nil
	})
}

// RemoveProduct removes every line of productID, whatever its variant.
func (s *Store) RemoveProduct(ctx context.Context, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, "remove_product", func(lines []domain.CartLine) ([]domain.CartLine, bool, error) {
		kept := lines[:0]
		for _, l := range lines {
			if l.ProductID != productID {
				kept = append(kept, l)
			}
		}
		return kept, len(kept) != len(lines), nil
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) (*domain.Cart, error) {
	return s.mutate(ctx, "clear", func(lines []domain.CartLine) ([]domain.CartLine, bool, error) {
		return []domain.CartLine{}, len(lines) > 0, nil
	})
}

type mutation func(lines []domain.CartLine) (next []domain.CartLine, changed bool, err error)

func (s *Store) mutate(ctx context.Context, op string, fn mutation) (*domain.Cart, error) {
	s.mu.Lock()

	current, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	var saved *domain.Cart
	for attempt := 1; ; attempt++ {
		next, changed, err := fn(domain.CloneLines(current.Lines))
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if !changed {
			s.mu.Unlock()
			return current, nil
		}

		saved, err = s.repo.SaveCart(ctx, &domain.Cart{
			SessionID: s.sessionID,
			Lines:     next,
			Version:   current.Version,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt == maxSaveAttempts {
			s.mu.Unlock()
			return nil, err
		}

		s.logger.InfoContext(ctx, "cart changed elsewhere, reloading",
			slog.String("session_id", s.sessionID),
			slog.String("op", op),
			slog.Int64("stale_version", current.Version),
		)
		if current, err = s.load(ctx); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}

	metrics.CartMutations.WithLabelValues(op).Inc()
	observers := make([]Observer, 0, len(s.subs))
	for _, fn := range s.subs {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, obs := range observers {
		obs(ctx, cloneCart(saved))
	}
	return cloneCart(saved), nil
}

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Lines = domain.CloneLines(c.Lines)
	return &out
}
