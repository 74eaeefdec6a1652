package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/EcommerceGo/storefront/internal/cart"
	"github.com/utafrali/EcommerceGo/storefront/internal/checkout"
	"github.com/utafrali/EcommerceGo/storefront/internal/discount"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/event"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

const maxStateAttempts = 3

// ErrEmptyCart refuses a draft for a cart without lines.
var ErrEmptyCart = fmt.Errorf("cart is empty: %w", apperrors.ErrInvalidInput)

// FeeQuoter resolves shipping fees. *shipping.Resolver satisfies it.
type FeeQuoter interface {
	Quote(ctx context.Context, provinceCode, wardCode string) (domain.FeeResolution, error)
}

// DiscountQuote is the answer to applying a code.
type DiscountQuote struct {
	Code     *domain.DiscountCode `json:"code"`
	Amount   int64                `json:"amount"`
	Subtotal int64                `json:"subtotal"`
}

// CheckoutView is the checkout state together with what it implies for the
// current cart.
type CheckoutView struct {
	*domain.CheckoutState
	Subtotal       int64    `json:"subtotal"`
	DiscountAmount int64    `json:"discountAmount"`
	Warnings       []string `json:"warnings,omitempty"`
}

// CheckoutService implements discount, address, shipping and draft use
// cases.
type CheckoutService struct {
	carts     *cart.Manager
	repo      repository.CheckoutRepository
	discounts *discount.Validator
	shipping  FeeQuoter
	assembler *checkout.Assembler
	sessions  *checkout.Sessions
	events    *event.Producer
	logger    *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts *cart.Manager,
	repo repository.CheckoutRepository,
	discounts *discount.Validator,
	shipping FeeQuoter,
	assembler *checkout.Assembler,
	sessions *checkout.Sessions,
	events *event.Producer,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		repo:      repo,
		discounts: discounts,
		shipping:  shipping,
		assembler: assembler,
		sessions:  sessions,
		events:    events,
		logger:    logger,
	}
}

// updateState applies fn to the stored checkout state and saves it, replaying
// fn on a fresh copy when another writer got there first.
func (s *CheckoutService) updateState(ctx context.Context, sessionID string, fn func(*domain.CheckoutState)) (*domain.CheckoutState, error) {
	var lastErr error
	for attempt := 0; attempt < maxStateAttempts; attempt++ {
		st, err := s.repo.LoadCheckout(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		fn(st)
		saved, err := s.repo.SaveCheckout(ctx, st)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// GetCheckout returns the checkout state with the stored discount evaluated
// against the current subtotal.
func (s *CheckoutService) GetCheckout(ctx context.Context, sessionID string) (*CheckoutView, error) {
	st, err := s.repo.LoadCheckout(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	subtotal, err := s.carts.Store(sessionID).Subtotal(ctx)
	if err != nil {
		return nil, err
	}

	view := &CheckoutView{CheckoutState: st, Subtotal: subtotal}
	applied, warning := evaluateStored(st.Discount, subtotal)
	if applied != nil {
		view.DiscountAmount = applied.Amount
	}
	if warning != "" {
		view.Warnings = append(view.Warnings, warning)
	}
	return view, nil
}

// ApplyDiscount validates code against the current subtotal and remembers
// it. A cart change after the subtotal is read makes the result stale.
func (s *CheckoutService) ApplyDiscount(ctx context.Context, sessionID, code string) (*DiscountQuote, error) {
	var subtotal int64
	applied, err := checkout.Lookup(ctx, s.sessions, sessionID, "discount", func(ctx context.Context) (*discount.Applied, error) {
		var err error
		if subtotal, err = s.carts.Store(sessionID).Subtotal(ctx); err != nil {
			return nil, err
		}
		return s.discounts.Apply(ctx, code, subtotal)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.updateState(ctx, sessionID, func(st *domain.CheckoutState) {
		st.Discount = applied.Code.Clone()
	}); err != nil {
		return nil, fmt.Errorf("save discount: %w", err)
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "discount applied",
		slog.String("code", applied.Code.Code),
		slog.Int64("amount", applied.Amount),
		slog.Int64("subtotal", subtotal),
	)
	return &DiscountQuote{Code: applied.Code, Amount: applied.Amount, Subtotal: subtotal}, nil
}

// RemoveDiscount forgets the applied code.
func (s *CheckoutService) RemoveDiscount(ctx context.Context, sessionID string) (*domain.CheckoutState, error) {
	return s.updateState(ctx, sessionID, func(st *domain.CheckoutState) {
		st.Discount = nil
	})
}

// SetAddress stores the delivery address and, once it is complete, resolves
// its shipping fee. The address may be partial while the shopper is still
// typing; the fee is then cleared.
func (s *CheckoutService) SetAddress(ctx context.Context, sessionID string, addr domain.Address) (*domain.CheckoutState, error) {
	s.sessions.Bump(sessionID)

	var fee *domain.FeeResolution
	if addr.Complete() {
		res, err := s.QuoteShipping(ctx, sessionID, addr.ProvinceCode, addr.WardCode)
		if err != nil {
			return nil, err
		}
		fee = &res
		if addr.ProvinceName == "" {
			addr.ProvinceName = res.ProvinceName
		}
		if addr.WardName == "" {
			addr.WardName = res.WardName
		}
	}

	return s.updateState(ctx, sessionID, func(st *domain.CheckoutState) {
		st.Address = addr.Clone()
		st.Shipping = fee
	})
}

// QuoteShipping resolves the fee for a province and ward. A result that an
// address or cart change overtook is discarded.
func (s *CheckoutService) QuoteShipping(ctx context.Context, sessionID, provinceCode, wardCode string) (domain.FeeResolution, error) {
	return checkout.Lookup(ctx, s.sessions, sessionID, "shipping", func(ctx context.Context) (domain.FeeResolution, error) {
		return s.shipping.Quote(ctx, provinceCode, wardCode)
	})
}

// CreateDraft assembles an order draft from the current cart and checkout
// state. The stored discount is re-evaluated against the current subtotal;
// if it no longer applies the draft carries no discount and a warning.
func (s *CheckoutService) CreateDraft(ctx context.Context, sessionID string) (*domain.OrderDraft, error) {
	st, err := s.repo.LoadCheckout(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	lines, err := s.carts.Store(sessionID).Lines(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var addr domain.Address
	if st.Address != nil {
		addr = *st.Address
	}
	if missing := addr.Missing(); len(missing) > 0 {
		return nil, &checkout.IncompleteAddressError{Missing: missing}
	}

	fee, err := s.QuoteShipping(ctx, sessionID, addr.ProvinceCode, addr.WardCode)
	if err != nil {
		return nil, err
	}

	applied, warning := evaluateStored(st.Discount, domain.Subtotal(lines))
	draft, err := s.assembler.Assemble(ctx, lines, applied, fee, addr)
	if err != nil {
		return nil, err
	}
	draft.SessionID = sessionID
	if warning != "" {
		draft.Warnings = append(draft.Warnings, warning)
	}

	if err := s.events.PublishDraftAssembled(ctx, draft); err != nil {
		logger.WithContext(ctx, s.logger).ErrorContext(ctx, "failed to publish draft_assembled event",
			slog.String("draft_id", draft.ID),
			slog.String("error", err.Error()),
		)
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "order draft assembled",
		slog.String("draft_id", draft.ID),
		slog.Int64("total", draft.Total),
		slog.String("shipping_tier", string(draft.ShippingTier)),
	)
	return draft, nil
}

// evaluateStored re-checks a remembered code without fetching it again.
func evaluateStored(code *domain.DiscountCode, subtotal int64) (*discount.Applied, string) {
	if code == nil {
		return nil, ""
	}
	applied, err := discount.Evaluate(code, subtotal)
	if err != nil {
		return nil, fmt.Sprintf("discount code %s no longer applies: %v", code.Code, err)
	}
	return applied, ""
}
