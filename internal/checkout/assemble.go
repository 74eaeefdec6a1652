package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/EcommerceGo/storefront/internal/discount"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/metrics"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// ErrShippingUnresolved refuses a draft whose fee was never resolved for the
// address.
var ErrShippingUnresolved = fmt.Errorf("shipping fee not resolved: %w", apperrors.ErrInvalidInput)

// IncompleteAddressError names the blank required address fields.
type IncompleteAddressError struct {
	Missing []string
}

func (e *IncompleteAddressError) Error() string {
	return "address incomplete: missing " + strings.Join(e.Missing, ", ")
}

func (e *IncompleteAddressError) Unwrap() error { return domain.ErrAddressIncomplete }

// Details is rendered into the error response.
func (e *IncompleteAddressError) Details() map[string]any {
	return map[string]any{"missing": e.Missing}
}

// Assembler builds order drafts.
type Assembler struct {
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewAssembler creates an Assembler.
func NewAssembler(logger *slog.Logger) *Assembler {
	return &Assembler{
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Assemble builds a draft with the default assembler.
func Assemble(lines []domain.CartLine, applied *discount.Applied, fee domain.FeeResolution, addr domain.Address) (*domain.OrderDraft, error) {
	return NewAssembler(slog.Default()).Assemble(context.Background(), lines, applied, fee, addr)
}

// Assemble computes subtotal, discount, delivery fee and total for lines and
// returns a draft that owns copies of everything it holds. It refuses an
// address without houseNumber, provinceCode and wardCode, and never returns
// a partial draft.
func (a *Assembler) Assemble(ctx context.Context, lines []domain.CartLine, applied *discount.Applied, fee domain.FeeResolution, addr domain.Address) (*domain.OrderDraft, error) {
	if missing := addr.Missing(); len(missing) > 0 {
		return nil, &IncompleteAddressError{Missing: missing}
	}
	if !fee.Resolved || fee.Fee < 0 {
		return nil, ErrShippingUnresolved
	}

	l := logger.WithContext(ctx, a.logger)
	subtotal := domain.Subtotal(lines)

	var discountAmount int64
	var code *domain.DiscountCode
	if applied != nil {
		discountAmount = applied.Amount
		code = applied.Code.Clone()
		if discountAmount < 0 || discountAmount > subtotal {
			l.ErrorContext(ctx, "discount amount outside [0, subtotal], clamping",
				slog.Int64("discount", discountAmount),
				slog.Int64("subtotal", subtotal),
			)
			discountAmount = min(max(discountAmount, 0), subtotal)
		}
	}

	total := subtotal - discountAmount + fee.Fee
	if total < 0 {
		l.ErrorContext(ctx, "negative draft total, clamping to zero",
			slog.Int64("subtotal", subtotal),
			slog.Int64("discount", discountAmount),
			slog.Int64("delivery_fee", fee.Fee),
		)
		metrics.TotalsClamped.Inc()
		total = 0
	}

	address := addr
	if address.ProvinceName == "" {
		address.ProvinceName = fee.ProvinceName
	}
	if address.WardName == "" {
		address.WardName = fee.WardName
	}

	draft := &domain.OrderDraft{
		ID:              a.newID(),
		Lines:           domain.CloneLines(lines),
		Subtotal:        subtotal,
		DiscountAmount:  discountAmount,
		DeliveryFee:     fee.Fee,
		Total:           total,
		Address:         address,
		AppliedDiscount: code,
		ShippingTier:    fee.Tier,
		CreatedAt:       a.now().UTC(),
	}
	if w := fee.Warning(); w != "" {
		draft.Warnings = append(draft.Warnings, w)
	}

	metrics.DraftsAssembled.Inc()
	return draft, nil
}
