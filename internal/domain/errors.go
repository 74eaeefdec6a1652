package domain

import (
	"fmt"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

var (
	// ErrAddressIncomplete is returned by assembly when houseNumber,
	// provinceCode or wardCode is blank.
	ErrAddressIncomplete = fmt.Errorf("address incomplete: %w", apperrors.ErrInvalidInput)

	// ErrInvalidQuantity rejects non-positive quantities.
	ErrInvalidQuantity = fmt.Errorf("quantity must be at least 1: %w", apperrors.ErrInvalidInput)

	// ErrLineLimit rejects quantities or line counts beyond the cart limits.
	ErrLineLimit = fmt.Errorf("cart limit exceeded: %w", apperrors.ErrInvalidInput)

	// ErrOutOfStock rejects quantities above the variant's stock.
	ErrOutOfStock = fmt.Errorf("quantity exceeds stock: %w", apperrors.ErrInvalidInput)

	// ErrVersionConflict is returned by persistence when the stored version
	// is not the one the writer read.
	ErrVersionConflict = fmt.Errorf("version conflict: %w", apperrors.ErrConflict)

	// ErrStaleResult marks a lookup result that was superseded by a newer
	// cart or address change before it arrived.
	ErrStaleResult = fmt.Errorf("result superseded: %w", apperrors.ErrGone)
)
