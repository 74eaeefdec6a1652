package discount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/metrics"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// Reason says why a code was rejected.
type Reason string

const (
	ReasonNotFound     Reason = "not_found"
	ReasonInactive     Reason = "inactive"
	ReasonBelowMinimum Reason = "below_minimum"
)

// Rejection is returned by Apply when a code cannot be used. For
// ReasonNotFound, Cause holds the fetch error if there was one.
type Rejection struct {
	Code          string
	Reason        Reason
	MinOrderValue int64
	Cause         error
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case ReasonInactive:
		return fmt.Sprintf("discount code %s is no longer active", r.Code)
	case ReasonBelowMinimum:
		return fmt.Sprintf("discount code %s requires a minimum order of %d", r.Code, r.MinOrderValue)
	default:
		if r.Cause != nil {
			return fmt.Sprintf("discount code %s could not be found: %v", r.Code, r.Cause)
		}
		return fmt.Sprintf("discount code %s could not be found", r.Code)
	}
}

// Unwrap exposes a transient fetch failure when there is one, so callers can
// tell "try again" from "no such code". Otherwise it yields the matching
// application error.
func (r *Rejection) Unwrap() error {
	if r.Cause != nil && apperrors.IsRetryable(r.Cause) {
		return r.Cause
	}
	switch r.Reason {
	case ReasonInactive:
		return apperrors.Unprocessable("DISCOUNT_INACTIVE", r.Error())
	case ReasonBelowMinimum:
		return apperrors.Unprocessable("DISCOUNT_BELOW_MINIMUM", r.Error())
	default:
		return &apperrors.AppError{
			Code:    "DISCOUNT_NOT_FOUND",
			Message: fmt.Sprintf("discount code %s could not be found", r.Code),
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	}
}

// Details is rendered into the error response.
func (r *Rejection) Details() map[string]any {
	d := map[string]any{"code": r.Code, "reason": string(r.Reason)}
	if r.Reason == ReasonBelowMinimum {
		d["minOrderValue"] = r.MinOrderValue
	}
	return d
}

// AsRejection extracts a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	ok := errors.As(err, &r)
	return r, ok
}

// Applied is a code that passed validation together with the amount it takes
// off the subtotal it was checked against.
type Applied struct {
	Code   *domain.DiscountCode
	Amount int64
}

// Fetcher looks a code up in the discount service. A missing code is an
// error wrapping apperrors.ErrNotFound.
type Fetcher interface {
	GetDiscount(ctx context.Context, code string) (*domain.DiscountCode, error)
}

// Validator checks discount codes against a subtotal.
type Validator struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(fetcher Fetcher, logger *slog.Logger) *Validator {
	return &Validator{fetcher: fetcher, logger: logger}
}

// Apply fetches code and evaluates it against subtotal. Every failure is a
// *Rejection.
func (v *Validator) Apply(ctx context.Context, code string, subtotal int64) (*Applied, error) {
	canonical := domain.CanonicalCode(code)
	if canonical == "" {
		return nil, reject(&Rejection{Code: canonical, Reason: ReasonNotFound})
	}

	d, err := v.fetcher.GetDiscount(ctx, canonical)
	if err != nil {
		rej := &Rejection{Code: canonical, Reason: ReasonNotFound}
		if !errors.Is(err, apperrors.ErrNotFound) {
			rej.Cause = err
			logger.WithContext(ctx, v.logger).WarnContext(ctx, "discount lookup failed",
				slog.String("code", canonical),
				slog.String("error", err.Error()),
			)
		}
		return nil, reject(rej)
	}

	applied, err := Evaluate(d, subtotal)
	if err != nil {
		return nil, err
	}
	metrics.DiscountsApplied.Inc()
	return applied, nil
}

// Evaluate checks an already fetched code against subtotal without I/O.
func Evaluate(d *domain.DiscountCode, subtotal int64) (*Applied, error) {
	switch {
	case d == nil:
		return nil, reject(&Rejection{Reason: ReasonNotFound})
	case !d.IsActive:
		return nil, reject(&Rejection{Code: d.Code, Reason: ReasonInactive})
	case subtotal < d.MinOrderValue:
		return nil, reject(&Rejection{Code: d.Code, Reason: ReasonBelowMinimum, MinOrderValue: d.MinOrderValue})
	}

	return &Applied{
		Code:   d.Clone(),
		Amount: domain.ComputeDiscount(d, subtotal),
	}, nil
}

func reject(r *Rejection) *Rejection {
	metrics.DiscountRejections.WithLabelValues(string(r.Reason)).Inc()
	return r
}
