package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/money"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
)

type discountDTO struct {
	Code          string          `json:"code"`
	Type          string          `json:"type"`
	Value         json.RawMessage `json:"value"`
	MaxDiscount   money.Amount    `json:"maxDiscount"`
	MinOrderValue money.Amount    `json:"minOrderValue"`
	IsActive      bool            `json:"isActive"`
}

// DiscountClient reads discount codes from the discount service.
type DiscountClient struct {
	getter
}

// NewDiscountClient creates a discount client rooted at baseURL.
func NewDiscountClient(http *httpclient.CircuitBreakerClient, baseURL string) *DiscountClient {
	return &DiscountClient{getter{http: http, baseURL: baseURL}}
}

// GetDiscount implements discount.Fetcher. A 404 surfaces as an error
// wrapping apperrors.ErrNotFound.
func (c *DiscountClient) GetDiscount(ctx context.Context, code string) (*domain.DiscountCode, error) {
	var dto discountDTO
	if err := c.get(ctx, &dto, "discounts", code); err != nil {
		return nil, fmt.Errorf("get discount %s: %w", code, err)
	}

	d := &domain.DiscountCode{
		Code:          domain.CanonicalCode(dto.Code),
		Type:          domain.DiscountType(strings.ToLower(strings.TrimSpace(dto.Type))),
		MaxDiscount:   dto.MaxDiscount.Int64(),
		MinOrderValue: dto.MinOrderValue.Int64(),
		IsActive:      dto.IsActive,
	}
	if d.Code == "" {
		d.Code = code
	}
	if !d.Type.Valid() {
		return nil, fmt.Errorf("discount %s has unknown type %q", code, dto.Type)
	}
	value, err := discountValue(d.Type, dto.Value)
	if err != nil {
		return nil, fmt.Errorf("discount %s value: %w", code, err)
	}
	d.Value = value
	return d, nil
}

// discountValue reads a percentage ("10", 10, "10%") for percent codes and an
// amount for fixed ones. A missing value is 0.
func discountValue(t domain.DiscountType, raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if t != domain.DiscountPercent {
		var a money.Amount
		if err := json.Unmarshal(raw, &a); err != nil {
			return 0, err
		}
		return a.Int64(), nil
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	}
	return money.ParsePercent(s)
}
