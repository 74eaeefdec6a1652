package client

import (
	"context"
	"fmt"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/money"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
)

type feeEntryDTO struct {
	ProvinceCode string       `json:"provinceCode"`
	ProvinceName string       `json:"provinceName"`
	WardCode     *string      `json:"wardCode"`
	WardName     string       `json:"wardName"`
	Fee          money.Amount `json:"fee"`
}

// ShippingClient reads the fee table from the shipping service.
type ShippingClient struct {
	getter
}

// NewShippingClient creates a shipping client rooted at baseURL.
func NewShippingClient(http *httpclient.CircuitBreakerClient, baseURL string) *ShippingClient {
	return &ShippingClient{getter{http: http, baseURL: baseURL}}
}

// LoadFeeTable implements shipping.Loader.
func (c *ShippingClient) LoadFeeTable(ctx context.Context) ([]domain.ShippingFeeEntry, error) {
	var dtos []feeEntryDTO
	if err := c.get(ctx, &dtos, "shipping-fees"); err != nil {
		return nil, fmt.Errorf("get shipping fees: %w", err)
	}

	entries := make([]domain.ShippingFeeEntry, 0, len(dtos))
	for _, d := range dtos {
		entries = append(entries, domain.ShippingFeeEntry{
			ProvinceCode: d.ProvinceCode,
			ProvinceName: d.ProvinceName,
			WardCode:     d.WardCode,
			WardName:     d.WardName,
			Fee:          d.Fee.Int64(),
		})
	}
	return entries, nil
}
