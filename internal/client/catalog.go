package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/money"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
	"github.com/utafrali/EcommerceGo/storefront/pkg/slug"
)

type productDTO struct {
	ID       string       `json:"id"`
	Slug     string       `json:"slug"`
	Name     string       `json:"name"`
	Price    money.Amount `json:"price"`
	Images   []string     `json:"images"`
	Variants []struct {
		Size  string `json:"size"`
		Color string `json:"color"`
		Stock int    `json:"stock"`
	} `json:"variants"`
}

// CatalogClient reads products from the catalog service.
type CatalogClient struct {
	getter
}

// NewCatalogClient creates a catalog client rooted at baseURL.
func NewCatalogClient(http *httpclient.CircuitBreakerClient, baseURL string) *CatalogClient {
	return &CatalogClient{getter{http: http, baseURL: baseURL}}
}

// GetProduct fetches a product by slug. The slug is normalized first, so
// "Áo Thun Nam" finds "ao-thun-nam".
func (c *CatalogClient) GetProduct(ctx context.Context, productSlug string) (*domain.Product, error) {
	s := slug.Normalize(productSlug)
	if s == "" {
		return nil, apperrors.InvalidInput("product slug is required")
	}

	var dto productDTO
	if err := c.get(ctx, &dto, "products", s); err != nil {
		return nil, fmt.Errorf("get product %s: %w", s, err)
	}
	if strings.TrimSpace(dto.ID) == "" {
		return nil, fmt.Errorf("catalog returned product %s without id", s)
	}

	p := &domain.Product{
		ID:     dto.ID,
		Slug:   dto.Slug,
		Name:   dto.Name,
		Price:  dto.Price.Int64(),
		Images: dto.Images,
	}
	if p.Slug == "" {
		p.Slug = s
	}
	for _, v := range dto.Variants {
		p.Variants = append(p.Variants, domain.ProductVariant{Size: v.Size, Color: v.Color, Stock: max(v.Stock, 0)})
	}
	return p, nil
}
