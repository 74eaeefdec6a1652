package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/EcommerceGo/storefront/internal/cart"
	"github.com/utafrali/EcommerceGo/storefront/internal/checkout"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// ProductCatalog looks products up by slug.
type ProductCatalog interface {
	GetProduct(ctx context.Context, slug string) (*domain.Product, error)
}

// AddItemInput holds the parameters for adding a product to the cart. The
// price always comes from the catalog.
type AddItemInput struct {
	Slug     string
	Variant  *domain.Variant
	Quantity int
}

// CartView is a cart with its derived totals.
type CartView struct {
	*domain.Cart
	Subtotal  int64 `json:"subtotal"`
	ItemCount int   `json:"itemCount"`
}

func newCartView(c *domain.Cart) *CartView {
	return &CartView{Cart: c, Subtotal: domain.Subtotal(c.Lines), ItemCount: domain.ItemCount(c.Lines)}
}

// CartService implements the cart use cases on top of the per-session cart
// stores.
type CartService struct {
	carts         *cart.Manager
	catalog       ProductCatalog
	lookupTimeout time.Duration
	logger        *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts *cart.Manager, catalog ProductCatalog, lookupTimeout time.Duration, logger *slog.Logger) *CartService {
	if lookupTimeout <= 0 {
		lookupTimeout = checkout.DefaultLookupTimeout
	}
	return &CartService{
		carts:         carts,
		catalog:       catalog,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

// GetCart returns the session's cart; an unknown session has an empty cart.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	c, err := s.carts.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return newCartView(c), nil
}

// AddItem re-reads the product from the catalog, checks the variant exists
// and has stock, and adds it at the catalog price.
func (s *CartService) AddItem(ctx context.Context, sessionID string, in AddItemInput) (*CartView, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	product, err := s.catalog.GetProduct(lookupCtx, in.Slug)
	cancel()
	if err != nil {
		return nil, err
	}

	line := cart.AddLineInput{
		ProductID: product.ID,
		Slug:      product.Slug,
		Name:      product.Name,
		UnitPrice: product.Price,
		Image:     product.Image(),
		Quantity:  in.Quantity,
	}

	if product.HasVariants() {
		if in.Variant == nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("product %s requires a size and color", product.Slug))
		}
		pv, ok := product.FindVariant(in.Variant)
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("product %s has no variant %s/%s", product.Slug, in.Variant.Size, in.Variant.Color))
		}
		if pv.Stock <= 0 {
			return nil, fmt.Errorf("%s %s/%s is sold out: %w", product.Slug, pv.Size, pv.Color, domain.ErrOutOfStock)
		}
		line.Variant = &domain.Variant{Size: pv.Size, Color: pv.Color}
		line.Stock = pv.Stock
	}

	c, err := s.carts.Store(sessionID).AddLine(ctx, line)
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "item added to cart",
		slog.String("product_id", product.ID),
		slog.Int("quantity", in.Quantity),
		slog.Int64("unit_price", product.Price),
	)
	return newCartView(c), nil
}

// UpdateQuantity changes a line's quantity by delta, never below 1. An
// increase re-reads the product from the catalog and is capped by the
// variant's current stock.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, v *domain.Variant, delta int) (*CartView, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	store := s.carts.Store(sessionID)
	var stock int
	if delta > 0 {
		var err error
		if stock, err = s.lineStock(ctx, store, productID, v); err != nil {
			return nil, err
		}
	}

	c, err := store.UpdateQuantity(ctx, productID, v, delta, stock)
	if err != nil {
		return nil, err
	}
	return newCartView(c), nil
}

// lineStock returns the catalog stock of the line's variant, or 0 when the
// line is missing or the product is not sold in variants.
func (s *CartService) lineStock(ctx context.Context, store *cart.Store, productID string, v *domain.Variant) (int, error) {
	lines, err := store.Lines(ctx)
	if err != nil {
		return 0, err
	}
	i := domain.FindLine(lines, productID, v)
	if i < 0 || lines[i].Slug == "" {
		return 0, nil
	}
	line := lines[i]

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	product, err := s.catalog.GetProduct(lookupCtx, line.Slug)
	cancel()
	if err != nil {
		return 0, err
	}
	if !product.HasVariants() {
		return 0, nil
	}

	pv, ok := product.FindVariant(line.Variant)
	if !ok || pv.Stock <= 0 {
		return 0, fmt.Errorf("%s is no longer available: %w", line.Slug, domain.ErrOutOfStock)
	}
	return pv.Stock, nil
}

// RemoveLine removes one product/variant line.
func (s *CartService) RemoveLine(ctx context.Context, sessionID, productID string, v *domain.Variant) (*CartView, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	c, err := s.carts.Store(sessionID).RemoveLine(ctx, productID, v)
	if err != nil {
		return nil, err
	}
	return newCartView(c), nil
}

// RemoveProduct removes every variant of a product.
func (s *CartService) RemoveProduct(ctx context.Context, sessionID, productID string) (*CartView, error) {
	c, err := s.carts.Store(sessionID).RemoveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return newCartView(c), nil
}

// ClearCart empties the cart.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (*CartView, error) {
	c, err := s.carts.Store(sessionID).Clear(ctx)
	if err != nil {
		return nil, err
	}
	return newCartView(c), nil
}
