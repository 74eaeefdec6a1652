package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository/memory"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

func newStore() *repository.Store {
	return repository.New(memory.NewSlotStore(0))
}

func TestStore_LoadCart_Empty(t *testing.T) {
	s := newStore()

	c, err := s.LoadCart(context.Background(), "sess-0001")
	require.NoError(t, err)
	assert.Equal(t, "sess-0001", c.SessionID)
	assert.Equal(t, int64(0), c.Version)
	assert.NotNil(t, c.Lines)
	assert.Empty(t, c.Lines)
}

func TestStore_SaveCart_RoundTripAndVersion(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	c, err := s.LoadCart(ctx, "sess-0001")
	require.NoError(t, err)
	c.Lines = append(c.Lines, domain.CartLine{
		ProductID: "p1", Name: "Áo thun", UnitPrice: 150000, Quantity: 2,
		Variant: &domain.Variant{Size: "M", Color: "Đỏ"},
	})

	saved, err := s.SaveCart(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
	assert.False(t, saved.UpdatedAt.IsZero())

	loaded, err := s.LoadCart(ctx, "sess-0001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Version)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, "Đỏ", loaded.Lines[0].Variant.Color)
	assert.Equal(t, int64(300000), domain.Subtotal(loaded.Lines))
}

func TestStore_SaveCart_StaleVersionConflicts(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	first, err := s.LoadCart(ctx, "sess-0001")
	require.NoError(t, err)
	second, err := s.LoadCart(ctx, "sess-0001")
	require.NoError(t, err)

	_, err = s.SaveCart(ctx, first)
	require.NoError(t, err)

	_, err = s.SaveCart(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestStore_SaveCart_DoesNotAliasInput(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	c, _ := s.LoadCart(ctx, "sess-0001")
	c.Lines = []domain.CartLine{{ProductID: "p1", UnitPrice: 10, Quantity: 1}}
	saved, err := s.SaveCart(ctx, c)
	require.NoError(t, err)

	c.Lines[0].Quantity = 99
	assert.Equal(t, 1, saved.Lines[0].Quantity)
}

func TestStore_Checkout_RoundTrip(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	st, err := s.LoadCheckout(ctx, "sess-0001")
	require.NoError(t, err)
	assert.Nil(t, st.Address)
	assert.Equal(t, int64(0), st.Version)

	st.Address = &domain.Address{HouseNumber: "12", ProvinceCode: "79", WardCode: "26734"}
	st.Discount = &domain.DiscountCode{Code: "SALE10", Type: domain.DiscountPercent, Value: 10, MaxDiscount: 50000, IsActive: true}
	saved, err := s.SaveCheckout(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	loaded, err := s.LoadCheckout(ctx, "sess-0001")
	require.NoError(t, err)
	assert.Equal(t, "26734", loaded.Address.WardCode)
	assert.Equal(t, "SALE10", loaded.Discount.Code)

	_, err = s.SaveCheckout(ctx, st)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestStore_SlotsAreIndependent(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	c, _ := s.LoadCart(ctx, "sess-0001")
	_, err := s.SaveCart(ctx, c)
	require.NoError(t, err)

	st, err := s.LoadCheckout(ctx, "sess-0001")
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Version)
}
