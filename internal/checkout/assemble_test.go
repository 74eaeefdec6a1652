package checkout

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/internal/discount"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/metrics"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
)

func newTestAssembler() *Assembler {
	a := NewAssembler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	a.newID = func() string { return "draft-1" }
	return a
}

func sampleLines() []domain.CartLine {
	return []domain.CartLine{
		{ProductID: "ao-thun", Name: "Áo thun", UnitPrice: 150000, Quantity: 2, Variant: &domain.Variant{Size: "M", Color: "Red"}},
		{ProductID: "mu", Name: "Mũ", UnitPrice: 99000, Quantity: 1},
	}
}

func completeAddress() domain.Address {
	return domain.Address{HouseNumber: "12 Lê Lợi", ProvinceCode: "79", WardCode: "26734"}
}

func wardFee() domain.FeeResolution {
	return domain.FeeResolution{Fee: 15000, Tier: domain.TierWard, Resolved: true, ProvinceName: "Hồ Chí Minh", WardName: "Bến Nghé"}
}

func TestAssemble_Totals(t *testing.T) {
	a := newTestAssembler()
	applied := &discount.Applied{
		Code:   &domain.DiscountCode{Code: "SALE10", Type: domain.DiscountPercent, Value: 10, MaxDiscount: 50000, IsActive: true},
		Amount: 39900,
	}

	d, err := a.Assemble(context.Background(), sampleLines(), applied, wardFee(), completeAddress())
	require.NoError(t, err)

	assert.Equal(t, "draft-1", d.ID)
	assert.Equal(t, int64(399000), d.Subtotal)
	assert.Equal(t, int64(39900), d.DiscountAmount)
	assert.Equal(t, int64(15000), d.DeliveryFee)
	assert.Equal(t, int64(374100), d.Total)
	assert.Equal(t, domain.TierWard, d.ShippingTier)
	assert.Equal(t, "SALE10", d.AppliedDiscount.Code)
	assert.Equal(t, "Bến Nghé", d.Address.WardName)
	assert.Empty(t, d.Warnings)
}

func TestAssemble_NoDiscount(t *testing.T) {
	d, err := newTestAssembler().Assemble(context.Background(), sampleLines(), nil, wardFee(), completeAddress())
	require.NoError(t, err)
	assert.Zero(t, d.DiscountAmount)
	assert.Nil(t, d.AppliedDiscount)
	assert.Equal(t, int64(414000), d.Total)
}

func TestAssemble_EmptyCart(t *testing.T) {
	d, err := newTestAssembler().Assemble(context.Background(), nil, nil, wardFee(), completeAddress())
	require.NoError(t, err)
	assert.Zero(t, d.Subtotal)
	assert.Equal(t, int64(15000), d.Total)
	assert.NotNil(t, d.Lines)
}

func TestAssemble_IncompleteAddress(t *testing.T) {
	a := newTestAssembler()

	for _, addr := range []domain.Address{
		{ProvinceCode: "79", WardCode: "26734"},
		{HouseNumber: "1", WardCode: "26734"},
		{HouseNumber: "1", ProvinceCode: "79", WardCode: "  "},
	} {
		d, err := a.Assemble(context.Background(), sampleLines(), nil, wardFee(), addr)
		assert.Nil(t, d)
		assert.ErrorIs(t, err, domain.ErrAddressIncomplete)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestAssemble_IncompleteAddressDetails(t *testing.T) {
	_, err := newTestAssembler().Assemble(context.Background(), nil, nil, wardFee(), domain.Address{ProvinceCode: "79"})

	var detailer httputil.Detailer
	require.ErrorAs(t, err, &detailer)
	assert.Equal(t, []string{"houseNumber", "wardCode"}, detailer.Details()["missing"])
}

func TestAssemble_UnresolvedFee(t *testing.T) {
	_, err := newTestAssembler().Assemble(context.Background(), sampleLines(), nil, domain.FeeResolution{}, completeAddress())
	assert.ErrorIs(t, err, ErrShippingUnresolved)
}

func TestAssemble_DefaultFeeWarning(t *testing.T) {
	fee := domain.FeeResolution{Fee: 15000, Tier: domain.TierDefault, Resolved: true, DefaultApplied: true}

	d, err := newTestAssembler().Assemble(context.Background(), sampleLines(), nil, fee, completeAddress())
	require.NoError(t, err)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "default fee")
}

func TestAssemble_ClampsOversizedDiscount(t *testing.T) {
	before := testutil.ToFloat64(metrics.TotalsClamped)
	applied := &discount.Applied{
		Code:   &domain.DiscountCode{Code: "HUGE", Type: domain.DiscountFixed, Value: 1_000_000, MaxDiscount: 1_000_000, IsActive: true},
		Amount: 1_000_000,
	}
	fee := domain.FeeResolution{Fee: 0, Tier: domain.TierWard, Resolved: true}

	d, err := newTestAssembler().Assemble(context.Background(), sampleLines(), applied, fee, completeAddress())
	require.NoError(t, err)
	assert.Equal(t, d.Subtotal, d.DiscountAmount)
	assert.Zero(t, d.Total)
	assert.Equal(t, before, testutil.ToFloat64(metrics.TotalsClamped))
}

func TestAssemble_SnapshotIsIndependent(t *testing.T) {
	lines := sampleLines()
	code := &domain.DiscountCode{Code: "FLAT", Type: domain.DiscountFixed, Value: 1000, MaxDiscount: 1000, IsActive: true}

	d, err := newTestAssembler().Assemble(context.Background(), lines, &discount.Applied{Code: code, Amount: 1000}, wardFee(), completeAddress())
	require.NoError(t, err)

	lines[0].Quantity = 50
	lines[0].Variant.Size = "XXL"
	code.Value = 5

	assert.Equal(t, 2, d.Lines[0].Quantity)
	assert.Equal(t, "M", d.Lines[0].Variant.Size)
	assert.Equal(t, int64(1000), d.AppliedDiscount.Value)
}

func TestAssemble_PackageLevelHelper(t *testing.T) {
	d, err := Assemble(sampleLines(), nil, wardFee(), completeAddress())
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, int64(414000), d.Total)
}
