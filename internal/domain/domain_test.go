package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

func strPtr(s string) *string { return &s }

// ============================================================================
// VariantKey
// ============================================================================

func TestVariantKey_CaseAndWhitespaceInsensitive(t *testing.T) {
	a := VariantKey(&Variant{Size: "M", Color: "Red"})
	b := VariantKey(&Variant{Size: " m ", Color: "red"})
	assert.Equal(t, a, b)
}

func TestVariantKey_NilEqualsEmpty(t *testing.T) {
	assert.Equal(t, VariantKey(nil), VariantKey(&Variant{}))
	assert.Equal(t, VariantKey(nil), VariantKey(&Variant{Size: "  "}))
}

func TestVariantKey_DistinguishesFields(t *testing.T) {
	assert.NotEqual(t, VariantKey(&Variant{Size: "M"}), VariantKey(&Variant{Color: "M"}))
	assert.NotEqual(t, VariantKey(&Variant{Size: "M", Color: "Red"}), VariantKey(&Variant{Size: "L", Color: "Red"}))
}

func TestVariantKey_UnicodeFold(t *testing.T) {
	assert.Equal(t, VariantKey(&Variant{Color: "ĐỎ"}), VariantKey(&Variant{Color: "đỏ"}))
}

func TestVariantKey_Deterministic(t *testing.T) {
	v := &Variant{Size: "XL", Color: "Xanh Dương"}
	assert.Equal(t, VariantKey(v), VariantKey(v))
}

// ============================================================================
// Cart helpers
// ============================================================================

func TestSubtotal(t *testing.T) {
	lines := []CartLine{
		{UnitPrice: 150000, Quantity: 2},
		{UnitPrice: 99000, Quantity: 1},
		{UnitPrice: 0, Quantity: 4},
	}
	assert.Equal(t, int64(399000), Subtotal(lines))
	assert.Equal(t, int64(0), Subtotal(nil))
	assert.Equal(t, 7, ItemCount(lines))
}

func TestFindLine_ByIdentity(t *testing.T) {
	lines := []CartLine{
		{ProductID: "p1", Variant: &Variant{Size: "M", Color: "Red"}},
		{ProductID: "p1", Variant: &Variant{Size: "L", Color: "Red"}},
		{ProductID: "p2"},
	}
	assert.Equal(t, 1, FindLine(lines, "p1", &Variant{Size: " l", Color: "RED"}))
	assert.Equal(t, 2, FindLine(lines, "p2", nil))
	assert.Equal(t, -1, FindLine(lines, "p3", nil))
}

func TestCloneLines_IsDeep(t *testing.T) {
	orig := []CartLine{{ProductID: "p1", Quantity: 1, Variant: &Variant{Size: "M"}}}
	cp := CloneLines(orig)

	orig[0].Quantity = 9
	orig[0].Variant.Size = "XXL"

	assert.Equal(t, 1, cp[0].Quantity)
	assert.Equal(t, "M", cp[0].Variant.Size)
	assert.NotNil(t, CloneLines(nil))
}

func TestMergeDuplicates(t *testing.T) {
	lines := []CartLine{
		{ProductID: "p1", Quantity: 2, Variant: &Variant{Size: "M"}},
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 99, Variant: &Variant{Size: " m "}},
	}
	require.Len(t, DuplicateIdentities(lines), 1)

	merged := MergeDuplicates(lines)
	require.Len(t, merged, 2)
	assert.Equal(t, "p1", merged[0].ProductID)
	assert.Equal(t, MaxQuantityPerLine, merged[0].Quantity)
	assert.Empty(t, DuplicateIdentities(merged))
}

// ============================================================================
// ComputeDiscount
// ============================================================================

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		code     *DiscountCode
		subtotal int64
		want     int64
	}{
		{"percent capped at max", &DiscountCode{Type: DiscountPercent, Value: 50, MaxDiscount: 300000}, 1000000, 300000},
		{"percent under cap", &DiscountCode{Type: DiscountPercent, Value: 10, MaxDiscount: 300000}, 1000000, 100000},
		{"percent truncates", &DiscountCode{Type: DiscountPercent, Value: 15, MaxDiscount: 1000000}, 99999, 14999},
		{"fixed", &DiscountCode{Type: DiscountFixed, Value: 50000, MaxDiscount: 50000}, 200000, 50000},
		{"fixed capped", &DiscountCode{Type: DiscountFixed, Value: 80000, MaxDiscount: 50000}, 200000, 50000},
		{"fixed clamped to subtotal", &DiscountCode{Type: DiscountFixed, Value: 500000, MaxDiscount: 900000}, 200000, 200000},
		{"percent over 100 treated as 100", &DiscountCode{Type: DiscountPercent, Value: 150, MaxDiscount: 900000}, 100000, 100000},
		{"negative value", &DiscountCode{Type: DiscountFixed, Value: -10, MaxDiscount: 100}, 1000, 0},
		{"zero cap", &DiscountCode{Type: DiscountFixed, Value: 10000, MaxDiscount: 0}, 100000, 0},
		{"unknown type", &DiscountCode{Type: "bogo", Value: 10, MaxDiscount: 100}, 1000, 0},
		{"nil code", nil, 1000, 0},
		{"empty cart", &DiscountCode{Type: DiscountFixed, Value: 10, MaxDiscount: 100}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(tt.code, tt.subtotal)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, int64(0))
			assert.LessOrEqual(t, got, max(tt.subtotal, 0))
		})
	}
}

func TestCanonicalCode(t *testing.T) {
	assert.Equal(t, "SALE10", CanonicalCode("  sale10 "))
}

// ============================================================================
// Shipping fees
// ============================================================================

func hcmTable(t *testing.T) *FeeTable {
	t.Helper()
	table, err := NewFeeTable([]ShippingFeeEntry{
		{ProvinceCode: "79", ProvinceName: "TP Hồ Chí Minh", WardCode: strPtr("26734"), WardName: "Phường Bến Nghé", Fee: 20000},
		{ProvinceCode: "79", ProvinceName: "TP Hồ Chí Minh", Fee: 30000},
		{ProvinceCode: "01", ProvinceName: "Hà Nội", WardCode: strPtr("00004"), WardName: "Phường Trúc Bạch", Fee: 35000},
	})
	require.NoError(t, err)
	return table
}

func TestResolveShippingFee_Tiers(t *testing.T) {
	table := hcmTable(t)

	exact, err := ResolveShippingFee("79", "26734", table, DefaultShippingFee)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), exact.Fee)
	assert.Equal(t, TierWard, exact.Tier)
	assert.False(t, exact.UsedFallback)
	assert.False(t, exact.DefaultApplied)
	assert.Equal(t, "Phường Bến Nghé", exact.WardName)

	province, err := ResolveShippingFee("79", "99999", table, DefaultShippingFee)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), province.Fee)
	assert.True(t, province.UsedFallback)
	assert.False(t, province.DefaultApplied)

	def, err := ResolveShippingFee("01", "00007", table, DefaultShippingFee)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), def.Fee)
	assert.Equal(t, TierDefault, def.Tier)
	assert.True(t, def.DefaultApplied)
	assert.NotEmpty(t, def.Warning())
}

func TestResolveShippingFee_IncompleteAddress(t *testing.T) {
	for _, in := range [][2]string{{"", "26734"}, {"79", ""}, {"  ", " "}} {
		res, err := ResolveShippingFee(in[0], in[1], hcmTable(t), DefaultShippingFee)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Fee)
		assert.False(t, res.Resolved)
		assert.Equal(t, TierNone, res.Tier)
	}
}

func TestResolveShippingFee_NilTableUsesDefault(t *testing.T) {
	res, err := ResolveShippingFee("79", "26734", nil, 18000)
	require.NoError(t, err)
	assert.Equal(t, int64(18000), res.Fee)
	assert.True(t, res.DefaultApplied)
}

func TestResolveShippingFee_RejectsNonPositiveDefault(t *testing.T) {
	_, err := ResolveShippingFee("79", "26734", nil, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestNewFeeTable_Invariants(t *testing.T) {
	_, err := NewFeeTable([]ShippingFeeEntry{{ProvinceCode: "79", Fee: 1}, {ProvinceCode: "79", WardCode: strPtr(""), Fee: 2}})
	assert.ErrorContains(t, err, "more than one fallback")

	_, err = NewFeeTable([]ShippingFeeEntry{
		{ProvinceCode: "79", WardCode: strPtr("1"), Fee: 1},
		{ProvinceCode: "79", WardCode: strPtr(" 1 "), Fee: 2},
	})
	assert.ErrorContains(t, err, "duplicate entry")

	_, err = NewFeeTable([]ShippingFeeEntry{{ProvinceCode: "79", Fee: -1}})
	assert.ErrorContains(t, err, "negative fee")

	_, err = NewFeeTable([]ShippingFeeEntry{{Fee: 1}})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestFeeTable_EntriesIsCopy(t *testing.T) {
	table := hcmTable(t)
	entries := table.Entries()
	entries[0].Fee = 1
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, int64(20000), table.Entries()[0].Fee)
	assert.Equal(t, 0, (*FeeTable)(nil).Len())
}

// ============================================================================
// Address & checkout state
// ============================================================================

func TestAddress_Missing(t *testing.T) {
	a := &Address{HouseNumber: "12 Lê Lợi", ProvinceCode: "79", WardCode: " "}
	assert.Equal(t, []string{"wardCode"}, a.Missing())
	assert.False(t, a.Complete())

	a.WardCode = "26734"
	assert.True(t, a.Complete())

	var none *Address
	assert.Len(t, none.Missing(), 3)
}

func TestCheckoutState_CloneIsDeep(t *testing.T) {
	s := &CheckoutState{
		Address:  &Address{HouseNumber: "1"},
		Discount: &DiscountCode{Code: "SALE10"},
		Shipping: &FeeResolution{Fee: 20000},
	}
	c := s.Clone()
	s.Address.HouseNumber = "2"
	s.Discount.Code = "X"
	s.Shipping.Fee = 1

	assert.Equal(t, "1", c.Address.HouseNumber)
	assert.Equal(t, "SALE10", c.Discount.Code)
	assert.Equal(t, int64(20000), c.Shipping.Fee)
}

func TestErrors_WrapSentinels(t *testing.T) {
	assert.ErrorIs(t, ErrAddressIncomplete, apperrors.ErrInvalidInput)
	assert.ErrorIs(t, ErrVersionConflict, apperrors.ErrConflict)
	assert.ErrorIs(t, ErrStaleResult, apperrors.ErrGone)
}
