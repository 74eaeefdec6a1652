package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

func TestParse_Accepted(t *testing.T) {
	tests := map[string]int64{
		"150000":       150000,
		"1,000,000":    1000000,
		"1.000.000":    1000000,
		"150.000₫":     150000,
		"150000 VND":   150000,
		"  99000đ ":    99000,
		"150000.00":    150000,
		"1,250,000.0":  1250000,
		"0":            0,
		"1_000":        1000,
		"2\u00a0000":   2000,
		"300":          300,
		"1.5e3":        1500,
		"12.000.000 ₫": 12000000,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := Parse(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParse_Rejected(t *testing.T) {
	for _, in := range []string{"", "abc", "-5000", "1500.5", "1,00,000", "12,5", "1000000000001", "₫"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestParsePercent(t *testing.T) {
	for in, want := range map[string]int64{"10": 10, "10%": 10, " 50 % ": 50, "100.0": 100, "0": 0} {
		got, err := ParsePercent(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"101", "-1", "12.5", "ten"} {
		_, err := ParsePercent(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	var out struct {
		Price Amount `json:"price"`
		Max   Amount `json:"max"`
		Min   Amount `json:"min"`
		Nil   Amount `json:"nil"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price":150000,"max":"300,000","min":200000.00,"nil":null}`), &out))
	assert.Equal(t, int64(150000), out.Price.Int64())
	assert.Equal(t, int64(300000), out.Max.Int64())
	assert.Equal(t, int64(200000), out.Min.Int64())
	assert.Equal(t, int64(0), out.Nil.Int64())

	var bad struct {
		Price Amount `json:"price"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"price":-1}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"price":"12.5"}`), &bad))
}

func TestAmount_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Fee Amount `json:"fee"`
	}{Fee: 15000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"fee":15000}`, string(b))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0₫", Format(0))
	assert.Equal(t, "15.000₫", Format(15000))
	assert.Equal(t, "1.500.000₫", Format(1500000))
	assert.Equal(t, "-300₫", Format(-300))
}
