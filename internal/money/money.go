// Package money turns loosely typed monetary input into int64 đồng before it
// reaches any pricing arithmetic.
package money

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// MaxAmount bounds any single parsed amount (one trillion đồng).
const MaxAmount int64 = 1_000_000_000_000

var (
	currencyAffix  = strings.NewReplacer("₫", "", "đ", "", "Đ", "", "VND", "", "vnd", "", " ", "", "\u00a0", "", "_", "")
	dotThousands   = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)
	commaThousands = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// ErrInvalidAmount is wrapped by every parse failure.
var ErrInvalidAmount = fmt.Errorf("invalid amount: %w", apperrors.ErrInvalidInput)

// Parse reads a non-negative whole-đồng amount. It accepts plain digits,
// comma-grouped ("1,000,000"), dot-grouped as written in Vietnam
// ("1.000.000"), currency marks ("150.000₫", "150000 VND") and decimals
// whose fraction is zero ("150000.00").
func Parse(s string) (int64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	return toAmount(d, s)
}

// ParsePercent reads a whole percentage in [0, 100], with or without "%".
func ParsePercent(s string) (int64, error) {
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a percentage", ErrInvalidAmount, s)
	}
	if !d.IsInteger() || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return 0, fmt.Errorf("%w: percentage %q must be a whole number between 0 and 100", ErrInvalidAmount, s)
	}
	return d.IntPart(), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	raw := currencyAffix.Replace(strings.TrimSpace(s))
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	switch {
	case dotThousands.MatchString(raw):
		raw = strings.ReplaceAll(raw, ".", "")
	case commaThousands.MatchString(raw):
		raw = strings.ReplaceAll(raw, ",", "")
	case strings.Contains(raw, ","):
		return decimal.Zero, fmt.Errorf("%w: %q has misplaced separators", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

func toAmount(d decimal.Decimal, src string) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, src)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %q has a fractional đồng", ErrInvalidAmount, src)
	}
	if d.GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return 0, fmt.Errorf("%w: %q exceeds the maximum amount", ErrInvalidAmount, src)
	}
	return d.IntPart(), nil
}

// Amount is an int64 đồng value that decodes from JSON numbers or strings,
// applying Parse. Downstream services are not consistent about which they send.
type Amount int64

// Int64 returns the amount as int64.
func (a Amount) Int64() int64 { return int64(a) }

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}

	var (
		v   int64
		err error
	)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err = Parse(s)
	} else {
		var d decimal.Decimal
		if d, err = decimal.NewFromString(string(b)); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
		}
		v, err = toAmount(d, string(b))
	}
	if err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

// MarshalJSON writes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(a))
}

// Format renders an amount the way Vietnamese storefronts display it,
// e.g. 1500000 → "1.500.000₫".
func Format(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := decimal.NewFromInt(v).String()

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteString("₫")
	return b.String()
}
