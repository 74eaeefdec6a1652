package domain

import "strings"

// DiscountType selects how a code's value is interpreted.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercent || t == DiscountFixed
}

// DiscountCode is a read-only snapshot of a code fetched from the discount
// service. For percent codes Value is a whole percentage (0-100).
type DiscountCode struct {
	Code          string       `json:"code"`
	Type          DiscountType `json:"type"`
	Value         int64        `json:"value"`
	MaxDiscount   int64        `json:"maxDiscount"`
	MinOrderValue int64        `json:"minOrderValue"`
	IsActive      bool         `json:"isActive"`
}

// CanonicalCode trims and upper-cases a user-entered code.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ComputeDiscount returns the amount d takes off subtotal, ignoring activity
// and minimum-order checks: percent codes take subtotal×value/100, fixed codes
// take value; the result is capped at MaxDiscount and then at subtotal, and is
// never negative.
func ComputeDiscount(d *DiscountCode, subtotal int64) int64 {
	if d == nil || subtotal <= 0 {
		return 0
	}

	var raw int64
	switch d.Type {
	case DiscountPercent:
		pct := min(max(d.Value, 0), 100)
		raw = subtotal * pct / 100
	case DiscountFixed:
		raw = d.Value
	}

	amount := min(raw, max(d.MaxDiscount, 0))
	return max(min(amount, subtotal), 0)
}

// Clone returns a copy of d, or nil.
func (d *DiscountCode) Clone() *DiscountCode {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
