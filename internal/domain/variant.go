package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// variantSep joins size and color in a key. It cannot appear in a trimmed
// attribute typed by a shopper, so "a|b"+"c" never collides with "a"+"b|c".
const variantSep = "\x1f"

var fold = cases.Fold()

// Variant is a size/color combination of a product. A nil *Variant means
// the product has no variants.
type Variant struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

// VariantKey returns the canonical comparison key for v: both fields trimmed
// and case-folded, missing fields treated as "". It never fails, and a nil
// variant yields the same key as an empty one.
func VariantKey(v *Variant) string {
	if v == nil {
		return variantSep
	}
	return normalizeAttr(v.Size) + variantSep + normalizeAttr(v.Color)
}

// LineIdentity is the identity of a cart line: product plus variant key.
func LineIdentity(productID string, v *Variant) string {
	return productID + "\x1e" + VariantKey(v)
}

func normalizeAttr(s string) string {
	return fold.String(strings.TrimSpace(s))
}

// Clone returns a copy of v, or nil.
func (v *Variant) Clone() *Variant {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
