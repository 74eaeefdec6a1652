package domain

import (
	"fmt"
	"strings"

	"github.com/utafrali/EcommerceGo/storefront/internal/money"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// DefaultShippingFee is charged when neither a ward nor a province entry
// matches the address.
const DefaultShippingFee int64 = 15000

// ShippingFeeEntry is one row of the shipping-fee table. A nil WardCode marks
// the province-level fallback fee.
type ShippingFeeEntry struct {
	ProvinceCode string  `json:"provinceCode" yaml:"provinceCode"`
	ProvinceName string  `json:"provinceName" yaml:"provinceName"`
	WardCode     *string `json:"wardCode" yaml:"wardCode"`
	WardName     string  `json:"wardName" yaml:"wardName"`
	Fee          int64   `json:"fee" yaml:"fee"`
}

// FeeTier tells which lookup tier produced a fee.
type FeeTier string

const (
	TierNone     FeeTier = "none"
	TierWard     FeeTier = "ward"
	TierProvince FeeTier = "province"
	TierDefault  FeeTier = "default"
)

// FeeResolution is the outcome of resolving a shipping fee.
//
// Resolved is false only for an incomplete address (Fee is then 0).
// DefaultApplied is the warning flag for the default tier.
type FeeResolution struct {
	Fee            int64   `json:"fee"`
	Tier           FeeTier `json:"tier"`
	Resolved       bool    `json:"resolved"`
	UsedFallback   bool    `json:"usedFallback"`
	DefaultApplied bool    `json:"defaultApplied"`
	ProvinceName   string  `json:"provinceName,omitempty"`
	WardName       string  `json:"wardName,omitempty"`
}

// Warning returns a user-facing warning for the resolution, or "".
func (r FeeResolution) Warning() string {
	if r.DefaultApplied {
		return fmt.Sprintf("shipping fee not found for this address, default fee %s applied", money.Format(r.Fee))
	}
	return ""
}

type wardKey struct{ province, ward string }

// FeeTable is an indexed, read-only shipping-fee table.
type FeeTable struct {
	entries   []ShippingFeeEntry
	wards     map[wardKey]ShippingFeeEntry
	provinces map[string]ShippingFeeEntry
}

// NewFeeTable indexes entries. It rejects negative fees, entries without a
// province, more than one fallback per province and duplicate
// (province, ward) pairs.
func NewFeeTable(entries []ShippingFeeEntry) (*FeeTable, error) {
	t := &FeeTable{
		entries:   make([]ShippingFeeEntry, 0, len(entries)),
		wards:     make(map[wardKey]ShippingFeeEntry, len(entries)),
		provinces: make(map[string]ShippingFeeEntry),
	}

	for i, e := range entries {
		e.ProvinceCode = strings.TrimSpace(e.ProvinceCode)
		if e.ProvinceCode == "" {
			return nil, tableError("entry %d has no provinceCode", i)
		}
		if e.Fee < 0 {
			return nil, tableError("entry %d (%s) has negative fee %d", i, e.ProvinceCode, e.Fee)
		}

		if e.WardCode == nil || strings.TrimSpace(*e.WardCode) == "" {
			e.WardCode = nil
			if _, dup := t.provinces[e.ProvinceCode]; dup {
				return nil, tableError("province %s has more than one fallback entry", e.ProvinceCode)
			}
			t.provinces[e.ProvinceCode] = e
		} else {
			ward := strings.TrimSpace(*e.WardCode)
			e.WardCode = &ward
			k := wardKey{e.ProvinceCode, ward}
			if _, dup := t.wards[k]; dup {
				return nil, tableError("duplicate entry for province %s ward %s", e.ProvinceCode, ward)
			}
			t.wards[k] = e
		}
		t.entries = append(t.entries, e)
	}
	return t, nil
}

func tableError(format string, args ...any) error {
	return fmt.Errorf("shipping fee table: "+format+": %w", append(args, apperrors.ErrInvalidInput)...)
}

// Len returns the number of entries.
func (t *FeeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the table rows.
func (t *FeeTable) Entries() []ShippingFeeEntry {
	if t == nil {
		return nil
	}
	out := make([]ShippingFeeEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// ResolveShippingFee resolves the fee for (provinceCode, wardCode) against
// table in three tiers: exact ward, province fallback, then defaultFee with
// DefaultApplied set. An empty code yields an unresolved zero fee. It does no
// I/O; the only error is a negative or zero defaultFee, which would let the
// default tier charge nothing.
func ResolveShippingFee(provinceCode, wardCode string, table *FeeTable, defaultFee int64) (FeeResolution, error) {
	if defaultFee <= 0 {
		return FeeResolution{}, fmt.Errorf("default shipping fee must be positive, got %d: %w", defaultFee, apperrors.ErrInvalidInput)
	}

	province := strings.TrimSpace(provinceCode)
	ward := strings.TrimSpace(wardCode)
	if province == "" || ward == "" {
		return FeeResolution{Fee: 0, Tier: TierNone}, nil
	}

	if table != nil {
		if e, ok := table.wards[wardKey{province, ward}]; ok {
			return FeeResolution{
				Fee: e.Fee, Tier: TierWard, Resolved: true,
				ProvinceName: e.ProvinceName, WardName: e.WardName,
			}, nil
		}
		if e, ok := table.provinces[province]; ok {
			return FeeResolution{
				Fee: e.Fee, Tier: TierProvince, Resolved: true, UsedFallback: true,
				ProvinceName: e.ProvinceName,
			}, nil
		}
	}

	return FeeResolution{
		Fee: defaultFee, Tier: TierDefault, Resolved: true, DefaultApplied: true,
	}, nil
}
