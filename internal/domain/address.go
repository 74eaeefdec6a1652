package domain

import "strings"

// Address is the delivery address collected at checkout.
type Address struct {
	HouseNumber  string `json:"houseNumber"`
	ProvinceCode string `json:"provinceCode"`
	ProvinceName string `json:"provinceName,omitempty"`
	WardCode     string `json:"wardCode"`
	WardName     string `json:"wardName,omitempty"`
}

// Missing lists the required fields that are blank.
func (a *Address) Missing() []string {
	if a == nil {
		return []string{"houseNumber", "provinceCode", "wardCode"}
	}
	var missing []string
	if strings.TrimSpace(a.HouseNumber) == "" {
		missing = append(missing, "houseNumber")
	}
	if strings.TrimSpace(a.ProvinceCode) == "" {
		missing = append(missing, "provinceCode")
	}
	if strings.TrimSpace(a.WardCode) == "" {
		missing = append(missing, "wardCode")
	}
	return missing
}

// Complete reports whether houseNumber, provinceCode and wardCode are set.
func (a *Address) Complete() bool {
	return len(a.Missing()) == 0
}

// Clone returns a copy of a, or nil.
func (a *Address) Clone() *Address {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
