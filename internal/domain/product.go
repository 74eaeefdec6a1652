package domain

// ProductVariant is a purchasable size/color of a catalog product.
type ProductVariant struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

// Product is the catalog view of a product used when adding to cart.
type Product struct {
	ID       string           `json:"id"`
	Slug     string           `json:"slug"`
	Name     string           `json:"name"`
	Price    int64            `json:"price"`
	Images   []string         `json:"images"`
	Variants []ProductVariant `json:"variants"`
}

// HasVariants reports whether the product is sold in variants.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// FindVariant returns the variant whose key matches v.
func (p *Product) FindVariant(v *Variant) (ProductVariant, bool) {
	key := VariantKey(v)
	for _, pv := range p.Variants {
		if VariantKey(&Variant{Size: pv.Size, Color: pv.Color}) == key {
			return pv, true
		}
	}
	return ProductVariant{}, false
}

// Image returns the first image, or "".
func (p *Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
