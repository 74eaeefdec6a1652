package domain

import "time"

// Cart limits enforced by the Cart Store.
const (
	MaxQuantityPerLine = 100
	MaxLinesPerCart    = 50
)

// CartLine is one entry in the cart.
type CartLine struct {
	ProductID string   `json:"productId"`
	Slug      string   `json:"slug,omitempty"`
	Name      string   `json:"name"`
	UnitPrice int64    `json:"unitPrice"`
	Image     string   `json:"image,omitempty"`
	Variant   *Variant `json:"variant,omitempty"`
	Quantity  int      `json:"quantity"`
}

// Identity returns the line's identity key.
func (l *CartLine) Identity() string {
	return LineIdentity(l.ProductID, l.Variant)
}

// LineTotal returns UnitPrice × Quantity.
func (l *CartLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart is the persisted cart snapshot. Version increases by one on every
// committed write and is used for compare-and-swap in the persistence layer.
type Cart struct {
	SessionID string     `json:"sessionId"`
	Lines     []CartLine `json:"lines"`
	Version   int64      `json:"version"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Subtotal returns Σ unitPrice × quantity over lines; 0 for no lines.
func Subtotal(lines []CartLine) int64 {
	var total int64
	for i := range lines {
		total += lines[i].LineTotal()
	}
	return total
}

// ItemCount returns the total quantity over lines.
func ItemCount(lines []CartLine) int {
	var n int
	for i := range lines {
		n += lines[i].Quantity
	}
	return n
}

// FindLine returns the index of the line with the given identity, or -1.
func FindLine(lines []CartLine, productID string, v *Variant) int {
	id := LineIdentity(productID, v)
	for i := range lines {
		if lines[i].Identity() == id {
			return i
		}
	}
	return -1
}

// CloneLines deep-copies lines, including variants. A nil input returns an
// empty, non-nil slice.
func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		l.Variant = l.Variant.Clone()
		out[i] = l
	}
	return out
}

// DuplicateIdentities returns identities that occur more than once. It is
// empty for every cart the store builds.
func DuplicateIdentities(lines []CartLine) []string {
	seen := make(map[string]int, len(lines))
	var dups []string
	for i := range lines {
		id := lines[i].Identity()
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}

// MergeDuplicates folds lines sharing an identity into the first occurrence,
// summing quantities up to MaxQuantityPerLine. Order of first occurrences is kept.
func MergeDuplicates(lines []CartLine) []CartLine {
	out := make([]CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		id := l.Identity()
		if i, ok := index[id]; ok {
			out[i].Quantity = min(out[i].Quantity+l.Quantity, MaxQuantityPerLine)
			continue
		}
		index[id] = len(out)
		l.Variant = l.Variant.Clone()
		out = append(out, l)
	}
	return out
}
