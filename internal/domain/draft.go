package domain

import "time"

// OrderDraft is the immutable result of checkout assembly, handed to order
// placement. It owns its Lines; nothing else holds a reference to them.
type OrderDraft struct {
	ID              string        `json:"id"`
	SessionID       string        `json:"sessionId,omitempty"`
	Lines           []CartLine    `json:"lines"`
	Subtotal        int64         `json:"subtotal"`
	DiscountAmount  int64         `json:"discountAmount"`
	DeliveryFee     int64         `json:"deliveryFee"`
	Total           int64         `json:"total"`
	Address         Address       `json:"address"`
	AppliedDiscount *DiscountCode `json:"appliedDiscount"`
	ShippingTier    FeeTier       `json:"shippingTier"`
	Warnings        []string      `json:"warnings,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// CheckoutState is the persisted checkout slot: what the shopper has chosen
// so far, carried between the cart and the draft.
type CheckoutState struct {
	SessionID string         `json:"sessionId"`
	Address   *Address       `json:"address,omitempty"`
	Discount  *DiscountCode  `json:"discount,omitempty"`
	Shipping  *FeeResolution `json:"shipping,omitempty"`
	Version   int64          `json:"version"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Clone deep-copies s.
func (s *CheckoutState) Clone() *CheckoutState {
	if s == nil {
		return nil
	}
	c := *s
	c.Address = s.Address.Clone()
	c.Discount = s.Discount.Clone()
	if s.Shipping != nil {
		fr := *s.Shipping
		c.Shipping = &fr
	}
	return &c
}
