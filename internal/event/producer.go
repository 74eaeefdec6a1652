package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	pkgkafka "github.com/utafrali/EcommerceGo/storefront/pkg/kafka"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// Kafka topics for storefront events.
const (
	TopicCartChanged    = "storefront.cart.changed"
	TopicDraftAssembled = "storefront.checkout.draft_assembled"
)

// Aggregate types and event source.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeDraft = "order_draft"
	SourceStorefront   = "storefront"
)

// CartChangedData is the payload of a cart.changed event.
type CartChangedData struct {
	SessionID string            `json:"session_id"`
	Version   int64             `json:"version"`
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Subtotal  int64             `json:"subtotal"`
}

// DraftAssembledData is the payload of a checkout.draft_assembled event.
type DraftAssembledData struct {
	DraftID        string         `json:"draft_id"`
	SessionID      string         `json:"session_id"`
	Subtotal       int64          `json:"subtotal"`
	DiscountAmount int64          `json:"discount_amount"`
	DiscountCode   string         `json:"discount_code,omitempty"`
	DeliveryFee    int64          `json:"delivery_fee"`
	Total          int64          `json:"total"`
	ShippingTier   domain.FeeTier `json:"shipping_tier"`
	ProvinceCode   string         `json:"province_code"`
	WardCode       string         `json:"ward_code"`
	LineCount      int            `json:"line_count"`
}

// Publisher is the transport the producer writes to. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, e *pkgkafka.Event) error
}

// Producer publishes storefront domain events. A nil publisher makes every
// publish a no-op, for deployments without Kafka.
type Producer struct {
	pub    Publisher
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(pub Publisher, logger *slog.Logger) *Producer {
	return &Producer{pub: pub, logger: logger}
}

// Enabled reports whether events go anywhere.
func (p *Producer) Enabled() bool { return p.pub != nil }

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, version int64, data any) error {
	if p.pub == nil {
		return nil
	}

	evt, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	evt.WithAggregateVersion(version)
	return p.pub.Publish(ctx, topic, evt)
}

// PublishCartChanged publishes the committed cart snapshot.
func (p *Producer) PublishCartChanged(ctx context.Context, c *domain.Cart) error {
	return p.publish(ctx, TopicCartChanged, "cart.changed", c.SessionID, AggregateTypeCart, c.Version, CartChangedData{
		SessionID: c.SessionID,
		Version:   c.Version,
		Lines:     c.Lines,
		ItemCount: domain.ItemCount(c.Lines),
		Subtotal:  domain.Subtotal(c.Lines),
	})
}

// PublishDraftAssembled publishes a summary of a new order draft.
func (p *Producer) PublishDraftAssembled(ctx context.Context, d *domain.OrderDraft) error {
	data := DraftAssembledData{
		DraftID:        d.ID,
		SessionID:      d.SessionID,
		Subtotal:       d.Subtotal,
		DiscountAmount: d.DiscountAmount,
		DeliveryFee:    d.DeliveryFee,
		Total:          d.Total,
		ShippingTier:   d.ShippingTier,
		ProvinceCode:   d.Address.ProvinceCode,
		WardCode:       d.Address.WardCode,
		LineCount:      len(d.Lines),
	}
	if d.AppliedDiscount != nil {
		data.DiscountCode = d.AppliedDiscount.Code
	}
	return p.publish(ctx, TopicDraftAssembled, "checkout.draft_assembled", d.SessionID, AggregateTypeDraft, 0, data)
}

// OnCartChanged publishes a cart.changed event and logs failures. It matches
// cart.Observer.
func (p *Producer) OnCartChanged(ctx context.Context, c *domain.Cart) {
	if err := p.PublishCartChanged(ctx, c); err != nil {
		logger.WithContext(ctx, p.logger).ErrorContext(ctx, "failed to publish cart.changed event",
			slog.String("session_id", c.SessionID),
			slog.Int64("version", c.Version),
			slog.String("error", err.Error()),
		)
	}
}
