package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func header(msg kafka.Message, key string) string {
	return NewHeaderCarrier(&msg.Headers).Get(key)
}

func TestPublish_WritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, ProducerConfig{TopicPrefix: "dev."}, newTestLogger())

	ev, err := NewEvent("storefront.cart.changed", "sess-1", "cart", "storefront", map[string]int{"items": 2})
	require.NoError(t, err)
	ev.WithCorrelationID("req-7").WithAggregateVersion(3)

	require.NoError(t, p.Publish(context.Background(), "storefront.cart.changed", ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "dev.storefront.cart.changed", msg.Topic)
	assert.Equal(t, "sess-1", string(msg.Key))
	assert.Equal(t, "storefront.cart.changed", header(msg, "event_type"))
	assert.Equal(t, "req-7", header(msg, "correlation_id"))
	assert.Equal(t, "3", header(msg, "aggregate_version"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, SchemaVersion, decoded.Version)
	assert.Equal(t, int64(3), decoded.AggregateVersion)
	var data map[string]int
	require.NoError(t, json.Unmarshal(decoded.Data, &data))
	assert.Equal(t, 2, data["items"])
}

func TestPublish_RejectsUnkeyedEvent(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, ProducerConfig{}, newTestLogger())

	ev, err := NewEvent("storefront.cart.changed", "", "cart", "storefront", nil)
	require.NoError(t, err)
	assert.Error(t, p.Publish(context.Background(), "t", ev))

	ev, err = NewEvent("", "sess-1", "cart", "storefront", nil)
	require.NoError(t, err)
	assert.Error(t, p.Publish(context.Background(), "t", ev))
	assert.Empty(t, w.msgs)
}

func TestPublish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	p := NewProducerWithWriter(w, ProducerConfig{}, newTestLogger())
	ev, _ := NewEvent("storefront.checkout.draft_assembled", "sess-1", "checkout", "storefront", struct{}{})
	require.NoError(t, p.Publish(ctx, "drafts", ev))

	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", header(w.msgs[0], "traceparent"))
}

func TestPublish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, ProducerConfig{}, newTestLogger())
	ev, _ := NewEvent("x", "sess", "cart", "storefront", nil)

	err := p.Publish(context.Background(), "t", ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestPing_NoBrokers(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, ProducerConfig{}, newTestLogger())
	assert.Error(t, p.Ping(context.Background()))
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(w, ProducerConfig{}, newTestLogger()).Close())
	assert.True(t, w.closed)
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "a", Value: []byte("1")}}
	c := NewHeaderCarrier(&headers)

	c.Set("a", "2")
	c.Set("b", "3")
	assert.Equal(t, "2", c.Get("a"))
	assert.Equal(t, "3", c.Get("b"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
}
