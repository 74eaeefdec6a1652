package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is stamped on every envelope. Payloads only ever gain fields,
// so consumers can decode any version they know.
const SchemaVersion = 1

// Event represents the standard event envelope for all Kafka messages.
//
// AggregateID doubles as the message key: every storefront event of one
// session lands on the same partition. AggregateVersion, when set, is the
// version of the snapshot the event describes, so a consumer can drop an
// older cart snapshot that arrives after a newer one.
type Event struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	AggregateID      string          `json:"aggregate_id"`
	AggregateType    string          `json:"aggregate_type"`
	AggregateVersion int64           `json:"aggregate_version,omitempty"`
	Version          int             `json:"version"`
	Timestamp        time.Time       `json:"timestamp"`
	Source           string          `json:"source"`
	CorrelationID    string          `json:"correlation_id,omitempty"`
	Data             json.RawMessage `json:"data"`
}

// NewEvent creates a new event with a generated ID and current timestamp.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       SchemaVersion,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          raw,
	}, nil
}

// WithCorrelationID sets the correlation ID on the event.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// WithAggregateVersion records the version of the snapshot in Data.
func (e *Event) WithAggregateVersion(v int64) *Event {
	e.AggregateVersion = v
	return e
}

// Validate reports an envelope that cannot be keyed or routed.
func (e *Event) Validate() error {
	switch {
	case e.EventType == "":
		return errors.New("event type is required")
	case e.AggregateID == "":
		return fmt.Errorf("%s event has no aggregate id", e.EventType)
	case e.AggregateVersion < 0:
		return fmt.Errorf("%s event has negative aggregate version %d", e.EventType, e.AggregateVersion)
	}
	return nil
}

// Marshal serializes the event to JSON bytes.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
