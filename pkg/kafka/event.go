package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicPrefix namespaces every topic the storefront publishes to.
const TopicPrefix = "storefront"

// Topic builds a topic name of the form storefront.<domain>.<action>.
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}

// SchemaVersion is the envelope version written by NewEvent. Decode refuses
// envelopes from a newer schema.
const SchemaVersion = 1

// ErrMalformedEvent is returned by Decode for envelopes missing required fields.
var ErrMalformedEvent = errors.New("kafka: malformed event")

// Event is the envelope wrapped around every published payload.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Locale        string          `json:"locale,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent wraps data in a fresh envelope.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
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

// WithLocale records the shopper's locale so consumers can render
// notifications in the same language.
func (e *Event) WithLocale(locale string) *Event {
	e.Locale = locale
	return e
}

// Marshal serializes the envelope.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an envelope and checks it carries an ID, a type and a
// supported schema version.
func Decode(b []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch {
	case e.EventID == "":
		return nil, fmt.Errorf("%w: missing event_id", ErrMalformedEvent)
	case e.EventType == "":
		return nil, fmt.Errorf("%w: missing event_type", ErrMalformedEvent)
	case e.Version < 1 || e.Version > SchemaVersion:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedEvent, e.Version)
	}
	return &e, nil
}

// UnmarshalData decodes the payload into target.
func (e *Event) UnmarshalData(target any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: empty data", ErrMalformedEvent)
	}
	return json.Unmarshal(e.Data, target)
}
