package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const TicketCreated = "ticket.created"

type Envelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Aggregate   string          `json:"aggregate"`
	AggregateID string          `json:"aggregate_id"`
	RequestID   string          `json:"request_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// New wraps payload in an envelope with a fresh event id.
func New(eventType, aggregate, aggregateID, requestID string, payload any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		OccurredAt:  at.UTC(),
		Aggregate:   aggregate,
		AggregateID: aggregateID,
		RequestID:   requestID,
		Payload:     raw,
	}, nil
}

func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventID == "" || env.EventType == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event_id or event_type")
	}
	return env, nil
}
