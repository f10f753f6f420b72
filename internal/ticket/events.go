package ticket

//go:generate mockgen -source=events.go -destination=mocks/mock_publisher.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/k1networth/support-tickets/internal/shared/events"
	"github.com/k1networth/support-tickets/internal/shared/requestid"
)

const aggregate = "ticket"

// Publisher announces created tickets to downstream consumers.
type Publisher interface {
	PublishCreated(ctx context.Context, t Ticket) error
}

type NopPublisher struct{}

func (NopPublisher) PublishCreated(context.Context, Ticket) error { return nil }

// Producer is satisfied by *kafkax.Producer.
type Producer interface {
	Produce(ctx context.Context, key []byte, value []byte, timeout time.Duration) error
}

type KafkaPublisher struct {
	producer Producer
	timeout  time.Duration
}

func NewKafkaPublisher(p Producer, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{producer: p, timeout: timeout}
}

func (p *KafkaPublisher) PublishCreated(ctx context.Context, t Ticket) error {
	env, err := events.New(events.TicketCreated, aggregate, t.ID, requestid.Get(ctx), t, t.CreatedAt)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := p.producer.Produce(ctx, []byte(t.ID), value, p.timeout); err != nil {
		return fmt.Errorf("produce %s: %w", events.TicketCreated, err)
	}
	return nil
}
