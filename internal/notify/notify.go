package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/k1networth/support-tickets/internal/shared/events"
)

// ErrSkipped marks events this service does not act on.
var ErrSkipped = errors.New("event skipped")

// Confirmation is the message sent to the customer once a ticket exists.
type Confirmation struct {
	EventID   string
	TicketID  string
	To        string
	Subject   string
	Body      string
	RequestID string
}

type Sink interface {
	Deliver(ctx context.Context, c Confirmation) error
}

// LogSink writes confirmations to the structured log instead of a mail relay.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Deliver(_ context.Context, c Confirmation) error {
	s.Log.Info("notify_confirmation",
		slog.String("event_id", c.EventID),
		slog.String("ticket_id", c.TicketID),
		slog.String("to", c.To),
		slog.String("subject", c.Subject),
		slog.String("body", c.Body),
		slog.String("request_id", c.RequestID),
	)
	return nil
}

type ticketCreated struct {
	TicketID string `json:"ticketId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Issue    string `json:"issue"`
}

// BuildConfirmation turns a ticket.created envelope into a customer message.
func BuildConfirmation(env events.Envelope) (Confirmation, error) {
	if env.EventType != events.TicketCreated {
		return Confirmation{}, fmt.Errorf("%w: %s", ErrSkipped, env.EventType)
	}

	var p ticketCreated
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return Confirmation{}, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	if p.TicketID == "" || p.Email == "" {
		return Confirmation{}, fmt.Errorf("decode %s payload: missing ticketId or email", env.EventType)
	}

	return Confirmation{
		EventID:   env.EventID,
		TicketID:  p.TicketID,
		To:        p.Email,
		Subject:   fmt.Sprintf("[%s] We received your request", p.TicketID),
		Body:      fmt.Sprintf("Hi %s, your ticket %s has been created. Issue: %s", p.Name, p.TicketID, p.Issue),
		RequestID: env.RequestID,
	}, nil
}
