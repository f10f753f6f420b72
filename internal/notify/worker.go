package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/k1networth/support-tickets/internal/shared/events"
)

// Source is satisfied by *kafkax.Consumer.
type Source interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Worker struct {
	Log          *slog.Logger
	Source       Source
	Sink         Sink
	Metrics      *Metrics
	FetchBackoff time.Duration
}

// Run consumes until ctx is cancelled. Offsets are committed after delivery,
// and also for skipped or undecodable messages so they do not block the
// partition. A failed delivery is logged and not committed; a later commit
// on the same partition moves past it.
func (w *Worker) Run(ctx context.Context) error {
	backoff := w.FetchBackoff
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}

	for {
		msg, err := w.Source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.Log.Error("kafka_fetch_failed", slog.String("err", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}

		evType, status, err := w.Handle(ctx, msg.Value)
		w.observe(evType, status)
		if err != nil {
			w.Log.Error("message_handle_failed",
				slog.String("event_type", evType),
				slog.Int64("offset", msg.Offset),
				slog.String("err", err.Error()),
			)
			if status == statusError {
				continue
			}
		}

		if err := w.Source.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.Log.Error("kafka_commit_failed", slog.String("err", err.Error()))
		}
	}
}

const (
	statusOK        = "ok"
	statusSkipped   = "skipped"
	statusMalformed = "malformed"
	statusError     = "error"
)

// Handle processes one message value and reports its event type and outcome.
func (w *Worker) Handle(ctx context.Context, value []byte) (string, string, error) {
	env, err := events.Decode(value)
	if err != nil {
		return "unknown", statusMalformed, err
	}

	c, err := BuildConfirmation(env)
	if errors.Is(err, ErrSkipped) {
		w.Log.Debug("event_skip", slog.String("event_id", env.EventID), slog.String("event_type", env.EventType))
		return env.EventType, statusSkipped, nil
	}
	if err != nil {
		return env.EventType, statusMalformed, err
	}

	if err := w.Sink.Deliver(ctx, c); err != nil {
		return env.EventType, statusError, err
	}
	return env.EventType, statusOK, nil
}

func (w *Worker) observe(evType, status string) {
	if w.Metrics != nil {
		w.Metrics.ProcessedTotal.WithLabelValues(evType, status).Inc()
	}
}
