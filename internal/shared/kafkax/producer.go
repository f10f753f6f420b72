package kafkax

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	defaultWriteTimeout = 5 * time.Second
	minResetInterval    = 2 * time.Second
)

var ErrProducerClosed = errors.New("kafka producer closed")

// Producer writes keyed messages to a single topic and recreates its writer
// once on network or metadata failures.
type Producer struct {
	mu        sync.Mutex
	w         *kafka.Writer
	cfg       ProducerConfig
	lastReset time.Time
}

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	WriteTimeout time.Duration
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &Producer{cfg: cfg, w: newWriter(cfg)}
}

func newWriter(cfg ProducerConfig) *kafka.Writer {
	// Short metadata TTL so the writer follows broker address changes
	// without a restart.
	tr := &kafka.Transport{
		ClientID:    cfg.ClientID,
		MetadataTTL: 10 * time.Second,
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: false,
		Transport:              tr,
	}
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.w == nil {
		return nil
	}
	err := p.w.Close()
	p.w = nil
	return err
}

// Produce writes one message. timeout <= 0 uses the configured write timeout.
func (p *Producer) Produce(ctx context.Context, key []byte, value []byte, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.cfg.WriteTimeout
	}

	write := func() error {
		p.mu.Lock()
		w := p.w
		p.mu.Unlock()
		if w == nil {
			return ErrProducerClosed
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return w.WriteMessages(cctx, kafka.Message{Key: key, Value: value})
	}

	err := write()
	if err == nil || ctx.Err() != nil || !shouldReset(err) {
		return err
	}
	if p.reset() {
		return write()
	}
	return err
}

func shouldReset(err error) bool {
	if err == nil || errors.Is(err, ErrProducerClosed) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// kafka.Error also satisfies net.Error, so it is matched first.
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		switch kerr {
		case kafka.NotLeaderForPartition, kafka.LeaderNotAvailable, kafka.BrokerNotAvailable, kafka.UnknownTopicOrPartition:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	s := strings.ToLower(err.Error())
	for _, sub := range []string{"connection refused", "broken pipe", "transport is closing", "unknown broker", "failed to dial"} {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// reset reports whether the writer was recreated.
func (p *Producer) reset() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.w == nil || time.Since(p.lastReset) < minResetInterval {
		return false
	}
	_ = p.w.Close()
	p.w = newWriter(p.cfg)
	p.lastReset = time.Now()
	return true
}
