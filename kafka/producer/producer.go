package producer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/pushhub/kafka"
	"github.com/kbukum/pushhub/logger"
)

// ErrClosed is returned by WriteMessages after Close.
var ErrClosed = errors.New("producer is closed")

// Writer is the subset of *kafkago.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes records with retries. It carries the dead letters of the
// ingress and satisfies kafka.DeadLetterWriter.
type Producer struct {
	writer  Writer
	retries int
	clock   clockwork.Clock
	log     *logger.Logger
	mu      sync.RWMutex
	closed  bool
}

var (
	_ kafka.DeadLetterWriter = (*Producer)(nil)
	_ kafka.ProducerCloser   = (*Producer)(nil)
)

// Option configures a Producer.
type Option func(*Producer)

// WithWriter replaces the kafka-go writer.
func WithWriter(w Writer) Option {
	return func(p *Producer) { p.writer = w }
}

// WithClock replaces the clock used between retries.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Producer) { p.clock = clock }
}

// New creates a producer. Records carry their own topic, so the writer is
// not bound to one.
func New(cfg kafka.Config, log *logger.Logger, opts ...Option) (*Producer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}

	p := &Producer{
		retries: cfg.Retries,
		clock:   clockwork.NewRealClock(),
		log:     log.WithComponent("kafka.producer"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.writer != nil {
		return p, nil
	}

	transport, err := kafka.NewTransport(&cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer transport: %w", err)
	}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Transport:    transport,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Compression:  kafka.ResolveCompression(cfg.Compression),
		WriteTimeout: kafka.ParseDuration(cfg.WriteTimeout),
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			p.log.Error("writer: " + fmt.Sprintf(msg, args...))
		}),
	}

	p.log.Info("Kafka producer initialized", map[string]interface{}{
		"brokers":     cfg.Brokers,
		"compression": cfg.Compression,
	})
	return p, nil
}

// WriteMessages sends msgs, retrying retryable failures with a linear
// backoff of 100ms per attempt.
func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	var lastErr error
	for attempt := 1; attempt <= p.retries; attempt++ {
		lastErr = p.writer.WriteMessages(ctx, msgs...)
		if lastErr == nil {
			return nil
		}
		if !kafka.IsRetryableError(lastErr) || attempt == p.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.clock.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("kafka write: %w", lastErr)
}

// Close shuts down the producer. Later writes fail with ErrClosed.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.log.Info("Kafka producer closing")
	return p.writer.Close()
}
