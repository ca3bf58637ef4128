package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/pushhub/kafka"
	"github.com/kbukum/pushhub/logger"
)

// Reader is the subset of *kafkago.Reader the consume loop needs.
type Reader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Stats() kafkago.ReaderStats
	Close() error
}

// Consumer reads one topic in a loop, backing off after failed reads.
type Consumer struct {
	reader     Reader
	topic      string
	groupID    string
	log        *logger.Logger
	clock      clockwork.Clock
	maxBackoff time.Duration
	failures   int
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithClock replaces the clock used for backoff sleeps.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Consumer) { c.clock = clock }
}

// WithReader replaces the kafka-go reader.
func WithReader(r Reader) Option {
	return func(c *Consumer) { c.reader = r }
}

// New creates a consumer for cfg.Topic in group cfg.GroupID.
func New(cfg kafka.Config, log *logger.Logger, opts ...Option) (*Consumer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka consumer config: %w", err)
	}

	c := &Consumer{
		topic:      cfg.Topic,
		groupID:    cfg.GroupID,
		log:        log.WithComponent("kafka.consumer"),
		clock:      clockwork.NewRealClock(),
		maxBackoff: kafka.ParseDuration(cfg.MaxBackoff),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reader != nil {
		return c, nil
	}

	dialer, err := kafka.NewDialer(&cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer dialer: %w", err)
	}
	c.reader = kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             cfg.Topic,
		GroupID:           cfg.GroupID,
		Dialer:            dialer,
		StartOffset:       cfg.StartOffsetValue(),
		MinBytes:          1,
		MaxBytes:          cfg.MaxBytes,
		CommitInterval:    kafka.ParseDuration(cfg.CommitInterval),
		SessionTimeout:    kafka.ParseDuration(cfg.SessionTimeout),
		HeartbeatInterval: kafka.ParseDuration(cfg.HeartbeatInterval),
		RebalanceTimeout:  kafka.ParseDuration(cfg.RebalanceTimeout),
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			c.log.Error("reader: "+fmt.Sprintf(msg, args...), map[string]interface{}{
				"topic":    cfg.Topic,
				"group_id": cfg.GroupID,
			})
		}),
	})

	c.log.Info("Kafka consumer initialized", map[string]interface{}{
		"topic":    cfg.Topic,
		"group_id": cfg.GroupID,
		"brokers":  cfg.Brokers,
	})
	return c, nil
}

// Consume reads records and hands each to handler until ctx is cancelled
// or the reader fails with a non-retryable error.
func (c *Consumer) Consume(ctx context.Context, handler kafka.MessageHandler) error {
	c.log.Info("Starting consume loop", map[string]interface{}{
		"topic":    c.topic,
		"group_id": c.groupID,
	})

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if kafka.IsNonRetryableError(err) {
				return fmt.Errorf("kafka read %s: %w", c.topic, err)
			}
			if err := c.backoff(ctx, err); err != nil {
				return err
			}
			continue
		}

		c.failures = 0
		if err := handler(ctx, msg); err != nil {
			c.log.Warn("Record rejected", map[string]interface{}{
				logger.FieldError: err.Error(),
				"topic":           msg.Topic,
				"partition":       msg.Partition,
				"offset":          msg.Offset,
			})
		}
	}
}

// backoff sleeps one second per consecutive failure, capped at maxBackoff.
// Only the first three failures of a streak are logged.
func (c *Consumer) backoff(ctx context.Context, err error) error {
	c.failures++
	if c.failures <= 3 {
		c.log.Error("Kafka read error", map[string]interface{}{
			logger.FieldError: err.Error(),
			"failures":        c.failures,
			"topic":           c.topic,
			"group_id":        c.groupID,
		})
	}

	d := time.Duration(c.failures) * time.Second
	if c.maxBackoff > 0 && d > c.maxBackoff {
		d = c.maxBackoff
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

// Topic returns the consumer's topic.
func (c *Consumer) Topic() string { return c.topic }

// GroupID returns the consumer's group id.
func (c *Consumer) GroupID() string { return c.groupID }

// Stats returns reader statistics.
func (c *Consumer) Stats() kafkago.ReaderStats { return c.reader.Stats() }

// Close shuts down the reader.
func (c *Consumer) Close() error {
	c.log.Info("Kafka consumer closing", map[string]interface{}{
		"topic":    c.topic,
		"group_id": c.groupID,
	})
	return c.reader.Close()
}
