package consumer

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/pushhub/kafka"
)

// Runner binds a Consumer to its handler so it satisfies kafka.ConsumerRunner.
type Runner struct {
	consumer *Consumer
	handler  kafka.MessageHandler
}

var (
	_ kafka.ConsumerRunner = (*Runner)(nil)
	_ kafka.StatsReporter  = (*Runner)(nil)
)

// AsRunner wraps c and h for kafka.Component.AddConsumer.
func AsRunner(c *Consumer, h kafka.MessageHandler) *Runner {
	return &Runner{consumer: c, handler: h}
}

func (r *Runner) Consume(ctx context.Context) error {
	return r.consumer.Consume(ctx, r.handler)
}

func (r *Runner) Close() error {
	return r.consumer.Close()
}

func (r *Runner) Topic() string {
	return r.consumer.Topic()
}

func (r *Runner) Stats() kafkago.ReaderStats {
	return r.consumer.Stats()
}
