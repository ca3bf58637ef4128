package kafka

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/pushhub/sse"
)

// MessageHandler processes one record. A non-nil error is logged by the
// consumer, which then moves on to the next record.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// Dispatcher delivers a decoded message. *sse.Hub satisfies it.
type Dispatcher interface {
	SendMessage(msg sse.Message) int
}

// DeadLetterWriter publishes rejected records.
type DeadLetterWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ProducerCloser is satisfied by any producer that can be closed.
type ProducerCloser interface {
	Close() error
}

// ConsumerRunner is satisfied by any consumer that can run a consume loop.
type ConsumerRunner interface {
	Consume(ctx context.Context) error
	Close() error
	Topic() string
}

// Header keys attached to dead-lettered records.
const (
	HeaderErrorCode       = "x-error-code"
	HeaderErrorMessage    = "x-error-message"
	HeaderSourceTopic     = "x-source-topic"
	HeaderSourcePartition = "x-source-partition"
	HeaderSourceOffset    = "x-source-offset"
)
