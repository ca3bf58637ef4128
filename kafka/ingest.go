package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/pushhub/errors"
	"github.com/kbukum/pushhub/logger"
	"github.com/kbukum/pushhub/observability"
	"github.com/kbukum/pushhub/sse"
	"github.com/kbukum/pushhub/validation"
)

// IngestStats counts what the ingress has done since start.
type IngestStats struct {
	Received     int64 `json:"received"`
	Dispatched   int64 `json:"dispatched"`
	Delivered    int64 `json:"delivered"`
	Rejected     int64 `json:"rejected"`
	DeadLettered int64 `json:"dead_lettered"`
}

// Ingest turns Kafka records into hub dispatches.
type Ingest struct {
	dispatcher      Dispatcher
	log             *logger.Logger
	deadLetter      DeadLetterWriter
	deadLetterTopic string

	received     atomic.Int64
	dispatched   atomic.Int64
	delivered    atomic.Int64
	rejected     atomic.Int64
	deadLettered atomic.Int64
}

// IngestOption configures an Ingest.
type IngestOption func(*Ingest)

// WithDeadLetter forwards rejected records to topic through w.
func WithDeadLetter(w DeadLetterWriter, topic string) IngestOption {
	return func(i *Ingest) {
		i.deadLetter = w
		i.deadLetterTopic = topic
	}
}

// NewIngest creates an ingress that dispatches through d.
func NewIngest(d Dispatcher, log *logger.Logger, opts ...IngestOption) *Ingest {
	i := &Ingest{
		dispatcher: d,
		log:        log.WithComponent("kafka.ingest"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Handle decodes, validates and dispatches one record. It satisfies
// MessageHandler. Rejected records are dead-lettered when configured and
// the rejection is returned.
func (i *Ingest) Handle(ctx context.Context, rec kafkago.Message) error {
	i.received.Add(1)

	ctx, span := observability.StartSpan(ctx, observability.SpanKafkaMessage,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", rec.Topic),
			attribute.Int("messaging.kafka.partition", rec.Partition),
			attribute.Int64("messaging.kafka.offset", rec.Offset),
		),
	)
	defer span.End()

	msg, appErr := decode(rec.Value)
	if appErr != nil {
		return i.reject(ctx, rec, appErr)
	}
	span.SetAttributes(
		attribute.String(observability.AttrTarget, string(msg.Target)),
		attribute.String(observability.AttrTargetID, msg.TargetID),
		attribute.String(observability.AttrEventType, msg.Event.Type),
	)

	n := i.dispatcher.SendMessage(msg)
	if msg.Target.RequiresID() && msg.TargetID == "" {
		return i.reject(ctx, rec, apperrors.MissingTargetID(string(msg.Target)))
	}
	span.SetAttributes(attribute.Int(observability.AttrSentCount, n))

	i.dispatched.Add(1)
	i.delivered.Add(int64(n))
	i.log.Debug("Dispatched record", map[string]interface{}{
		logger.FieldTarget:    string(msg.Target),
		logger.FieldEventType: msg.Event.Type,
		"sent":                n,
		"offset":              rec.Offset,
	})
	return nil
}

// Stats returns a snapshot of the ingress counters.
func (i *Ingest) Stats() IngestStats {
	return IngestStats{
		Received:     i.received.Load(),
		Dispatched:   i.dispatched.Load(),
		Delivered:    i.delivered.Load(),
		Rejected:     i.rejected.Load(),
		DeadLettered: i.deadLettered.Load(),
	}
}

func (i *Ingest) reject(ctx context.Context, rec kafkago.Message, appErr *apperrors.AppError) error {
	i.rejected.Add(1)
	observability.SetSpanError(ctx, appErr)

	if i.deadLetter == nil {
		return appErr
	}
	dl := kafkago.Message{
		Topic: i.deadLetterTopic,
		Key:   rec.Key,
		Value: rec.Value,
		Headers: append(append([]kafkago.Header(nil), rec.Headers...),
			kafkago.Header{Key: HeaderErrorCode, Value: []byte(appErr.Code)},
			kafkago.Header{Key: HeaderErrorMessage, Value: []byte(appErr.Message)},
			kafkago.Header{Key: HeaderSourceTopic, Value: []byte(rec.Topic)},
			kafkago.Header{Key: HeaderSourcePartition, Value: []byte(strconv.Itoa(rec.Partition))},
			kafkago.Header{Key: HeaderSourceOffset, Value: []byte(strconv.FormatInt(rec.Offset, 10))},
		),
	}
	if err := i.deadLetter.WriteMessages(ctx, dl); err != nil {
		i.log.Error("Dead-letter write failed", map[string]interface{}{
			logger.FieldError: err.Error(),
			logger.FieldCode:  string(appErr.Code),
			"offset":          rec.Offset,
		})
		return appErr
	}
	i.deadLettered.Add(1)
	return appErr
}

func decode(value []byte) (sse.Message, *apperrors.AppError) {
	var msg sse.Message
	if err := json.Unmarshal(value, &msg); err != nil {
		return msg, apperrors.InvalidInput("value", err.Error())
	}
	if err := validation.ValidateMessage(&msg); err != nil {
		appErr, ok := apperrors.AsAppError(err)
		if !ok {
			appErr = apperrors.Validation(err.Error())
		}
		return msg, appErr
	}
	return msg, nil
}
