package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/pushhub/component"
	"github.com/kbukum/pushhub/logger"
)

// Component runs the ingress consumers and owns the dead-letter producer.
type Component struct {
	cfg       Config
	log       *logger.Logger
	ingest    *Ingest
	producer  ProducerCloser
	consumers []ConsumerRunner
	cancelFn  context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the Kafka ingress component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{
		cfg: cfg,
		log: log.WithComponent("kafka"),
	}
}

// SetIngest attaches the ingress whose counters Health reports.
func (c *Component) SetIngest(i *Ingest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingest = i
}

// SetProducer injects a producer into the component. Must be called before Start.
func (c *Component) SetProducer(p ProducerCloser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.producer = p
}

// AddConsumer injects a consumer into the component. Must be called before Start.
func (c *Component) AddConsumer(cr ConsumerRunner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumers = append(c.consumers, cr)
}

// Name returns the component name.
func (c *Component) Name() string { return "kafka" }

// Start begins consuming in a background goroutine per consumer.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	// Detached from ctx: the registry's start context may be short-lived.
	consumeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancelFn = cancel

	for _, cr := range c.consumers {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := cr.Consume(consumeCtx); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Error("Consumer stopped with error", map[string]interface{}{
					"topic":           cr.Topic(),
					logger.FieldCode:  string(ToAppError(err).Code),
					logger.FieldError: err.Error(),
				})
			}
		}()
	}

	c.running = true
	c.log.Info("Kafka component started", map[string]interface{}{
		"consumers": len(c.consumers),
	})
	return nil
}

// Stop cancels the consume loops, waits for them, then closes the
// consumers and the producer.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	c.log.Info("Kafka component stopping")

	if c.cancelFn != nil {
		c.cancelFn()
	}
	c.wg.Wait()

	var errs []error
	for _, cr := range c.consumers {
		if err := cr.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close consumer %s: %w", cr.Topic(), err))
		}
	}
	c.consumers = nil

	if c.producer != nil {
		if err := c.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close producer: %w", err))
		}
		c.producer = nil
	}

	c.running = false
	return errors.Join(errs...)
}

// Health dials the first broker. A reachable broker whose metadata cannot
// be read is reported degraded.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.Lock()
	running := c.running
	cfg := c.cfg
	c.mu.Unlock()

	unhealthy := func(msg string) component.Health {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: msg}
	}

	if !running {
		return unhealthy("kafka not started")
	}
	if len(cfg.Brokers) == 0 {
		return unhealthy("no brokers configured")
	}

	dialer, err := NewDialer(&cfg)
	if err != nil {
		return unhealthy(fmt.Sprintf("dialer: %v", err))
	}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return unhealthy(fmt.Sprintf("broker unreachable: %v", err))
	}
	defer conn.Close()

	if _, err := conn.Brokers(); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusDegraded,
			Message: fmt.Sprintf("broker metadata: %v", err),
		}
	}

	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: c.summary(),
	}
}

// Describe returns infrastructure summary info for the startup log.
func (c *Component) Describe() component.Description {
	c.mu.Lock()
	defer c.mu.Unlock()

	details := fmt.Sprintf("brokers=%v group=%s", c.cfg.Brokers, c.cfg.GroupID)
	topics := make([]string, 0, len(c.consumers))
	for _, cr := range c.consumers {
		topics = append(topics, cr.Topic())
	}
	if len(topics) > 0 {
		details += fmt.Sprintf(" topics=%v", topics)
	}
	if c.producer != nil && c.cfg.DeadLetterTopic != "" {
		details += " dlq=" + c.cfg.DeadLetterTopic
	}
	return component.Description{
		Name:    "Kafka Ingress",
		Type:    "kafka",
		Details: details,
	}
}

func (c *Component) summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lag int64
	for _, cr := range c.consumers {
		if sr, ok := cr.(StatsReporter); ok {
			lag += CollectReaderMetrics(sr.Stats()).Lag
		}
	}
	msg := fmt.Sprintf("lag=%d", lag)
	if c.ingest != nil {
		s := c.ingest.Stats()
		msg += fmt.Sprintf(" dispatched=%d rejected=%d", s.Dispatched, s.Rejected)
	}
	return msg
}
