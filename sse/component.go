package sse

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/pushhub/component"
)

// degradedLoad is the fraction of MaxConnections above which the hub
// reports itself degraded.
const degradedLoad = 0.9

// Component runs a Hub's heartbeat sweep as a lifecycle-managed component.
type Component struct {
	hub     *Hub
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	path    string
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps hub. path is the stream endpoint, used for display.
func NewComponent(hub *Hub, path string) *Component {
	return &Component{hub: hub, path: path}
}

// Hub returns the wrapped hub.
func (c *Component) Hub() *Hub { return c.hub }

func (c *Component) Name() string { return "sse" }

// Start launches the heartbeat sweep.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	c.started = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.hub.Run()
	}()
	return nil
}

// Stop destroys the hub, disconnecting every client, and waits for the
// sweep to return.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hub.Destroy()
	c.wg.Wait()
	return nil
}

// Health reports degraded once the hub is above 90% of its capacity.
func (c *Component) Health(_ context.Context) component.Health {
	count := c.hub.ClientCount()
	limit := c.hub.cfg.MaxConnections
	status := component.StatusHealthy

	c.hub.mu.RLock()
	destroyed := c.hub.destroyed
	c.hub.mu.RUnlock()

	switch {
	case destroyed:
		status = component.StatusUnhealthy
	case float64(count) > degradedLoad*float64(limit):
		status = component.StatusDegraded
	}
	return component.Health{
		Name:    c.Name(),
		Status:  status,
		Message: fmt.Sprintf("%d/%d clients connected", count, limit),
	}
}

func (c *Component) Describe() component.Description {
	cfg := c.hub.cfg
	return component.Description{
		Name: "SSE Hub",
		Type: "sse",
		Details: fmt.Sprintf("path=%s max=%d heartbeat=%s timeout=%s",
			c.path, cfg.MaxConnections, cfg.HeartbeatInterval, cfg.ConnectionTimeout),
	}
}
