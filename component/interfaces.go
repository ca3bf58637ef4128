package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed part of the service: the event hub,
// the Kafka ingress, the HTTP server.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds summary information for the startup log.
type Description struct {
	// Name is the human-readable display name. If empty, Name() is used.
	Name string `json:"name"`
	// Type categorizes the component: "sse", "server", "kafka", ...
	Type string `json:"type"`
	// Details is a one-line configuration summary.
	Details string `json:"details,omitempty"`
	// Port is the primary port, 0 if not applicable.
	Port int `json:"port,omitempty"`
}

// Describable is optionally implemented by components that can report
// what they are and how they are configured.
type Describable interface {
	Describe() Description
}

// Route holds a single HTTP route.
type Route struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler,omitempty"`
}

// RouteProvider is optionally implemented by server components to report
// their registered routes.
type RouteProvider interface {
	Routes() []Route
}

// Overall folds component health into a single status: unhealthy wins
// over degraded, degraded over healthy.
func Overall(healths []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range healths {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
