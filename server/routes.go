package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pushhub/auth"
	"github.com/kbukum/pushhub/auth/apikey"
	apperrors "github.com/kbukum/pushhub/errors"
	"github.com/kbukum/pushhub/observability"
	"github.com/kbukum/pushhub/server/endpoint"
	"github.com/kbukum/pushhub/server/middleware"
	"github.com/kbukum/pushhub/sse"
)

// Route paths.
const (
	PathStream      = "/events"
	PathAPI         = "/api/v1/events"
	PathHealth      = "/health"
	PathReady       = "/ready"
	PathInfo        = "/info"
	PathVersion     = "/version"
	PathMetrics     = "/metrics"
	pathSend        = "/send"
	pathStats       = "/stats"
	pathConnections = "/connections"
)

// Routes collects what the HTTP surface needs. Nil optional fields turn
// the matching feature off.
type Routes struct {
	ServiceName string
	Hub         *sse.Hub
	Health      endpoint.HealthChecker

	// Metrics serves the Prometheus scrape endpoint (optional) at
	// MetricsPath, which defaults to PathMetrics.
	Metrics     http.Handler
	MetricsPath string
	// RequestMetrics records per-route request metrics (optional).
	RequestMetrics *observability.RequestMetrics

	// StreamAuth authenticates stream subscribers (optional).
	StreamAuth      auth.TokenValidator
	AllowQueryToken bool
	// APIKeys protects the publish and admin API (optional).
	APIKeys *apikey.Verifier
}

// RegisterRoutes mounts the stream endpoint, the events API and the
// service endpoints on the Gin engine.
func (s *Server) RegisterRoutes(r Routes) {
	e := s.engine
	e.Use(middleware.Telemetry(r.RequestMetrics))
	e.NoRoute(func(c *gin.Context) {
		RespondWithError(c, apperrors.NotFound("route", c.Request.URL.Path))
	})

	e.GET(PathHealth, endpoint.Health(r.ServiceName, r.Health))
	e.GET(PathReady, endpoint.Readiness(r.ServiceName, r.Health))
	e.GET(PathInfo, endpoint.Info(r.ServiceName))
	e.GET(PathVersion, endpoint.Version())
	if r.Metrics != nil {
		path := r.MetricsPath
		if path == "" {
			path = PathMetrics
		}
		e.GET(path, gin.WrapH(r.Metrics))
	}

	stream := make([]gin.HandlerFunc, 0, 3)
	if s.config.RateLimit.Enabled {
		stream = append(stream, middleware.RateLimit(s.config.RateLimit))
	}
	if r.StreamAuth != nil {
		stream = append(stream, middleware.BearerAuth(r.StreamAuth, r.AllowQueryToken))
	}
	stream = append(stream, endpoint.Stream(r.Hub))
	e.GET(PathStream, stream...)

	api := e.Group(PathAPI)
	if r.APIKeys != nil {
		api.Use(middleware.APIKeyAuth(r.APIKeys))
	}
	api.POST(pathSend, endpoint.Send(r.Hub))
	api.GET(pathStats, endpoint.Stats(r.Hub))
	api.GET(pathConnections, endpoint.Connections(r.Hub))
	api.DELETE(pathConnections+"/:id", endpoint.DisconnectClient(r.Hub))
	api.DELETE("/users/:id", endpoint.DisconnectUser(r.Hub))
	api.DELETE("/sessions/:id", endpoint.DisconnectSession(r.Hub))
}
