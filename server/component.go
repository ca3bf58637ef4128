package server

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/kbukum/pushhub/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// systemPaths are listed after the API routes.
var systemPaths = map[string]bool{
	PathHealth:  true,
	PathReady:   true,
	PathInfo:    true,
	PathVersion: true,
	PathMetrics: true,
}

// Component wraps Server as a component.Component.
type Component struct {
	server  *Server
	running atomic.Bool
}

// NewComponent returns a component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (sc *Component) Name() string { return componentName }

// Server returns the wrapped server.
func (sc *Component) Server() *Server { return sc.server }

func (sc *Component) Start(ctx context.Context) error {
	if err := sc.server.Start(ctx); err != nil {
		return err
	}
	sc.running.Store(true)
	return nil
}

func (sc *Component) Stop(ctx context.Context) error {
	sc.running.Store(false)
	return sc.server.Stop(ctx)
}

// Health is healthy while the listener is serving.
func (sc *Component) Health(_ context.Context) component.Health {
	if sc.running.Load() {
		return component.Health{Name: componentName, Status: component.StatusHealthy}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusUnhealthy,
		Message: "HTTP server not running",
	}
}

func (sc *Component) Describe() component.Description {
	cfg := sc.server.config
	details := sc.server.Addr()
	if cfg.RateLimit.Enabled {
		details += fmt.Sprintf(" rate_limit=%.1f/s burst=%d", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: details,
		Port:    cfg.Port,
	}
}

// Routes lists registered routes: API routes first by path, then system
// routes.
func (sc *Component) Routes() []component.Route {
	ginRoutes := sc.server.engine.Routes()

	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys := systemPaths[ginRoutes[i].Path]
		jSys := systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return methodOrder(ginRoutes[i].Method) < methodOrder(ginRoutes[j].Method)
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: formatHandlerName(r.Handler),
		})
	}
	return routes
}

// formatHandlerName shortens Gin's handler path to the innermost named
// function, e.g. "github.com/kbukum/pushhub/server/endpoint.Send.func1"
// and "server.(*Server).RegisterRoutes.Connections.func14" both keep only
// the endpoint name.
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")

	parts := strings.Split(name, ".")
	for len(parts) > 1 && isClosureSegment(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	return parts[len(parts)-1]
}

// isClosureSegment matches "func3" and the nested "1" of "func3.1".
func isClosureSegment(s string) bool {
	if strings.HasPrefix(s, "func") {
		return true
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
