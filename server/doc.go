// Package server provides the HTTP surface: a Gin engine behind an h2c
// handler, server-level middleware, and the event stream and events API
// routes.
//
// # Middleware
//
// Server-level (server/middleware, wrapping the root mux):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request id generation and propagation
//   - CORS: cross-origin headers for browser EventSource clients
//   - BodySizeLimit: request body size cap
//   - RequestLogger: request logging with status and duration
//
// Route-level (Gin):
//
//   - Telemetry: OpenTelemetry request metrics and spans
//   - RateLimit: per-IP token buckets on the stream endpoint
//   - BearerAuth: JWT stream authentication
//   - APIKeyAuth: API key check for the events API
//
// # Routes
//
//   - GET    /events                          event stream
//   - POST   /api/v1/events/send              targeted send
//   - GET    /api/v1/events/stats             hub counters
//   - GET    /api/v1/events/connections       connected clients
//   - DELETE /api/v1/events/connections/:id   evict a client
//   - DELETE /api/v1/events/users/:id         evict a user's clients
//   - DELETE /api/v1/events/sessions/:id      evict a session's clients
//   - GET    /health, /ready, /info, /version, /metrics
package server
