package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/pushhub/logger"
)

const slowRequestThreshold = 500 * time.Millisecond

// RequestLogger logs every request with method, path, status and duration.
// Probe and scrape paths are skipped. Event streams are logged when they
// close, so their duration is the connection lifetime.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbeEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			fields := map[string]interface{}{
				"method":             r.Method,
				"path":               r.URL.Path,
				"status":             sw.status,
				"size":               sw.size,
				logger.FieldDuration: duration.Milliseconds(),
				"client":             clientIP(r),
			}
			if duration > slowRequestThreshold && !isStreamRequest(r) {
				fields["slow"] = true
			}
			logByStatus(log.WithContext(r.Context()), fields, sw.status)
		})
	}
}

func isProbeEndpoint(path string) bool {
	switch path {
	case "/health", "/alive", "/ready", "/metrics":
		return true
	}
	return false
}

func isStreamRequest(r *http.Request) bool {
	return r.Header.Get("Accept") == "text/event-stream"
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
