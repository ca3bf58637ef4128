package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/pushhub/logger"
)

// HeaderRequestID is read from requests and echoed on responses.
const HeaderRequestID = "X-Request-Id"

const maxRequestIDLength = 128

// RequestID ensures every request carries an id. A caller-supplied id is
// kept when it is short and printable; otherwise a UUID is generated. The
// id is stored on the request context for logger.WithContext.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if !acceptableRequestID(id) {
				id = uuid.New().String()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			ctx := logger.ContextWithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	return !strings.ContainsFunc(id, func(r rune) bool {
		return r < 0x20 || r == 0x7f
	})
}
