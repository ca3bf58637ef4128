package sse

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/kbukum/pushhub/errors"
	"github.com/kbukum/pushhub/logger"
)

// ServeStream registers the request as a client of hub and relays its
// frames until the client is disconnected or the request ends.
func ServeStream(hub *Hub, w http.ResponseWriter, r *http.Request, opts ...ClientOption) {
	if _, ok := w.(http.Flusher); !ok {
		writeError(w, apperrors.Internal(nil).WithDetail("reason", "streaming not supported"))
		return
	}

	stream, err := hub.Connect(r.Context(), opts...)
	if err != nil {
		appErr, ok := apperrors.AsAppError(err)
		if !ok {
			appErr = apperrors.Internal(err)
		}
		writeError(w, appErr)
		return
	}

	// Streams are long-lived; the server read timeout must not cut them.
	// Writes get their own deadline per frame below.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	deadlines := true

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Client-ID", stream.ID)
	w.WriteHeader(http.StatusOK)

	for frame := range stream.Frames {
		// A peer that stops reading is dropped once one frame has been
		// pending for a whole connection timeout.
		if deadlines {
			if err := rc.SetWriteDeadline(time.Now().Add(hub.cfg.ConnectionTimeout)); err != nil {
				deadlines = false
				hub.log.Debug("write deadline not supported", map[string]interface{}{
					logger.FieldClientID: stream.ID,
					logger.FieldError:    err.Error(),
				})
			}
		}
		if _, err := w.Write(frame); err != nil {
			hub.disconnect(stream.ID, ReasonTransport)
			return
		}
		if err := rc.Flush(); err != nil {
			hub.disconnect(stream.ID, ReasonTransport)
			return
		}
		stream.Delivered()
	}
}

func writeError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}
