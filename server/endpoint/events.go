package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/pushhub/auth/authctx"
	"github.com/kbukum/pushhub/auth/jwt"
	apperrors "github.com/kbukum/pushhub/errors"
	"github.com/kbukum/pushhub/observability"
	"github.com/kbukum/pushhub/sse"
	"github.com/kbukum/pushhub/validation"
)

// Query parameters identifying an unauthenticated subscriber.
const (
	QueryUserID    = "user_id"
	QuerySessionID = "session_id"
)

// Stream subscribes the caller to hub. With stream auth enabled the user
// and session come from the token claims; otherwise from the user_id and
// session_id query parameters.
func Stream(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, sessionID := c.Query(QueryUserID), c.Query(QuerySessionID)
		if claims, ok := authctx.Get[*jwt.StreamClaims](c.Request.Context()); ok {
			userID, sessionID = claims.User(), claims.SessionID
		}

		opts := []sse.ClientOption{
			sse.WithMetadata("ip", c.ClientIP()),
			sse.WithMetadata("user_agent", c.Request.UserAgent()),
		}
		if userID != "" {
			opts = append(opts, sse.WithUserID(userID))
		}
		if sessionID != "" {
			opts = append(opts, sse.WithSessionID(sessionID))
		}
		if lastID := c.GetHeader("Last-Event-ID"); lastID != "" {
			opts = append(opts, sse.WithMetadata("last_event_id", lastID))
		}

		sse.ServeStream(hub, c.Writer, c.Request, opts...)
	}
}

// SendResponse answers a targeted-send request.
type SendResponse struct {
	Success   bool   `json:"success"`
	SentCount *int   `json:"sent_count,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}

func sendFailure(c *gin.Context, appErr *apperrors.AppError) {
	c.JSON(appErr.HTTPStatus, SendResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    string(appErr.Code),
	})
}

// Send dispatches a targeted event. A targeted message without target_id
// is still handed to the hub, which records the error, and is answered
// with 400 MISSING_TARGET_ID.
func Send(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg sse.Message
		if err := c.ShouldBindJSON(&msg); err != nil {
			sendFailure(c, apperrors.InvalidInput("body", err.Error()))
			return
		}
		if err := validation.ValidateMessage(&msg); err != nil {
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				appErr = apperrors.Validation(err.Error())
			}
			sendFailure(c, appErr)
			return
		}

		ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanDispatch)
		defer span.End()
		span.SetAttributes(
			attribute.String(observability.AttrTarget, string(msg.Target)),
			attribute.String(observability.AttrTargetID, msg.TargetID),
			attribute.String(observability.AttrEventType, msg.Event.Type),
		)

		n := hub.SendMessage(msg)
		span.SetAttributes(attribute.Int(observability.AttrSentCount, n))

		if msg.Target.RequiresID() && msg.TargetID == "" {
			appErr := apperrors.MissingTargetID(string(msg.Target))
			observability.SetSpanError(ctx, appErr)
			sendFailure(c, appErr)
			return
		}
		c.JSON(http.StatusOK, SendResponse{Success: true, SentCount: &n})
	}
}

// Stats reports hub counters.
func Stats(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.GetStats())
	}
}

// Connections lists connected clients, oldest first.
func Connections(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		infos := hub.GetConnectionInfo()
		c.JSON(http.StatusOK, gin.H{
			"connections": infos,
			"total":       len(infos),
		})
	}
}

// DisconnectClient evicts one client by id.
func DisconnectClient(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !hub.DisconnectClient(id) {
			appErr := apperrors.NotFound("client", id)
			c.JSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.JSON(http.StatusOK, gin.H{"disconnected": 1})
	}
}

// DisconnectUser evicts every client of a user.
func DisconnectUser(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"disconnected": hub.DisconnectUser(c.Param("id"))})
	}
}

// DisconnectSession evicts every client of a session.
func DisconnectSession(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"disconnected": hub.DisconnectSession(c.Param("id"))})
	}
}
