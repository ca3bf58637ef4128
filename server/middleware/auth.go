package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/pushhub/auth"
	"github.com/kbukum/pushhub/auth/apikey"
	"github.com/kbukum/pushhub/auth/authctx"
	"github.com/kbukum/pushhub/errors"
)

// BearerAuth validates a bearer token and stores the claims on the request
// context for authctx.Get. With allowQuery set, the access_token query
// parameter is accepted for EventSource clients.
func BearerAuth(validator auth.TokenValidator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.Request, allowQuery)
		if !ok {
			abortWithError(c, errors.Unauthorized("Bearer token required."))
			return
		}
		claims, err := validator.ValidateToken(token)
		if err != nil {
			abortWithError(c, errors.InvalidToken().WithCause(err))
			return
		}
		c.Request = c.Request.WithContext(authctx.Set(c.Request.Context(), claims))
		c.Next()
	}
}

// APIKeyAuth requires a valid X-API-Key header.
func APIKeyAuth(verifier *apikey.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(apikey.HeaderName)
		if key == "" {
			abortWithError(c, errors.Unauthorized("API key required."))
			return
		}
		if err := verifier.Verify(key); err != nil {
			abortWithError(c, errors.Forbidden("Invalid API key."))
			return
		}
		c.Next()
	}
}
