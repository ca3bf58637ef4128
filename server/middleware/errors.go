package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pushhub/errors"
)

func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}

func abortWithError(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
