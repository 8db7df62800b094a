package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/personapanel/internal/core/model"
)

func respondOK(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"status": "success", "data": data})
}

func respondMessage(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "success", "message": message})
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"status": "error", "message": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrLLMUnavailable), errors.Is(err, model.ErrGraphDisabled), errors.Is(err, model.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes the request body into v and reports a 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
