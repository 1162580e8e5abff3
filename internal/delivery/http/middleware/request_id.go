package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-training-marketplace/internal/delivery/http/response"
)

// RequestID attaches a unique id to every request so log lines and response
// envelopes can be correlated. An incoming X-Request-ID is honored so ids
// stay stable across the collaborating services.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		response.SetRequestID(c, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
