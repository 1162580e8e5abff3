package response

import (
	"github.com/gin-gonic/gin"
)

// requestIDKey is the gin context key the request id travels under. Kept
// unexported so producers go through SetRequestID.
const requestIDKey = "go-training-marketplace/request-id"

// SetRequestID attaches the request id the envelope writers echo back.
func SetRequestID(c *gin.Context, id string) {
	c.Set(requestIDKey, id)
}

// Response standardizes the API JSON envelope.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Error     any    `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Success sends a success envelope.
func Success(c *gin.Context, code int, message string, data any) {
	write(c, code, Response{Success: true, Message: message, Data: data})
}

// Error sends an error envelope.
func Error(c *gin.Context, code int, message string, err any) {
	write(c, code, Response{Message: message, Error: err})
}

func write(c *gin.Context, code int, r Response) {
	r.RequestID = requestID(c)
	c.JSON(code, r)
}

func requestID(c *gin.Context) string {
	id, _ := c.Value(requestIDKey).(string)
	return id
}
