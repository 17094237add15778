package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"planbook/pkg/logger"
)

// HeaderRequestID carries the client-supplied or generated request ID.
const HeaderRequestID = "X-Request-ID"

// Trace middleware attaches a request ID to the context and response.
// The ID is echoed back so clients can correlate logs.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
