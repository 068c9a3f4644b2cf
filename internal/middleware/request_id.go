package middleware

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shelfmark/shelfmark/internal/pkg/logutil"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an id and binds a request-scoped logger
// into the context, so downstream log lines correlate.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			buf := make([]byte, 8)
			_, _ = rand.Read(buf)
			id = hex.EncodeToString(buf)
		}
		c.Writer.Header().Set(requestIDHeader, id)
		logger := logutil.GetLogger(c.Request.Context()).With(zap.String("request_id", id))
		c.Request = c.Request.WithContext(logutil.WithLogger(c.Request.Context(), logger))
		c.Next()
	}
}
