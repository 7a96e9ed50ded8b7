package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "inventra/internal/core/context"
)

const HeaderRequestID = "X-Request-ID"

// Trace middleware propagates or generates the request id so log lines of
// one request correlate.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = appctx.NewRequestID()
		}

		ctx := appctx.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
