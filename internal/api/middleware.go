package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger attaches a logger carrying the request id to the request
// context so services log with it through logging.FromContext.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		logger := base
		if logger == nil {
			logger = slog.Default()
		}
		logger = logger.With("request_id", requestID)
		ctx := logging.ContextWithLogger(c.Request.Context(), logger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
