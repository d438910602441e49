package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type HTTPRecorder interface {
	ObserveHTTP(method, path string, status int, took time.Duration)
}

// RequestID propagates an inbound X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Observe logs each request and records its latency under the route pattern,
// so path parameters do not explode label cardinality.
func Observe(logger *slog.Logger, recorder HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		took := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if recorder != nil {
			recorder.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), took)
		}
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", took.String(),
			"request_id", c.GetString("request_id"),
		)
	}
}
