package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const slowRequest = 5 * time.Second

// RequestLogger logs one line per request once it completes.
func RequestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"request_id":  RequestID(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"remote_ip":   c.ClientIP(),
			"duration_ms": duration.Milliseconds(),
		})

		switch {
		case status >= 500:
			entry.Error("request failed")
		case duration > slowRequest:
			entry.Warn("slow request")
		default:
			entry.Info("request completed")
		}
	}
}
