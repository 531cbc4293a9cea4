package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger emits one structured log line per request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)

		entry := logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   latency,
			"client_ip": c.ClientIP(),
		})

		if c.Request.URL.RawQuery != "" {
			entry = entry.WithField("query", c.Request.URL.RawQuery)
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Internal Server Error")
		case status >= 400:
			entry.Warn("Client Error")
		default:
			entry.Info("Request completed")
		}
	}
}
