package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/truongngoctrac/claims-platform/pkg/logger"
)

// Logger returns a middleware that logs HTTP requests. Bodies are never
// logged; claim payloads carry diagnoses.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		statusCode := c.Writer.Status()

		l := log.WithFields(map[string]interface{}{
			"request_id": c.GetString(ContextRequestID),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"status":     statusCode,
			"latency":    time.Since(start).String(),
			"user_agent": c.Request.UserAgent(),
		})

		// Log based on status code
		switch {
		case statusCode >= 500:
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			l.Error(err, "Server error")
		case statusCode >= 400:
			l.Warn("Client error", "errors", c.Errors.String())
		default:
			l.Info("Request processed")
		}
	}
}
