package middleware

import (
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plan3/commonauth/logger"
)

const slowRequest = 500 * time.Millisecond

var probePaths = []string{"/health", "/info", "/metrics", "/version"}

// GinRequestLogger logs every request with method, path, status, latency and
// the strategy that authenticated it. Probe endpoints are skipped. A nil
// logger uses the global one.
func GinRequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProbe(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := logger.Fields(
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client", c.ClientIP(),
		)
		if id := c.GetString(ContextKeyRequestID); id != "" {
			fields[logger.FieldRequestID] = id
		}
		if strategy := c.GetString(ContextKeyStrategy); strategy != "" {
			fields["strategy"] = strategy
		}
		if status >= 500 {
			fields["size"] = c.Writer.Size()
		}
		if latency > slowRequest {
			fields["slow"] = true
		}
		logByStatus(log, fields, status)
	}
}

func isProbe(path string) bool {
	return slices.Contains(probePaths, strings.TrimPrefix(path, "/api"))
}

// logByStatus logs at a level derived from the HTTP status.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
