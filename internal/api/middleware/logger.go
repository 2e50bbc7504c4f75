package middleware

import (
	"time"

	"capital-risk/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per request at a level chosen by status class.
func Logger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			log.Error("Request", kv...)
		case status >= 400:
			log.Warn("Request", kv...)
		default:
			log.Info("Request", kv...)
		}
	}
}
