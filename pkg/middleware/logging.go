package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"tripfeed/pkg/logger"
)

// Logging 请求日志
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []logger.Field{
			logger.F("method", c.Request.Method),
			logger.F("path", c.Request.URL.Path),
			logger.F("status", c.Writer.Status()),
			logger.F("duration_ms", time.Since(start).Milliseconds()),
			logger.F("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.F("error", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error(c.Request.Context(), "HTTP request failed", fields...)
		case c.Writer.Status() >= 400:
			log.Warn(c.Request.Context(), "HTTP request rejected", fields...)
		default:
			log.Info(c.Request.Context(), "HTTP request completed", fields...)
		}
	}
}
