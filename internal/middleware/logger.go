package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestID echoes the caller's X-Request-ID or assigns a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, reqID)
		c.Set(requestIDKey, reqID)
		c.Next()
	}
}

// RequestLogger writes one access log line per request once the handler has run.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  time.Since(startTime).Milliseconds(),
		})
		if reqID := c.GetString(requestIDKey); reqID != "" {
			entry = entry.WithField("request_id", reqID)
		}

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case statusCode >= 500:
			entry.Error("Request completed with server error")
		case statusCode >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}
