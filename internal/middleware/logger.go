package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gearbook/internal/pkg/response"
)

const RequestIDKey = "request_id"

// RequestID reuses the client's X-Request-ID or mints one, and echoes it
// back on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = c.GetHeader("X-Request-Id")
		}
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// RequestLogger logs one line per request and recovers from panics.
// Server errors and handler-attached errors are logged at error level.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error().
					Str("type", "panic").
					Str("error", fmt.Sprintf("%v", recovered)).
					Bytes("stack", debug.Stack()).
					Dict("request", requestFields(c, start)).
					Msg("request panicked")
				response.Abort(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error")
				return
			}

			status := c.Writer.Status()
			ev := logger.Info()
			switch {
			case status >= http.StatusInternalServerError || len(c.Errors) > 0:
				ev = logger.Error()
			case status >= http.StatusBadRequest:
				ev = logger.Warn()
			}
			for _, err := range c.Errors {
				ev = ev.AnErr("error", err.Err)
			}
			ev.Dict("request", requestFields(c, start)).Msg("request")
		}()

		c.Next()
	}
}

func requestFields(c *gin.Context, start time.Time) *zerolog.Event {
	return zerolog.Dict().
		Int("status", c.Writer.Status()).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("query", c.Request.URL.RawQuery).
		Str("client_ip", c.ClientIP()).
		Int64("user_id", c.GetInt64(UserIDKey)).
		Int64("company_id", c.GetInt64(TenantKey)).
		Str("request_id", c.GetString(RequestIDKey)).
		Dur("latency", time.Since(start))
}
