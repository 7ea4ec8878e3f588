package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scholarcrm/internal/pkg/response"
)

const requestIDHeader = "X-Request-ID"

// ErrorLogger tags each request with an id, logs handler errors and 5xx
// responses with the acting staff member, and converts panics into a 500.
func ErrorLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		defer func() {
			if rec := recover(); rec != nil {
				failure(logger, c, id, start).Error("panic recovered",
					"panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
				c.Abort()
				response.Error(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error")
				return
			}
			for _, e := range c.Errors {
				failure(logger, c, id, start).Error("handler error", "error", e.Err)
			}
			if len(c.Errors) == 0 && c.Writer.Status() >= http.StatusInternalServerError {
				failure(logger, c, id, start).Error("server error response")
			}
		}()

		c.Next()
	}
}

func failure(logger *slog.Logger, c *gin.Context, id string, start time.Time) *slog.Logger {
	l := logger.With(
		"request_id", id,
		"method", c.Request.Method,
		"route", c.FullPath(),
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	if actor, ok := ActorFrom(c); ok {
		l = l.With("actor", actor.UID, "role", string(actor.Role))
	}
	return l
}
