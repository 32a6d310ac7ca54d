package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a logged 500 envelope carrying the correlation id.
// gin's own recovery output is discarded in favour of the structured log line.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		correlationID := GetCorrelationID(c)
		logger.Error("Panic recovered",
			"error", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"correlation_id", correlationID,
			"stack", string(debug.Stack()),
		)

		body := gin.H{"error": gin.H{
			"code":    "INTERNAL_SERVER_ERROR",
			"message": "An internal server error occurred",
		}}
		if correlationID != "" {
			body["correlation_id"] = correlationID
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
