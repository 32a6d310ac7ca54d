package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fin-api-ledger/internal/domain/shared"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"
	CorrelationIDKey    = "correlation_id"

	// maxCorrelationIDLength bounds caller supplied ids before they reach logs and event payloads
	maxCorrelationIDLength = 128
)

// CorrelationID echoes the caller's X-Correlation-ID, or a fresh uuid, and places it on both the gin
// context and the request context so appended statement events carry it too.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" || len(id) > maxCorrelationIDLength {
			id = uuid.NewString()
		}

		c.Set(CorrelationIDKey, id)
		c.Header(CorrelationIDHeader, id)
		c.Request = c.Request.WithContext(shared.ContextWithCorrelationID(c.Request.Context(), id))
		c.Next()
	}
}

func GetCorrelationID(c *gin.Context) string {
	return c.GetString(CorrelationIDKey)
}
