package httpserver

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/events"
)

const headerCorrelationID = "X-Correlation-Id"

// correlationID echoes the caller's X-Correlation-Id or assigns a new one,
// and makes it available to services through the request context.
func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(headerCorrelationID)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header(headerCorrelationID, cid)
		c.Request = c.Request.WithContext(events.WithCorrelationID(c.Request.Context(), cid))
		c.Next()
	}
}
