package middleware

import (
	"time"

	"github.com/atmoslabs/weatherhub/internal/models"
	"github.com/atmoslabs/weatherhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Records every request as an analytics event, asynchronously
func Analytics(analytics *service.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		var userID *uuid.UUID
		if raw := c.GetString("user_id"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				userID = &id
			}
		}

		analytics.Record(models.AnalyticsEvent{
			Timestamp:  start.UTC(),
			UserID:     userID,
			ClientID:   ClientID(c),
			EventType:  "api_request",
			Method:     c.Request.Method,
			Endpoint:   c.FullPath(),
			StatusCode: c.Writer.Status(),
			DurationMs: int(duration.Milliseconds()),
		})
	}
}
