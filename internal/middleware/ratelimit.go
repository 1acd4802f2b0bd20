package middleware

import (
	"fmt"
	"net/http"

	"github.com/atmoslabs/weatherhub/internal/security"
	"github.com/gin-gonic/gin"
)

// Rate limit categories, each bound to its own per-minute ceiling.
const (
	CategoryGeneral   = "general"
	CategoryDashboard = "dashboard"
	CategoryAPI       = "api"
	CategorySearch    = "search"
)

// RateLimit consults the gate for the given category. A denied request gets
// a 429 with Retry-After; the gate itself never errors, so there is no
// failure branch here.
func RateLimit(gate *security.RateGate, category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := ClientID(c)

		ctx := c.Request.Context()

		var result security.RateLimitResult
		switch category {
		case CategoryDashboard:
			result = gate.CheckDashboardRateLimit(ctx, clientID)
		case CategoryAPI:
			result = gate.CheckAPIRateLimit(ctx, clientID)
		case CategorySearch:
			result = gate.CheckSearchRateLimit(ctx, clientID)
		default:
			result = gate.CheckGeneralRateLimit(ctx, clientID)
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.RemainingRequests))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTimeSeconds))

		if !result.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", result.ResetTimeSeconds))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       result.Message,
				"retry_after": result.ResetTimeSeconds,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequestGuard rejects oversized bodies and obvious bot user agents before
// they reach a handler.
func RequestGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		// ContentLength is -1 for chunked requests; those pass the declared
		// size check and are capped while the body is read instead.
		if length := c.Request.ContentLength; length >= 0 && !security.IsValidRequestSize(length) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
			})
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, security.MaxRequestBytes)
		}

		if !security.IsValidOrigin(c.GetHeader("Origin"), c.Request.UserAgent()) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Automated clients are not allowed",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ClientID keys rate-limit state by the authenticated user when available,
// falling back to a stable hash of IP and user agent.
func ClientID(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return userID
	}

	return security.GenerateClientID(c.ClientIP(), c.Request.UserAgent())
}
