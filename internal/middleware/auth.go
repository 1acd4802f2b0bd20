package middleware

import (
	"net/http"
	"strings"

	"github.com/atmoslabs/weatherhub/internal/security"
	"github.com/atmoslabs/weatherhub/internal/service"
	"github.com/gin-gonic/gin"
)

// Validates JWT token and requires authentication
func RequireAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Use: Bearer <token>",
			})
			c.Abort()
			return
		}

		tokenString := parts[1]

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		role, _ := claims["role"].(string)

		c.Set("user_id", claims["user_id"])
		c.Set("email", claims["email"])
		c.Set("role", security.ParseRole(role))

		c.Next()
	}
}

// RoleFrom returns the role stored by RequireAuth, defaulting to member.
func RoleFrom(c *gin.Context) security.Role {
	if value, exists := c.Get("role"); exists {
		if role, ok := value.(security.Role); ok {
			return role
		}
	}
	return security.RoleMember
}

// Restricts a route group to admin accounts
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !RoleFrom(c).HasAdminAccess() {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Restricts a route group to accounts with analytics access
func RequireAnalytics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !RoleFrom(c).HasAnalyticsAccess() {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Analytics access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
