package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logs one line per request once the handler chain finishes
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		log.Printf("%s %s -> %d in %v from %s rid=%s",
			method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			c.GetString("request_id"),
		)
	}
}
