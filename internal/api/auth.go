package api

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────
// Monitor Bearer Token Middleware
//
// The live event stream carries participant activity to operator
// dashboards, so it is not part of the public participant surface.
// When MONITOR_TOKEN is set, subscribing requires:
//   Authorization: Bearer <token>
// ──────────────────────────────────────────────────────────────────

// monitorAuth validates bearer tokens on the monitoring stream. An empty
// configured token leaves the stream open (dev mode).
func monitorAuth(token string) gin.HandlerFunc {
	if token == "" {
		log.Println("[SECURITY WARNING] MONITOR_TOKEN is not set. " +
			"The live event stream is publicly accessible. " +
			"Set MONITOR_TOKEN in your environment to restrict it to dashboards.")
	}

	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing Authorization header",
				"hint":  "Use: Authorization: Bearer <MONITOR_TOKEN>",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid Authorization header format"})
			c.Abort()
			return
		}

		// Constant-time comparison to prevent timing-based token enumeration.
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
