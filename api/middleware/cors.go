package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS lets browser front-ends on any origin call the scrape endpoint.
// Preflight requests are answered here with 200 and an empty body.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
