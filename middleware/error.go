package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// ErrorHandler recovers from panics in later handlers and answers with a 500.
// The log line carries the input source so a crashing analysis can be traced.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				source := c.GetString(SourceKey)
				if source == "" {
					source = "none"
				}
				log.Printf("Panic recovered on %s %s (source=%s client=%s): %v\n%s",
					c.Request.Method, c.Request.URL.Path, source, c.ClientIP(), err, debug.Stack())

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "An unexpected error occurred",
				})
			}
		}()

		c.Next()
	}
}
