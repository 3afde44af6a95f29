package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ai-mapper/backend/logging"
)

// SourceKey is the context key handlers use to report the kind of input analyzed
const SourceKey = "analysis_source"

const persistEvery = 100

// TrackRequests records visitors and analysis/save requests in stats
func TrackRequests(stats *logging.Statistics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		stats.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.Method != http.MethodPost {
			return
		}

		loadTime := float64(time.Since(start).Milliseconds())
		hasError := c.Writer.Status() >= http.StatusBadRequest

		switch c.FullPath() {
		case "/api/analyze":
			stats.TrackAnalysis(c.GetString(SourceKey), loadTime, hasError)
		case "/api/analyses":
			stats.TrackSave(loadTime, hasError)
		default:
			return
		}

		// Periodically save statistics without blocking the request
		if stats.TotalRequests()%persistEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					log.Printf("Failed to save request statistics: %v", err)
				}
			}()
		}
	}
}
