package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ai-mapper/backend/analyzer"
	"github.com/ai-mapper/backend/logging"
	"github.com/ai-mapper/backend/middleware"
	"github.com/ai-mapper/backend/stats"
	"github.com/ai-mapper/backend/store"
)

const (
	analyzeURLTimeout = 30 * time.Second
	maxBodySize       = 5 << 20 // 5MB, same as a fetched page
)

// Handler serves the analysis endpoints
type Handler struct {
	Analyzer *analyzer.Analyzer
	Saver    store.Saver // nil disables saving
	Stats    *logging.Statistics
	Metrics  *middleware.Metrics
	DevMode  bool
	now      func() time.Time
}

// AnalyzeRequest carries exactly one kind of input
type AnalyzeRequest struct {
	Content *string `json:"content"`
	HTML    *string `json:"html"`
	URL     *string `json:"url"`
}

// SaveRequest is the body of a save call
type SaveRequest struct {
	Content string `json:"content"`
}

// SaveResponse describes a persisted analysis
type SaveResponse struct {
	ID        int64     `json:"id"`
	SEOScore  int       `json:"seo"`
	GEOScore  int       `json:"geo"`
	CreatedAt time.Time `json:"created_at"`
}

// Register mounts the API routes on the group
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/health", h.HandleHealth)
	api.POST("/analyze", h.HandleAnalyze)
	api.POST("/analyses", h.HandleSave)
	api.GET("/statistics", h.HandleStatistics)
	api.DELETE("/cache", h.HandleClearCache)
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"persistence": h.Saver != nil,
	})
}

func (h *Handler) HandleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if !bindBody(c, &req) {
		return
	}

	provided := 0
	for _, field := range []*string{req.Content, req.HTML, req.URL} {
		if field != nil {
			provided++
		}
	}
	if provided != 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Provide exactly one of content, html or url",
		})
		return
	}

	var (
		report analyzer.Report
		err    error
	)
	switch {
	case req.Content != nil:
		c.Set(middleware.SourceKey, string(analyzer.SourceText))
		if h.Analyzer.IsCached(*req.Content) {
			c.Header("X-Cache", "HIT")
		} else {
			c.Header("X-Cache", "MISS")
		}
		report = h.Analyzer.Analyze(*req.Content)
	case req.HTML != nil:
		c.Set(middleware.SourceKey, string(analyzer.SourceHTML))
		report, err = h.Analyzer.AnalyzeHTML(*req.HTML)
	case req.URL != nil:
		c.Set(middleware.SourceKey, string(analyzer.SourceURL))
		if !validURL(*req.URL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL provided"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), analyzeURLTimeout)
		defer cancel()
		report, err = h.Analyzer.AnalyzeURL(ctx, *req.URL)
	}

	if err != nil {
		log.Printf("Analysis failed for %s: %v", c.ClientIP(), err)
		switch {
		case errors.Is(err, analyzer.ErrBlockedHost):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL provided"})
		case req.URL != nil:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to analyze content"})
		default:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to analyze content"})
		}
		return
	}

	h.Metrics.ObserveScores(report.SEOScore, report.GEOScore)
	c.JSON(http.StatusOK, report)
}

func (h *Handler) HandleSave(c *gin.Context) {
	var req SaveRequest
	if !bindBody(c, &req) {
		return
	}

	if analyzer.IsBlank(req.Content) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Add some content first."})
		return
	}

	if h.Saver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Persistence is not configured",
		})
		return
	}

	// Scores are recomputed server side, clients cannot submit their own
	result := analyzer.Score(req.Content)
	rec := store.Record{
		RawContent: req.Content,
		SEOScore:   result.SEOScore,
		GEOScore:   result.GEOScore,
		CreatedAt:  h.clock().UTC(),
	}

	id, err := h.Saver.Save(c.Request.Context(), rec)
	if err != nil {
		h.recordSave(false)
		if errors.Is(err, context.Canceled) {
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "Request cancelled"})
			return
		}
		log.Printf("Insert into analyses failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Saving the analysis failed",
		})
		return
	}
	h.recordSave(true)

	c.JSON(http.StatusCreated, SaveResponse{
		ID:        id,
		SEOScore:  rec.SEOScore,
		GEOScore:  rec.GEOScore,
		CreatedAt: rec.CreatedAt,
	})
}

func (h *Handler) HandleStatistics(c *gin.Context) {
	body := gin.H{}
	if h.Stats != nil {
		body["requests"] = h.Stats.Summary(h.DevMode)
	}
	if storage := h.Analyzer.GetStats(); storage != nil {
		body["month"] = storage.GetCurrentStats()
	}
	if h.DevMode {
		body["cache"] = h.Analyzer.GetCacheStats()
		if storage := h.Analyzer.GetStats(); storage != nil {
			months := make(map[string]stats.MonthlyStats)
			for _, month := range storage.GetAllMonths() {
				if monthly, ok := storage.GetMonthlyStats(month); ok {
					months[month] = monthly
				}
			}
			body["months"] = months
		}
	}
	c.JSON(http.StatusOK, body)
}

// HandleClearCache drops cached reports. Only available in development mode.
func (h *Handler) HandleClearCache(c *gin.Context) {
	if !h.DevMode {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	cleared := h.Analyzer.GetCacheStats().Entries
	h.Analyzer.ClearCache()
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

// bindBody decodes a JSON body of at most maxBodySize bytes. It answers the
// request itself and returns false when decoding fails.
func bindBody(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}

func (h *Handler) recordSave(ok bool) {
	storage := h.Analyzer.GetStats()
	if storage == nil {
		return
	}

	if ok {
		storage.Increment(stats.Delta{Saves: 1})
	} else {
		storage.Increment(stats.Delta{SaveFailures: 1})
	}
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
