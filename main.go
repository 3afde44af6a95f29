package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ai-mapper/backend/analyzer"
	"github.com/ai-mapper/backend/api"
	"github.com/ai-mapper/backend/config"
	"github.com/ai-mapper/backend/logging"
	"github.com/ai-mapper/backend/middleware"
	"github.com/ai-mapper/backend/stats"
	"github.com/ai-mapper/backend/store"
)

const maintenanceInterval = time.Hour

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	statsStorage, err := stats.NewStorage(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize stats storage: %v", err)
	}

	seoAnalyzer, err := analyzer.New(
		analyzer.WithCacheSize(cfg.CacheSize),
		analyzer.WithStats(statsStorage),
	)
	if err != nil {
		log.Fatalf("Failed to initialize analyzer: %v", err)
	}

	requestStats := logging.New(filepath.Join(cfg.DataDir, "statistics.json"))
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)

	// Saving stays disabled without a database, like the prototype without keys
	var saver store.Saver
	if cfg.PersistenceEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Printf("Persistence disabled: %v", err)
		} else {
			defer db.Close()
			saver = db
		}
	} else {
		log.Println("DATABASE_URL not set, saving analyses is disabled")
	}

	handler := &api.Handler{
		Analyzer: seoAnalyzer,
		Saver:    saver,
		Stats:    requestStats,
		Metrics:  metrics,
		DevMode:  cfg.DevMode,
	}

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}

	r.Use(middleware.ErrorHandler())
	r.Use(cors.New(corsConfig))
	r.Use(metrics.Handler())
	r.Use(rateLimiter.RateLimit())
	r.Use(middleware.TrackRequests(requestStats))

	handler.Register(r.Group("/api"))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go maintenance(ctx, statsStorage, requestStats, rateLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}

	if err := requestStats.Save(); err != nil {
		log.Printf("Failed to save request statistics: %v", err)
	}
	if err := seoAnalyzer.Shutdown(); err != nil {
		log.Printf("Failed to shutdown analyzer: %v", err)
	}
}

// maintenance prunes idle state and old statistics until ctx is done
func maintenance(ctx context.Context, storage *stats.Storage, requests *logging.Statistics, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			storage.Cleanup()
			visitors := requests.PruneVisitors()
			buckets := limiter.Prune()
			log.Printf("Maintenance pruned %d visitors and %d rate limit buckets", visitors, buckets)
		}
	}
}
