// Package api wires together all HTTP routes for the analytics dashboard
// backend.
//
// Route layout mirrors the historical dashboard URL space:
//   - /app/dash/*  — Distimo-based report endpoints consumed by the web UI
//   - /app/version — version report for deployment verification
//   - /healthz     — liveness for load balancers; intentionally unlimited
//
// The Prometheus scrape endpoint is NOT served here; cmd/server starts it on
// a dedicated side-channel port so it stays off the public ingress.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/tsumanga/analytics-dashboard/internal/config"
	"github.com/tsumanga/analytics-dashboard/internal/middleware"
	"github.com/tsumanga/analytics-dashboard/internal/reports"
)

// BackgroundServices holds resources with goroutines that must be stopped
// during graceful shutdown. The caller (cmd/server) calls Shutdown after the
// HTTP server has drained.
type BackgroundServices struct {
	rateLimiter *middleware.RateLimiter
}

// Shutdown stops all background goroutines.
func (bg *BackgroundServices) Shutdown() {
	if bg.rateLimiter != nil {
		bg.rateLimiter.Stop()
	}
	slog.Info("background services stopped")
}

// NewRouter creates and configures the Gin router. redisClient may be nil;
// when it is, rate limiting falls back to the in-process limiter.
func NewRouter(cfg *config.Config, service *reports.Service, redisClient *redis.Client, version string) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	bg := &BackgroundServices{}

	// Liveness and version are registered before rate limiting so probes and
	// deploy checks are never throttled.
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/app/version", VersionHandler(version))

	reportsGroup := router.Group("/app/dash")
	if cfg.Security.RateLimiting.Enabled {
		limitCfg := middleware.RateLimitConfig{
			RequestsPerMinute: cfg.Security.RateLimiting.RequestsPerMinute,
			BurstSize:         cfg.Security.RateLimiting.Burst,
			CleanupInterval:   middleware.DefaultRateLimitConfig().CleanupInterval,
		}
		if redisClient != nil {
			reportsGroup.Use(middleware.RedisRateLimitMiddleware(redisClient, limitCfg))
			slog.Info("rate limiting enabled", "backend", "redis", "rpm", limitCfg.RequestsPerMinute)
		} else {
			bg.rateLimiter = middleware.NewRateLimiter(limitCfg)
			reportsGroup.Use(bg.rateLimiter.Middleware())
			slog.Info("rate limiting enabled", "backend", "memory", "rpm", limitCfg.RequestsPerMinute)
		}
	}

	reportHandler := NewReportHandler(service)
	reportsGroup.GET("/appids", reportHandler.GetAppIDs)
	reportsGroup.GET("/downloads", reportHandler.GetDownloads)

	return router, bg
}
