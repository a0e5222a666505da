// Package main is the entry point for the analytics dashboard server binary.
// It dispatches two subcommands — serve and version — via a simple switch on
// os.Args so the binary's full CLI surface is readable in one place without
// requiring a cobra dependency.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tsumanga/analytics-dashboard/internal/api"
	"github.com/tsumanga/analytics-dashboard/internal/cache"
	"github.com/tsumanga/analytics-dashboard/internal/config"
	"github.com/tsumanga/analytics-dashboard/internal/distimo"
	"github.com/tsumanga/analytics-dashboard/internal/reports"
	"github.com/tsumanga/analytics-dashboard/internal/safego"
	"github.com/tsumanga/analytics-dashboard/internal/telemetry"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "serve":
		cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return serve(cfg)
	case "version":
		fmt.Printf("Analytics Dashboard v%s\n", version)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\nAvailable commands: serve, version", command)
	}
}

func serve(cfg *config.Config) error {
	// Initialise structured logger as early as possible so all subsequent
	// log output uses the configured format and level.
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// The credential tuple is validated lazily by the reporting feature, not
	// here: a dashboard without analytics keys still serves /healthz and
	// /app/version. Log the state up front so a misconfiguration is visible
	// before the first report request fails.
	if len(cfg.Distimo.Keys) != 4 {
		slog.Warn("distimo.keys should hold [private, public, username, base64auth]; reporting endpoints will return errors",
			"values", len(cfg.Distimo.Keys))
	}

	store, err := cache.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize cache store: %w", err)
	}
	slog.Info("cache store initialised", "backend", cfg.Cache.Backend, "ttl", cfg.Distimo.CacheTTL)

	// The rate limiter shares the Redis connection with the cache store when
	// the redis backend is configured.
	var redisStore *cache.RedisStore
	if rs, ok := store.(*cache.RedisStore); ok {
		redisStore = rs
		defer redisStore.Close()
	}

	client := distimo.NewClient(cfg.Distimo, store)
	service := reports.NewService(client)

	// Start the Prometheus metrics endpoint on a dedicated port so it is not
	// reachable through the public API ingress path.
	if cfg.Telemetry.Metrics.Enabled {
		metricsAddr := fmt.Sprintf(":%d", cfg.Telemetry.Metrics.PrometheusPort)
		safego.Go(func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("starting Prometheus metrics server", "addr", metricsAddr)
			srv := &http.Server{
				Addr:         metricsAddr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		})
	}

	var redisClient *redis.Client
	if redisStore != nil {
		redisClient = redisStore.Client()
	}

	router, bgServices := api.NewRouter(cfg, service, redisClient, version)

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.Server.GetAddress(), "cache_backend", cfg.Cache.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	bgServices.Shutdown()

	slog.Info("server stopped gracefully")
	return nil
}
