package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"snapChallengeAPI/handlers"
	"snapChallengeAPI/internal/config"
	"snapChallengeAPI/internal/database"
	"snapChallengeAPI/internal/logger"
	"snapChallengeAPI/internal/workers"
	"snapChallengeAPI/middleware"
	"snapChallengeAPI/services"
)

const (
	requestsPerSecond = 10
	requestBurst      = 20
	shutdownTimeout   = 30 * time.Second
)

func main() {
	reconcileOnly := flag.Bool("reconcile", false, "repair denormalized counters once and exit")
	issueToken := flag.String("issue-token", "", "print a session token for the given user id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Config: %v", err)
	}

	if *issueToken != "" {
		token, err := middleware.IssueSessionToken(cfg.SessionSecret, *issueToken, *tokenTTL)
		if err != nil {
			logger.Fatal("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL, database.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: 5})
	if err != nil {
		logger.Fatal("Database: %v", err)
	}
	defer func() {
		logger.Info("Closing database connection pool...")
		pool.Close()
	}()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("Database: %v", err)
	}

	if *reconcileOnly {
		report, err := services.NewReconcileService(pool).Reconcile(ctx)
		if err != nil {
			pool.Close()
			logger.Fatal("Reconcile failed: %v", err)
		}
		logger.Info("Reconcile: repaired %d submissions, %d users", report.SubmissionsFixed, report.UsersFixed)
		return
	}

	if cfg.ClerkSecretKey != "" {
		clerk.SetKey(cfg.ClerkSecretKey)
		logger.Info("Clerk initialized successfully")
	}

	middleware.InitPrometheus(prometheus.DefaultRegisterer)

	var uploader handlers.MediaUploader
	mediaService, err := services.NewMediaService(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		logger.Warn("Media uploads disabled: %v", err)
	} else {
		uploader = mediaService
	}

	limiter, closeLimiter := newLimiterStore(ctx, cfg)
	defer closeLimiter()

	a := newApp(cfg, pool, uploader, limiter)

	worker := workers.NewReconcileWorker(a.reconciler, cfg.ReconcileInterval)
	worker.Start()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Error starting server: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Got signal: %v", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error: %v", err)
	}

	a.badges.Stop()
	worker.Stop()

	logger.Info("Server shutdown complete")
}

// newLimiterStore shares rate limits through Redis when REDIS_URL is set and
// falls back to per-process buckets otherwise.
func newLimiterStore(ctx context.Context, cfg *config.Config) (middleware.LimiterStore, func()) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL: %v", err)
		}
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unreachable, rate limiting fails open until it recovers: %v", err)
		} else {
			logger.Info("Rate limiting through Redis")
		}
		return middleware.NewRedisLimiterStore(client, requestsPerSecond, requestBurst), func() { client.Close() }
	}

	store := middleware.NewMemoryLimiterStore(requestsPerSecond, requestBurst)
	go store.CleanupVisitors(ctx)
	return store, func() {}
}
