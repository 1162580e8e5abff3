package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-training-marketplace/config"
	v1 "go-training-marketplace/internal/delivery/http/v1"
	"go-training-marketplace/internal/matching"
	"go-training-marketplace/internal/repository/postgres"
	"go-training-marketplace/internal/usecase"
	"go-training-marketplace/pkg/database"
	"go-training-marketplace/pkg/logger"
	"go-training-marketplace/pkg/redis"
)

// @title           Training Marketplace Matching API
// @version         1.0
// @description     Requirement-to-candidate matching engine and job lifecycle service.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting matching service", "port", cfg.Port)

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (optional match-result cache)
	if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable - match results will not be cached", "error", err)
	}
	defer redis.Close()

	// 5. Setup Repositories
	jobRepo := postgres.NewJobRepository(dbPool)
	applicationRepo := postgres.NewApplicationRepository(dbPool)
	candidateRepo := postgres.NewCandidateRepository(dbPool)

	// 6. Setup Candidate Snapshot + Matching Engine
	snapshotStore := matching.NewSnapshotStore(candidateRepo)
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	if err := snapshotStore.StartRefresher(refreshCtx, time.Duration(cfg.SnapshotRefreshSecs)*time.Second); err != nil {
		logger.Log.Error("Failed to start snapshot refresher", "error", err)
		os.Exit(1)
	}
	defer snapshotStore.StopRefresher()

	matcher := matching.NewMatcher(
		snapshotStore,
		matching.NewEngine(),
		cfg.ScoringWorkers,
		time.Duration(cfg.ScoringTimeoutMs)*time.Millisecond,
	)

	// 7. Setup Match Sessions + UseCases
	sessions := matching.NewSessionManager(
		matcher.Match,
		cfg.MatchPreviewK,
		time.Duration(cfg.SessionPollSeconds)*time.Second,
		cfg.SessionMaxIdlePolls,
		time.Duration(cfg.SessionIdleTTLSecs)*time.Second,
	)
	defer sessions.Shutdown()

	validate := validator.New()
	matchUC := usecase.NewMatchUsecase(
		matcher,
		sessions,
		redis.Client(),
		time.Duration(cfg.MatchCacheTTLSecs)*time.Second,
		cfg.MatchMaxK,
		validate,
	)
	jobUC := usecase.NewJobUsecase(jobRepo, applicationRepo)

	// 8. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		MatchUC: matchUC,
		JobUC:   jobUC,
		Health:  healthHandler(dbPool, snapshotStore),
		Config:  cfg,
	})

	// 9. Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

// healthHandler reports DB, cache and snapshot freshness in one probe.
func healthHandler(db *pgxpool.Pool, store *matching.SnapshotStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{
			"database":         "ok",
			"cache":            "ok",
			"snapshot_version": store.Current().Version,
		}
		code := http.StatusOK

		if err := db.Ping(c); err != nil {
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
		if !redis.IsAvailable() {
			status["cache"] = "disabled"
		}

		c.JSON(code, status)
	}
}
