package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/rental-crawler/internal/adapter/redis"
	"github.com/user/rental-crawler/internal/delivery/http/handler"
	"github.com/user/rental-crawler/internal/delivery/http/router"
	"github.com/user/rental-crawler/internal/usecase"
	"github.com/user/rental-crawler/pkg/config"
	"github.com/user/rental-crawler/pkg/logger"
	"github.com/user/rental-crawler/pkg/metrics"
)

func main() {
	envFile := flag.String("env", ".env", "path to the env file")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not load config:", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	// --- Metrics ---
	metrics.Init()

	ctx := context.Background()

	// --- Database Connections ---
	dbpool, err := postgres.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("unable to connect to database", zap.Error(err))
	}
	defer dbpool.Close()
	log.Info("postgres connection pool established")

	rdb, err := redis_adapter.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("unable to connect to redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connection established")

	// --- Repositories ---
	recentRepo := redis_adapter.NewRecentKeywordRepo(rdb)
	queueRepo := redis_adapter.NewQueueRepo(rdb)
	recordRepo := postgres.NewListingRecordRepo(dbpool)
	failureRepo := postgres.NewCrawlFailureRepo(dbpool)

	// --- Use Cases ---
	jobManager := usecase.NewJobManager(recentRepo, queueRepo, recordRepo, failureRepo, cfg.RecrawlTTL(), log)

	// --- HTTP Server ---
	checks := map[string]handler.HealthCheck{
		"postgres": dbpool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	apiHandler := handler.NewHandler(jobManager, checks, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exiting")
}
