package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/rental-crawler/internal/adapter/redis"
	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/usecase"
)

func newWorkerCmd(a *app) *cobra.Command {
	var idle time.Duration
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume keywords queued through the API and crawl them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a.serveMetrics(ctx)

			if a.cfg.PostgresURL == "" {
				return errors.New("worker needs POSTGRES_URL")
			}
			pool, err := postgres.Connect(ctx, a.cfg.PostgresURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			rdb, err := redis_adapter.Connect(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
			if err != nil {
				return err
			}
			defer rdb.Close()

			runner, closeBrowser, err := a.newRunner(ctx, a.sinks(pool))
			if err != nil {
				return err
			}
			defer closeBrowser()
			if err := runner.Prepare(ctx); err != nil {
				return err
			}

			bounds := entity.Bounds{MaxSections: a.cfg.MaxSections, PagesPerSection: a.cfg.PagesPerSection}
			crawler := usecase.NewCrawlerUseCase(
				redis_adapter.NewQueueRepo(rdb),
				redis_adapter.NewRecentKeywordRepo(rdb),
				runner,
				bounds,
				a.cfg.RecrawlTTL(),
				a.log,
			)
			a.log.Info("worker started", zap.Duration("idle", idle))
			if err := crawler.Work(ctx, idle); err != nil {
				return err
			}
			a.log.Info("worker stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&idle, "idle", 5*time.Second, "pause between polls of an empty queue")
	return cmd
}
