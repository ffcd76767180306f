package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
	"github.com/user/rental-crawler/pkg/metrics"
)

// KeywordRunner crawls a single keyword and hands its result on.
type KeywordRunner interface {
	RunKeyword(ctx context.Context, keyword string, bounds entity.Bounds) entity.KeywordResult
}

// Crawler consumes the keyword queue.
type Crawler interface {
	// ProcessJobFromQueue runs the next queued keyword. It reports false when the queue was empty.
	ProcessJobFromQueue(ctx context.Context) (bool, error)
	// Work processes jobs one after another until ctx ends, pausing idle between polls of an empty queue.
	Work(ctx context.Context, idle time.Duration) error
}

type crawlerUseCase struct {
	queueRepo  repository.JobQueueRepository
	recentRepo repository.RecentKeywordRepository
	runner     KeywordRunner
	bounds     entity.Bounds
	recrawlTTL time.Duration
	logger     *zap.Logger
}

func NewCrawlerUseCase(
	queueRepo repository.JobQueueRepository,
	recentRepo repository.RecentKeywordRepository,
	runner KeywordRunner,
	bounds entity.Bounds,
	recrawlTTL time.Duration,
	logger *zap.Logger,
) Crawler {
	return &crawlerUseCase{
		queueRepo:  queueRepo,
		recentRepo: recentRepo,
		runner:     runner,
		bounds:     bounds,
		recrawlTTL: recrawlTTL,
		logger:     logger,
	}
}

func (uc *crawlerUseCase) ProcessJobFromQueue(ctx context.Context) (bool, error) {
	keyword, err := uc.queueRepo.Pop(ctx)
	if errors.Is(err, repository.ErrQueueEmpty) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to pop keyword from queue: %w", err)
	}
	uc.reportQueueSize(ctx)

	uc.logger.Info("processing keyword from queue", zap.String("keyword", keyword))
	result := uc.runner.RunKeyword(ctx, keyword, uc.bounds)

	// The TTL counts from the end of the crawl, not from the submission.
	if err := uc.recentRepo.MarkRecent(ctx, keyword, uc.recrawlTTL); err != nil {
		uc.logger.Warn("failed to refresh recent mark", zap.String("keyword", keyword), zap.Error(err))
	}
	uc.logger.Info("keyword processed",
		zap.String("keyword", keyword),
		zap.Int("records", len(result.Records)),
		zap.Int("failures", len(result.Failures)),
	)
	return true, nil
}

func (uc *crawlerUseCase) Work(ctx context.Context, idle time.Duration) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		processed, err := uc.ProcessJobFromQueue(ctx)
		if err != nil {
			uc.logger.Error("queue error", zap.Error(err))
		}
		if processed {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(idle):
		}
	}
}

// reportQueueSize reads the shared queue length, since the API and the worker run in
// separate processes with their own gauges.
func (uc *crawlerUseCase) reportQueueSize(ctx context.Context) {
	if metrics.JobsInQueue == nil {
		return
	}
	if size, err := uc.queueRepo.Size(ctx); err == nil {
		metrics.JobsInQueue.Set(float64(size))
	}
}
