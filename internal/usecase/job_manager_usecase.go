package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
	"github.com/user/rental-crawler/pkg/metrics"
)

var (
	ErrNoKeywords          = errors.New("no keywords given")
	ErrAllRecentlyCrawled  = errors.New("every keyword has been crawled recently and force is false")
	ErrKeywordNeverCrawled = errors.New("keyword is neither queued nor crawled")
)

// SubmitResult tells which keywords were queued and which were skipped as recent.
type SubmitResult struct {
	Accepted []string
	Skipped  []string
}

// JobManager queues keyword jobs and reports on them.
type JobManager interface {
	Submit(ctx context.Context, keywords []string, force bool) (SubmitResult, error)
	GetStatus(ctx context.Context, keyword string) (*entity.CrawlStatus, error)
	Records(ctx context.Context, keyword string) ([]entity.ListingRecord, error)
	Failures(ctx context.Context, keyword string, limit int) ([]entity.Failure, error)
}

type jobManagerUseCase struct {
	recentRepo  repository.RecentKeywordRepository
	queueRepo   repository.JobQueueRepository
	recordRepo  repository.ListingRecordRepository
	failureRepo repository.CrawlFailureRepository
	recrawlTTL  time.Duration
	logger      *zap.Logger
}

func NewJobManager(
	recentRepo repository.RecentKeywordRepository,
	queueRepo repository.JobQueueRepository,
	recordRepo repository.ListingRecordRepository,
	failureRepo repository.CrawlFailureRepository,
	recrawlTTL time.Duration,
	logger *zap.Logger,
) JobManager {
	return &jobManagerUseCase{
		recentRepo:  recentRepo,
		queueRepo:   queueRepo,
		recordRepo:  recordRepo,
		failureRepo: failureRepo,
		recrawlTTL:  recrawlTTL,
		logger:      logger,
	}
}

// Submit queues every keyword not crawled within the recrawl TTL, or all of them when force is set.
func (uc *jobManagerUseCase) Submit(ctx context.Context, keywords []string, force bool) (SubmitResult, error) {
	var result SubmitResult
	seen := map[string]bool{}
	for _, raw := range keywords {
		keyword := strings.TrimSpace(raw)
		if keyword == "" || seen[keyword] {
			continue
		}
		seen[keyword] = true

		if force {
			if err := uc.recentRepo.RemoveRecent(ctx, keyword); err != nil {
				uc.logger.Warn("failed to clear recent mark for forced crawl", zap.String("keyword", keyword), zap.Error(err))
			}
		} else {
			recent, err := uc.recentRepo.IsRecent(ctx, keyword)
			if err != nil {
				return result, err
			}
			if recent {
				result.Skipped = append(result.Skipped, keyword)
				continue
			}
		}

		if err := uc.queueRepo.Push(ctx, keyword); err != nil {
			return result, err
		}
		if err := uc.recentRepo.MarkRecent(ctx, keyword, uc.recrawlTTL); err != nil {
			// The keyword is queued; it may be queued again before the worker reaches it.
			uc.logger.Error("failed to mark keyword as recent after queueing", zap.String("keyword", keyword), zap.Error(err))
		}
		result.Accepted = append(result.Accepted, keyword)
	}

	if len(seen) == 0 {
		return result, ErrNoKeywords
	}
	uc.reportQueueSize(ctx)
	if len(result.Accepted) == 0 {
		return result, ErrAllRecentlyCrawled
	}
	uc.logger.Info("keywords queued", zap.Strings("accepted", result.Accepted), zap.Strings("skipped", result.Skipped))
	return result, nil
}

func (uc *jobManagerUseCase) reportQueueSize(ctx context.Context) {
	if metrics.JobsInQueue == nil {
		return
	}
	if size, err := uc.queueRepo.Size(ctx); err == nil {
		metrics.JobsInQueue.Set(float64(size))
	}
}

// GetStatus prefers the latest stored run, then a pending mark, and otherwise reports not found.
func (uc *jobManagerUseCase) GetStatus(ctx context.Context, keyword string) (*entity.CrawlStatus, error) {
	keyword = strings.TrimSpace(keyword)
	status, err := uc.recordRepo.LastRun(ctx, keyword)
	if err != nil {
		return nil, err
	}
	if status != nil {
		return status, nil
	}

	recent, err := uc.recentRepo.IsRecent(ctx, keyword)
	if err != nil {
		return nil, err
	}
	if recent {
		return &entity.CrawlStatus{Keyword: keyword, CurrentStatus: entity.StatusPending}, nil
	}
	return &entity.CrawlStatus{Keyword: keyword, CurrentStatus: entity.StatusNotFound}, ErrKeywordNeverCrawled
}

func (uc *jobManagerUseCase) Records(ctx context.Context, keyword string) ([]entity.ListingRecord, error) {
	return uc.recordRepo.FindByKeyword(ctx, strings.TrimSpace(keyword))
}

func (uc *jobManagerUseCase) Failures(ctx context.Context, keyword string, limit int) ([]entity.Failure, error) {
	return uc.failureRepo.FindByKeyword(ctx, strings.TrimSpace(keyword), limit)
}
