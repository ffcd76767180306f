package crawl

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

// Runner drives a whole job: every keyword in order, one at a time, on one session.
type Runner struct {
	session   *Session
	sink      repository.ResultSink
	loginWait time.Duration
	metrics   *metrics.Crawl
	logger    *zap.Logger
}

func NewRunner(session *Session, sink repository.ResultSink, loginWait time.Duration, m *metrics.Crawl, logger *zap.Logger) *Runner {
	return &Runner{session: session, sink: sink, loginWait: loginWait, metrics: m, logger: logger}
}

// Prepare checks the site structure and then leaves time for an operator to log in.
func (r *Runner) Prepare(ctx context.Context) error {
	if err := r.session.Preflight(ctx); err != nil {
		return err
	}
	if r.loginWait > 0 {
		r.logger.Info("waiting for login", zap.Duration("wait", r.loginWait))
		return settle(ctx, r.loginWait)
	}
	return nil
}

// Run attempts every keyword and returns whatever each one collected. A failing keyword
// never stops the ones after it; only cancellation of ctx does.
func (r *Runner) Run(ctx context.Context, keywords []string, bounds entity.Bounds) []entity.KeywordResult {
	results := make([]entity.KeywordResult, 0, len(keywords))
	for _, raw := range keywords {
		keyword := strings.TrimSpace(raw)
		if keyword == "" {
			continue
		}
		if ctx.Err() != nil {
			r.logger.Warn("job cancelled, remaining keywords skipped", zap.Error(ctx.Err()))
			break
		}
		results = append(results, r.RunKeyword(ctx, keyword, bounds))
	}
	return results
}

// RunKeyword crawls one keyword and hands its result to the sink.
func (r *Runner) RunKeyword(ctx context.Context, keyword string, bounds entity.Bounds) entity.KeywordResult {
	logger := r.logger.With(zap.String("keyword", keyword))
	logger.Info("keyword crawl started", zap.Int("max_sections", bounds.MaxSections), zap.Int("pages_per_section", bounds.PagesPerSection))

	started := time.Now()
	result, err := r.session.Run(ctx, entity.CrawlJob{Keyword: keyword, Bounds: bounds})
	outcome := "completed"
	var sesErr *SessionError
	if errors.As(err, &sesErr) {
		outcome = "aborted"
	}
	r.metrics.KeywordFinished(outcome, time.Since(started).Seconds())

	if len(result.Records) == 0 {
		logger.Info("no data for keyword")
	}
	if r.sink != nil {
		if err := r.sink.Export(ctx, result); err != nil {
			logger.Error("export failed", zap.Error(err))
		}
	}
	return result
}
