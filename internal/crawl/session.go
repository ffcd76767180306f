package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
	"github.com/user/rental-crawler/pkg/metrics"
)

// Harvest accumulates the outcomes of one keyword run. It is passed by value
// through the walk and owned by the session that started it.
type Harvest struct {
	Records  []entity.ListingRecord
	Failures []entity.Failure
}

func (h Harvest) with(o Outcome) Harvest {
	if o.Record != nil {
		h.Records = append(h.Records, *o.Record)
	}
	h.Failures = append(h.Failures, o.Failures...)
	return h
}

// Outcome is the result of processing one listing: a record, a failure, or a
// record together with non-fatal calendar failures.
type Outcome struct {
	Record   *entity.ListingRecord
	Failures []entity.Failure
}

func (o Outcome) Ok() bool { return o.Record != nil }

// SessionOptions configures a Session.
type SessionOptions struct {
	BaseURL     string
	Layout      Layout
	Timing      Timing
	MonthWindow int
	// ListingLimiter spaces out detail tabs. Nil means no pacing.
	ListingLimiter *rate.Limiter
	Metrics        *metrics.Crawl
}

// Session runs one keyword at a time against the browser's results view.
type Session struct {
	browser   repository.Browser
	clock     repository.Clock
	opts      SessionOptions
	extractor *ListingExtractor
	detail    *DetailScraper
	occupancy *OccupancyAggregator
	walker    *PaginationWalker
	logger    *zap.Logger
}

// NewSession validates the layout and wires the crawl components around browser.
func NewSession(browser repository.Browser, clock repository.Clock, opts SessionOptions, logger *zap.Logger) (*Session, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	if opts.BaseURL == "" {
		return nil, errors.New("session: base URL is required")
	}
	if opts.MonthWindow < 1 {
		opts.MonthWindow = entity.DefaultMonthWindow
	}
	return &Session{
		browser:   browser,
		clock:     clock,
		opts:      opts,
		extractor: NewListingExtractor(opts.Layout, logger),
		detail:    NewDetailScraper(opts.Layout, opts.Timing, logger),
		occupancy: NewOccupancyAggregator(opts.Layout, opts.Timing, logger),
		walker:    NewPaginationWalker(browser, opts.Layout, opts.Timing, logger),
		logger:    logger,
	}, nil
}

// Preflight loads the landing page and checks that the search controls exist,
// so a changed site fails before any keyword is attempted.
func (s *Session) Preflight(ctx context.Context) error {
	if err := s.browser.Navigate(ctx, s.opts.BaseURL); err != nil {
		return fmt.Errorf("preflight: open %s: %w", s.opts.BaseURL, err)
	}
	for _, sel := range []string{s.opts.Layout.SearchInput, s.opts.Layout.SearchButton} {
		err := s.opts.Timing.bounded(ctx, func(ctx context.Context) error {
			return s.browser.WaitPresent(ctx, sel)
		})
		if err != nil {
			return fmt.Errorf("preflight: locator %q: %w", sel, err)
		}
	}
	s.logger.Info("site structure check passed", zap.String("base_url", s.opts.BaseURL))
	return nil
}

// Run searches for the job's keyword and collects a record for every listing it can
// reach within the bounds. A *SessionError is returned when the search itself fails;
// every other problem is reported in the result's failures.
func (s *Session) Run(ctx context.Context, job entity.CrawlJob) (entity.KeywordResult, error) {
	result := entity.KeywordResult{Keyword: job.Keyword, StartedAt: time.Now()}
	logger := s.logger.With(zap.String("keyword", job.Keyword))

	if err := job.Bounds.Validate(); err != nil {
		sesErr := &SessionError{Step: "bounds", Keyword: job.Keyword, Err: err}
		return s.abort(result, sesErr), sesErr
	}
	if err := s.search(ctx, job.Keyword); err != nil {
		logger.Error("search failed, skipping keyword", zap.Error(err))
		return s.abort(result, err), err
	}

	// The calendar walk of every listing starts at the same month.
	start := s.clock.Now(ctx).Month()
	onPage := func(ctx context.Context, at PageRef, h Harvest) Harvest {
		return s.visitPage(ctx, job.Keyword, start, at, h)
	}

	// Section 1 page 1 is already on screen after the search.
	h := onPage(ctx, PageRef{Section: 1, Page: 1}, Harvest{})
	h, stats, err := s.walker.Walk(ctx, job.Bounds, h, onPage)
	if err != nil {
		result.StopReason = err.Error()
		logger.Warn("pagination ended", zap.Error(err), zap.Int("sections", stats.Sections), zap.Int("pages", stats.Pages))
	}

	result.Records = h.Records
	result.Failures = h.Failures
	result.Sections = stats.Sections
	result.Pages = stats.Pages
	result.FinishedAt = time.Now()
	logger.Info("keyword crawl finished",
		zap.Int("records", len(result.Records)),
		zap.Int("failures", len(result.Failures)),
		zap.Int("pages", result.Pages),
	)
	return result, nil
}

func (s *Session) abort(result entity.KeywordResult, err error) entity.KeywordResult {
	result.Failures = append(result.Failures, failureFrom(result.Keyword, "", err, time.Now()))
	result.StopReason = err.Error()
	result.FinishedAt = time.Now()
	return result
}

func (s *Session) search(ctx context.Context, keyword string) error {
	layout, timing := s.opts.Layout, s.opts.Timing
	fail := func(step string, err error) error {
		return &SessionError{Step: step, Keyword: keyword, Err: err}
	}

	if err := s.browser.Navigate(ctx, s.opts.BaseURL); err != nil {
		return fail("open_site", err)
	}
	if err := settle(ctx, timing.PageSettle); err != nil {
		return fail("open_site", err)
	}
	err := timing.bounded(ctx, func(ctx context.Context) error {
		return s.browser.WaitPresent(ctx, layout.SearchInput)
	})
	if err != nil {
		return fail("find_search", err)
	}
	if err := s.browser.Type(ctx, layout.SearchInput, keyword); err != nil {
		return fail("type_keyword", err)
	}
	if err := s.browser.Click(ctx, layout.SearchButton); err != nil {
		return fail("submit_search", err)
	}
	err = timing.bounded(ctx, func(ctx context.Context) error {
		return s.browser.WaitPresent(ctx, layout.ResultsReady)
	})
	if err != nil {
		return fail("wait_results", err)
	}
	if err := settle(ctx, timing.PageSettle); err != nil {
		return fail("wait_results", err)
	}
	return nil
}

func (s *Session) visitPage(ctx context.Context, keyword string, start time.Month, at PageRef, h Harvest) Harvest {
	logger := s.logger.With(zap.String("keyword", keyword), zap.Int("section", at.Section), zap.Int("page", at.Page))
	s.opts.Metrics.PageVisited()
	if at.Page == 1 {
		s.opts.Metrics.SectionEntered()
	}

	summaries, err := s.extractor.Extract(ctx, s.browser)
	if err != nil {
		logger.Error("could not read listings", zap.Error(err))
		f := failureFrom(keyword, "", &ExtractionError{Step: "list_page", Err: err}, time.Now())
		return h.with(Outcome{Failures: []entity.Failure{f}})
	}

	for i, summary := range summaries {
		if ctx.Err() != nil {
			return h
		}
		logger.Info("processing listing", zap.Int("index", i+1), zap.Int("count", len(summaries)), zap.String("link", summary.Link))
		outcome := s.processListing(ctx, keyword, start, summary)
		if outcome.Ok() {
			s.opts.Metrics.ListingSucceeded(len(outcome.Record.OccupancyByMonth))
			logger.Info("listing added",
				zap.String("title", outcome.Record.Title),
				zap.Float64("occupancy_rate", outcome.Record.OccupancyRate),
			)
		} else {
			for _, f := range outcome.Failures {
				s.opts.Metrics.ListingFailed(string(f.Kind))
			}
		}
		h = h.with(outcome)
	}
	return h
}

// processListing opens the listing in its own tab, scrapes it, walks its calendar from
// start and always closes the tab before returning, whatever happened in between.
func (s *Session) processListing(ctx context.Context, keyword string, start time.Month, summary entity.ListingSummary) (outcome Outcome) {
	logger := s.logger.With(zap.String("keyword", keyword), zap.String("link", summary.Link))
	fail := func(err error) Outcome {
		logger.Error("listing skipped", zap.Error(err))
		return Outcome{Failures: []entity.Failure{failureFrom(keyword, summary.Link, err, time.Now())}}
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = fail(fmt.Errorf("unexpected fault: %v", r))
		}
	}()

	if summary.Link == "" {
		return fail(&ExtractionError{Step: "link", Err: repository.ErrElementNotFound})
	}
	if s.opts.ListingLimiter != nil {
		if err := s.opts.ListingLimiter.Wait(ctx); err != nil {
			return fail(&ExtractionError{Step: "pace", Link: summary.Link, Err: err})
		}
	}

	tab, err := s.browser.OpenTab(ctx, summary.Link)
	if err != nil {
		return fail(&ExtractionError{Step: "open_tab", Link: summary.Link, Err: err})
	}
	defer s.closeTab(ctx, tab, logger)

	fields, err := s.detail.Scrape(ctx, tab, summary.Link)
	if err != nil {
		return fail(err)
	}

	months, calErr := s.occupancy.Aggregate(ctx, tab, start, s.opts.MonthWindow)
	var extErr *ExtractionError
	if errors.As(calErr, &extErr) {
		extErr.Link = summary.Link
		return fail(extErr)
	}
	record := entity.NewListingRecord(summary, fields, months)

	outcome = Outcome{Record: &record}
	if calErr != nil {
		outcome.Failures = append(outcome.Failures, failureFrom(keyword, summary.Link, calErr, time.Now()))
	}
	return outcome
}

func (s *Session) closeTab(ctx context.Context, tab repository.Tab, logger *zap.Logger) {
	if err := tab.Close(); err != nil {
		logger.Warn("failed to close listing tab", zap.Error(err))
	}
	_ = settle(ctx, s.opts.Timing.TabCloseSettle)
}
