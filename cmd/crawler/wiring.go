package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/user/rental-crawler/internal/adapter/chromedp_browser"
	"github.com/user/rental-crawler/internal/adapter/clock"
	"github.com/user/rental-crawler/internal/adapter/postgres"
	"github.com/user/rental-crawler/internal/crawl"
	"github.com/user/rental-crawler/internal/export"
	"github.com/user/rental-crawler/internal/repository"
	"github.com/user/rental-crawler/pkg/config"
	"github.com/user/rental-crawler/pkg/metrics"
)

func layoutFrom(cfg *config.Config) crawl.Layout {
	layout := crawl.DefaultLayout()
	layout.Offsets = crawl.ControlOffsets{
		FirstSectionStart: cfg.FirstSectionStartControl,
		LaterSectionStart: cfg.LaterSectionStartControl,
		RunStart:          cfg.RunStartControl,
	}
	return layout
}

func timingFrom(cfg *config.Config) crawl.Timing {
	return crawl.Timing{
		WaitTimeout:    cfg.WaitTimeout(),
		ClickSettle:    config.Millis(cfg.ClickSettleMS),
		PageSettle:     config.Millis(cfg.PageSettleMS),
		SectionSettle:  config.Millis(cfg.SectionSettleMS),
		DetailSettle:   config.Millis(cfg.DetailSettleMS),
		MonthSettle:    config.Millis(cfg.MonthSettleMS),
		TabCloseSettle: config.Millis(cfg.TabCloseSettleMS),
	}
}

// sinks builds the exporters every finished keyword is handed to. The Postgres
// store is added when pool is not nil.
func (a *app) sinks(pool *pgxpool.Pool) export.MultiSink {
	sinks := export.MultiSink{export.NewCSVExporter(a.cfg.OutputDir, a.log)}
	if a.cfg.DownloadThumbnails {
		sinks = append(sinks, export.NewThumbnailDownloader(a.cfg.ImageDir, a.log))
	}
	if pool != nil {
		sinks = append(sinks, export.NewStoreSink(postgres.NewListingRecordRepo(pool), postgres.NewCrawlFailureRepo(pool)))
	}
	return sinks
}

// newRunner launches the browser and assembles a Runner around it. The returned
// func shuts the browser down.
func (a *app) newRunner(ctx context.Context, sink repository.ResultSink) (*crawl.Runner, func(), error) {
	browser, err := chromedp_browser.New(ctx, chromedp_browser.Options{
		Headless:   a.cfg.Headless,
		Proxies:    a.cfg.Proxies,
		UserAgents: a.cfg.UserAgents,
	}, a.log)
	if err != nil {
		return nil, nil, err
	}

	clk, err := clock.NewOnline(a.cfg.TimeAPIURL, a.cfg.TimeZone, a.log)
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("clock: %w", err)
	}

	var limiter *rate.Limiter
	if a.cfg.ListingRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(a.cfg.ListingRatePerSecond), 1)
	}
	m := metrics.NewCrawl(prometheus.DefaultRegisterer)

	session, err := crawl.NewSession(browser, clk, crawl.SessionOptions{
		BaseURL:        a.cfg.BaseURL,
		Layout:         layoutFrom(a.cfg),
		Timing:         timingFrom(a.cfg),
		MonthWindow:    a.cfg.MonthWindow,
		ListingLimiter: limiter,
		Metrics:        m,
	}, a.log)
	if err != nil {
		browser.Close()
		return nil, nil, err
	}

	runner := crawl.NewRunner(session, sink, a.cfg.LoginWait(), m, a.log)
	return runner, browser.Close, nil
}
