package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/adapter/postgres"
	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/export"
)

func newCrawlCmd(a *app) *cobra.Command {
	var (
		maxSections     int
		pagesPerSection int
		keywordsFile    string
		serveMetrics    bool
	)
	cmd := &cobra.Command{
		Use:   "crawl [keywords...]",
		Short: "Crawl the given keywords one after another and export the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			keywords := args
			if keywordsFile != "" {
				fromFile, err := readKeywords(keywordsFile)
				if err != nil {
					return err
				}
				keywords = append(keywords, fromFile...)
			}
			if len(keywords) == 0 {
				return fmt.Errorf("no keywords given")
			}

			bounds := entity.Bounds{MaxSections: a.cfg.MaxSections, PagesPerSection: a.cfg.PagesPerSection}
			if cmd.Flags().Changed("max-sections") {
				bounds.MaxSections = maxSections
			}
			if cmd.Flags().Changed("pages-per-section") {
				bounds.PagesPerSection = pagesPerSection
			}
			if err := bounds.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if serveMetrics {
				a.serveMetrics(ctx)
			}
			return a.crawl(ctx, keywords, bounds)
		},
	}
	cmd.Flags().IntVar(&maxSections, "max-sections", 0, "number of result sections to walk (default from MAX_SECTIONS)")
	cmd.Flags().IntVar(&pagesPerSection, "pages-per-section", 0, "pages per section (default from PAGES_PER_SECTION)")
	cmd.Flags().StringVar(&keywordsFile, "keywords-file", "", "file with one keyword per line")
	cmd.Flags().BoolVar(&serveMetrics, "serve-metrics", false, "expose /metrics on METRICS_PORT while crawling")
	return cmd
}

func (a *app) crawl(ctx context.Context, keywords []string, bounds entity.Bounds) error {
	var pool *pgxpool.Pool
	if a.cfg.PostgresURL != "" {
		p, err := postgres.Connect(ctx, a.cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer p.Close()
		pool = p
	}

	runner, closeBrowser, err := a.newRunner(ctx, a.sinks(pool))
	if err != nil {
		return err
	}
	defer closeBrowser()

	if err := runner.Prepare(ctx); err != nil {
		a.log.Error("site check failed, nothing crawled", zap.Error(err))
		return err
	}

	results := runner.Run(ctx, keywords, bounds)
	export.RenderSummary(os.Stdout, results)
	return nil
}

// readKeywords returns the non-empty lines of path; lines starting with # are skipped.
func readKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keywords file: %w", err)
	}
	defer f.Close()

	var keywords []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keywords = append(keywords, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	return keywords, nil
}
