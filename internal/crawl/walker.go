package crawl

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
)

// PageRef identifies a landed results page for the page callback.
type PageRef struct {
	Section int
	Page    int
}

// PageFunc is invoked once per landed page with the accumulator so far and returns
// the accumulator extended with that page's outcomes.
type PageFunc func(ctx context.Context, at PageRef, h Harvest) Harvest

// WalkStats counts what a walk visited, including the first page loaded by the caller.
type WalkStats struct {
	Sections int
	Pages    int
}

type cursor struct {
	section int
	page    int
}

func (c cursor) ref() PageRef { return PageRef{Section: c.section, Page: c.page} }

// PaginationWalker drives the section/page traversal of the results view.
type PaginationWalker struct {
	page   repository.Page
	layout Layout
	timing Timing
	logger *zap.Logger
}

func NewPaginationWalker(page repository.Page, layout Layout, timing Timing, logger *zap.Logger) *PaginationWalker {
	return &PaginationWalker{page: page, layout: layout, timing: timing, logger: logger}
}

// Walk starts on section 1 page 1, which the caller has already loaded and visited,
// and calls onPage for every further page until the bounds are reached or a
// navigation step fails. A failure is returned as *NavigationError together with
// everything harvested before it.
func (w *PaginationWalker) Walk(ctx context.Context, bounds entity.Bounds, h Harvest, onPage PageFunc) (Harvest, WalkStats, error) {
	cur := cursor{section: 1, page: 1}
	stats := WalkStats{Sections: 1, Pages: 1}

	for {
		for cur.page < bounds.PagesPerSection {
			control := w.layout.controlFor(cur.section, cur.page)
			if err := w.clickPageControl(ctx, cur, control); err != nil {
				return h, stats, err
			}
			cur.page++
			stats.Pages++
			h = onPage(ctx, cur.ref(), h)
		}

		if cur.section >= bounds.MaxSections {
			w.logger.Info("section bound reached", zap.Int("sections", cur.section))
			return h, stats, nil
		}
		if err := w.clickNextSection(ctx, cur); err != nil {
			return h, stats, err
		}
		cur = cursor{section: cur.section + 1, page: 1}
		stats.Sections++
		stats.Pages++
		// The section control lands directly on the new section's first page.
		h = onPage(ctx, cur.ref(), h)
	}
}

func (w *PaginationWalker) clickPageControl(ctx context.Context, cur cursor, control int) error {
	selector := w.layout.pageControl(control)
	if err := w.click(ctx, selector, w.timing.PageSettle); err != nil {
		return &NavigationError{Step: "page_control", Section: cur.section, Page: cur.page, Control: selector, Err: err}
	}
	w.logger.Info("moved to next page",
		zap.Int("section", cur.section),
		zap.Int("page", cur.page+1),
		zap.Int("control", control),
	)
	return nil
}

func (w *PaginationWalker) clickNextSection(ctx context.Context, cur cursor) error {
	if err := w.click(ctx, w.layout.NextSection, w.timing.SectionSettle); err != nil {
		return &NavigationError{Step: "next_section", Section: cur.section, Page: cur.page, Control: w.layout.NextSection, Err: err}
	}
	w.logger.Info("moved to next section", zap.Int("section", cur.section+1))
	return nil
}

// click waits for selector, scrolls to it, clicks it and waits for the results to render.
func (w *PaginationWalker) click(ctx context.Context, selector string, after time.Duration) error {
	err := w.timing.bounded(ctx, func(ctx context.Context) error {
		return w.page.WaitClickable(ctx, selector)
	})
	if err != nil {
		return err
	}
	if err := w.page.ScrollIntoView(ctx, selector); err != nil {
		return err
	}
	if err := settle(ctx, w.timing.ClickSettle); err != nil {
		return err
	}
	if err := w.page.Click(ctx, selector); err != nil {
		return err
	}
	err = w.timing.bounded(ctx, func(ctx context.Context) error {
		return w.page.WaitPresent(ctx, w.layout.ResultsReady)
	})
	if err != nil {
		return err
	}
	return settle(ctx, after)
}
