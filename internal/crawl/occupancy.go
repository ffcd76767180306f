package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
)

// OccupancyAggregator walks consecutive months of a listing's availability calendar.
type OccupancyAggregator struct {
	layout Layout
	timing Timing
	logger *zap.Logger
}

func NewOccupancyAggregator(layout Layout, timing Timing, logger *zap.Logger) *OccupancyAggregator {
	return &OccupancyAggregator{layout: layout, timing: timing, logger: logger}
}

// Aggregate samples window months starting at start. A calendar that cannot be opened
// is an *ExtractionError and the listing has no record. Once the walk has begun, a broken
// step returns the months counted so far with a *CalendarError.
func (a *OccupancyAggregator) Aggregate(ctx context.Context, tab repository.Page, start time.Month, window int) ([]entity.MonthOccupancy, error) {
	if err := a.openCalendar(ctx, tab); err != nil {
		return nil, &ExtractionError{Step: "open_calendar", Err: err}
	}

	months := make([]entity.MonthOccupancy, 0, window)
	for offset := 0; offset < window; offset++ {
		month := entity.MonthAfter(start, offset)

		sample, err := a.sampleMonth(ctx, tab, month)
		if err != nil {
			a.logger.Warn("calendar walk stopped", zap.Stringer("month", month), zap.Error(err))
			return months, err
		}
		months = append(months, sample)
		a.logger.Info("month occupancy",
			zap.Stringer("month", month),
			zap.Int("disabled", sample.Disabled),
			zap.Int("total", sample.Total),
		)

		if offset == window-1 {
			break
		}
		if err := a.nextMonth(ctx, tab); err != nil {
			a.logger.Warn("calendar walk stopped", zap.Stringer("month", month), zap.Error(err))
			return months, &CalendarError{Step: "next_month", Month: month, Err: err}
		}
	}
	return months, nil
}

func (a *OccupancyAggregator) openCalendar(ctx context.Context, tab repository.Page) error {
	err := a.timing.bounded(ctx, func(ctx context.Context) error {
		return tab.WaitClickable(ctx, a.layout.CalendarOpen)
	})
	if err != nil {
		return err
	}
	if err := tab.Click(ctx, a.layout.CalendarOpen); err != nil {
		return err
	}
	return settle(ctx, a.timing.DetailSettle)
}

func (a *OccupancyAggregator) sampleMonth(ctx context.Context, tab repository.Page, month time.Month) (entity.MonthOccupancy, error) {
	err := a.timing.bounded(ctx, func(ctx context.Context) error {
		return tab.WaitDocumentReady(ctx)
	})
	if err != nil {
		return entity.MonthOccupancy{}, &CalendarError{Step: "wait_ready", Month: month, Err: err}
	}
	htmlContent, err := tab.HTML(ctx)
	if err != nil {
		return entity.MonthOccupancy{}, &CalendarError{Step: "read_calendar", Month: month, Err: err}
	}
	disabled, enabled, err := CountCalendarDays(htmlContent, a.layout)
	if err != nil {
		return entity.MonthOccupancy{}, &CalendarError{Step: "read_calendar", Month: month, Err: err}
	}
	return entity.MonthOccupancy{Month: month, Disabled: disabled, Total: disabled + enabled}, nil
}

func (a *OccupancyAggregator) nextMonth(ctx context.Context, tab repository.Page) error {
	err := a.timing.bounded(ctx, func(ctx context.Context) error {
		return tab.WaitClickable(ctx, a.layout.NextMonth)
	})
	if err != nil {
		return err
	}
	if err := tab.ScrollIntoView(ctx, a.layout.NextMonth); err != nil {
		return err
	}
	if err := settle(ctx, a.timing.ClickSettle); err != nil {
		return err
	}
	if err := tab.MoveAndClick(ctx, a.layout.NextMonth); err != nil {
		return err
	}
	err = a.timing.bounded(ctx, func(ctx context.Context) error {
		return tab.WaitDocumentReady(ctx)
	})
	if err != nil {
		return err
	}
	return settle(ctx, a.timing.MonthSettle)
}

// CountCalendarDays counts the unavailable and available day cells of the displayed month.
func CountCalendarDays(htmlContent string, layout Layout) (disabled, enabled int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return 0, 0, fmt.Errorf("parse calendar: %w", err)
	}
	return doc.Find(layout.CalendarDisabled).Length(), doc.Find(layout.CalendarEnabled).Length(), nil
}
