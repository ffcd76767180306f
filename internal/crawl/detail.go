package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
)

// DetailScraper reads the static fields of a listing from its opened detail view.
type DetailScraper struct {
	layout Layout
	timing Timing
	logger *zap.Logger
}

func NewDetailScraper(layout Layout, timing Timing, logger *zap.Logger) *DetailScraper {
	return &DetailScraper{layout: layout, timing: timing, logger: logger}
}

// Scrape waits for the detail container and reads every required field.
// Any absent element yields an *ExtractionError.
func (d *DetailScraper) Scrape(ctx context.Context, tab repository.Page, link string) (entity.ListingFields, error) {
	err := d.timing.bounded(ctx, func(ctx context.Context) error {
		return tab.WaitPresent(ctx, d.layout.DetailContainer)
	})
	if err != nil {
		return entity.ListingFields{}, &ExtractionError{Step: "wait_detail", Link: link, Err: err}
	}
	if err := settle(ctx, d.timing.DetailSettle); err != nil {
		return entity.ListingFields{}, &ExtractionError{Step: "wait_detail", Link: link, Err: err}
	}

	htmlContent, err := tab.HTML(ctx)
	if err != nil {
		return entity.ListingFields{}, &ExtractionError{Step: "read_detail", Link: link, Err: err}
	}
	fields, err := ExtractListingFields(htmlContent, d.layout)
	if err != nil {
		var extErr *ExtractionError
		if errors.As(err, &extErr) {
			extErr.Link = link
			return entity.ListingFields{}, extErr
		}
		return entity.ListingFields{}, &ExtractionError{Step: "read_detail", Link: link, Err: err}
	}
	d.logger.Debug("listing fields extracted", zap.String("link", link), zap.String("title", fields.Title))
	return fields, nil
}

// ExtractListingFields reads the required fields from a detail page snapshot.
func ExtractListingFields(htmlContent string, layout Layout) (entity.ListingFields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return entity.ListingFields{}, fmt.Errorf("parse detail page: %w", err)
	}
	if doc.Find(layout.DetailContainer).Length() == 0 {
		return entity.ListingFields{}, &ExtractionError{Step: "read_detail", Err: repository.ErrElementNotFound}
	}

	values := make(map[Field]string, len(DetailFields))
	for _, f := range DetailFields {
		sel := doc.Find(layout.Fields[f])
		if sel.Length() == 0 {
			return entity.ListingFields{}, &ExtractionError{Step: "read_field", Field: f, Err: repository.ErrElementNotFound}
		}
		values[f] = strings.TrimSpace(sel.First().Text())
	}

	return entity.ListingFields{
		Title:           values[FieldTitle],
		Address:         values[FieldAddress],
		Area:            values[FieldArea],
		BuildingType:    values[FieldBuildingType],
		WeeklyRentPrice: values[FieldWeeklyRentPrice],
		ManagementPrice: values[FieldManagementPrice],
		CleaningPrice:   values[FieldCleaningPrice],
	}, nil
}
