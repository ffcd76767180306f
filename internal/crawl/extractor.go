package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
	"github.com/user/rental-crawler/pkg/utils"
)

// ListingExtractor reads the listing summaries of the results page currently loaded.
type ListingExtractor struct {
	layout Layout
	logger *zap.Logger
}

func NewListingExtractor(layout Layout, logger *zap.Logger) *ListingExtractor {
	return &ListingExtractor{layout: layout, logger: logger}
}

// Extract pairs listing links with card thumbnails by position. A count mismatch is
// logged and the pairing stops at the shorter sequence.
func (e *ListingExtractor) Extract(ctx context.Context, page repository.Page) ([]entity.ListingSummary, error) {
	htmlContent, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read results page: %w", err)
	}
	location, err := page.Location(ctx)
	if err != nil {
		return nil, fmt.Errorf("read results location: %w", err)
	}
	base, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse results location %q: %w", location, err)
	}

	links, thumbnails, err := ExtractListingParts(base, htmlContent, e.layout)
	if err != nil {
		return nil, err
	}
	if len(links) != len(thumbnails) {
		e.logger.Warn("listing link and thumbnail counts differ",
			zap.Int("links", len(links)),
			zap.Int("thumbnails", len(thumbnails)),
		)
	}

	n := min(len(links), len(thumbnails))
	summaries := make([]entity.ListingSummary, 0, n)
	for i := 0; i < n; i++ {
		summaries = append(summaries, entity.ListingSummary{Link: links[i], ThumbnailURL: thumbnails[i]})
	}
	return summaries, nil
}

// ExtractListingParts parses a results page into absolute listing links and one
// thumbnail per card (empty when a card has none).
func ExtractListingParts(base *url.URL, htmlContent string, layout Layout) (links, thumbnails []string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, nil, fmt.Errorf("parse results page: %w", err)
	}

	doc.Find(layout.ListingLinks).Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || strings.TrimSpace(href) == "" {
			links = append(links, "")
			return
		}
		abs, err := utils.ToAbsoluteURL(base, strings.TrimSpace(href))
		if err != nil {
			abs = href
		}
		links = append(links, abs)
	})

	doc.Find(layout.ListingCards).Each(func(i int, s *goquery.Selection) {
		src, exists := s.Find(layout.CardThumbnail).First().Attr("src")
		if !exists || strings.TrimSpace(src) == "" {
			thumbnails = append(thumbnails, "")
			return
		}
		abs, err := utils.ToAbsoluteURL(base, strings.TrimSpace(src))
		if err != nil {
			abs = src
		}
		thumbnails = append(thumbnails, abs)
	})

	return links, thumbnails, nil
}
