package repository

import (
	"context"

	"github.com/user/rental-crawler/internal/entity"
)

// ResultSink receives the finished result of each keyword. A result without
// records means "no data" for that keyword.
type ResultSink interface {
	Export(ctx context.Context, result entity.KeywordResult) error
}

// ListingRecordRepository stores and reads listing records per keyword.
type ListingRecordRepository interface {
	// SaveRun stores all records of a keyword run and its summary row in one transaction.
	SaveRun(ctx context.Context, result entity.KeywordResult) error
	// FindByKeyword returns the stored records for keyword in scrape order.
	FindByKeyword(ctx context.Context, keyword string) ([]entity.ListingRecord, error)
	// LastRun returns the status of the latest run for keyword, or nil when there is none.
	LastRun(ctx context.Context, keyword string) (*entity.CrawlStatus, error)
}

// CrawlFailureRepository keeps the failure report of keyword runs.
type CrawlFailureRepository interface {
	SaveAll(ctx context.Context, failures []entity.Failure) error
	FindByKeyword(ctx context.Context, keyword string, limit int) ([]entity.Failure, error)
}
