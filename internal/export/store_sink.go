package export

import (
	"context"
	"fmt"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
)

// StoreSink persists a keyword run and its failure report.
type StoreSink struct {
	records  repository.ListingRecordRepository
	failures repository.CrawlFailureRepository
}

func NewStoreSink(records repository.ListingRecordRepository, failures repository.CrawlFailureRepository) *StoreSink {
	return &StoreSink{records: records, failures: failures}
}

func (s *StoreSink) Export(ctx context.Context, result entity.KeywordResult) error {
	if err := s.records.SaveRun(ctx, result); err != nil {
		return fmt.Errorf("save run of %q: %w", result.Keyword, err)
	}
	if err := s.failures.SaveAll(ctx, result.Failures); err != nil {
		return fmt.Errorf("save failures of %q: %w", result.Keyword, err)
	}
	return nil
}
