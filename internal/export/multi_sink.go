package export

import (
	"context"
	"errors"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
)

// MultiSink hands every result to each sink in order. One failing sink does not
// keep the result from the others.
type MultiSink []repository.ResultSink

func (m MultiSink) Export(ctx context.Context, result entity.KeywordResult) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Export(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
