package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/rental-crawler/internal/entity"
)

// CrawlFailureRepoImpl keeps failure reports in PostgreSQL.
type CrawlFailureRepoImpl struct {
	db *pgxpool.Pool
}

func NewCrawlFailureRepo(db *pgxpool.Pool) *CrawlFailureRepoImpl {
	return &CrawlFailureRepoImpl{db: db}
}

// SaveAll appends every failure in one batch.
func (r *CrawlFailureRepoImpl) SaveAll(ctx context.Context, failures []entity.Failure) error {
	if len(failures) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range failures {
		batch.Queue(`
			INSERT INTO crawl_failures (keyword, link, kind, step, reason, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			f.Keyword, f.Link, string(f.Kind), f.Step, f.Reason, f.OccurredAt,
		)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

// FindByKeyword returns the newest failures recorded for keyword.
func (r *CrawlFailureRepoImpl) FindByKeyword(ctx context.Context, keyword string, limit int) ([]entity.Failure, error) {
	rows, err := r.db.Query(ctx, `
		SELECT keyword, link, kind, step, reason, occurred_at
		FROM crawl_failures
		WHERE keyword = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2`,
		keyword, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []entity.Failure
	for rows.Next() {
		var f entity.Failure
		var kind string
		if err := rows.Scan(&f.Keyword, &f.Link, &kind, &f.Step, &f.Reason, &f.OccurredAt); err != nil {
			return nil, err
		}
		f.Kind = entity.FailureKind(kind)
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
