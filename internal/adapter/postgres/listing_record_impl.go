package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/rental-crawler/internal/entity"
)

// ListingRecordRepoImpl stores keyword runs and their listing records in PostgreSQL.
type ListingRecordRepoImpl struct {
	db *pgxpool.Pool
}

func NewListingRecordRepo(db *pgxpool.Pool) *ListingRecordRepoImpl {
	return &ListingRecordRepoImpl{db: db}
}

// SaveRun inserts the run summary and upserts every record of the run in a single transaction.
// Records are keyed by (keyword, link), so a later run replaces earlier rows for the same listing.
func (r *ListingRecordRepoImpl) SaveRun(ctx context.Context, result entity.KeywordResult) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO crawl_runs (keyword, started_at, finished_at, sections, pages, record_count, failure_count, average_rate, stop_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		result.Keyword,
		result.StartedAt,
		result.FinishedAt,
		result.Sections,
		result.Pages,
		len(result.Records),
		len(result.Failures),
		result.AverageRate(),
		result.StopReason,
	).Scan(&runID)
	if err != nil {
		return fmt.Errorf("insert crawl run: %w", err)
	}

	if len(result.Records) > 0 {
		batch := &pgx.Batch{}
		for i, rec := range result.Records {
			occupancyJSON, err := json.Marshal(rec.OccupancyByMonth)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO listing_records (keyword, link, run_id, position, title, address, area, building_type,
					weekly_rent_price, management_price, cleaning_price, thumbnail_url, occupancy, occupancy_rate, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
				ON CONFLICT (keyword, link) DO UPDATE SET
					run_id = EXCLUDED.run_id,
					position = EXCLUDED.position,
					title = EXCLUDED.title,
					address = EXCLUDED.address,
					area = EXCLUDED.area,
					building_type = EXCLUDED.building_type,
					weekly_rent_price = EXCLUDED.weekly_rent_price,
					management_price = EXCLUDED.management_price,
					cleaning_price = EXCLUDED.cleaning_price,
					thumbnail_url = EXCLUDED.thumbnail_url,
					occupancy = EXCLUDED.occupancy,
					occupancy_rate = EXCLUDED.occupancy_rate,
					updated_at = NOW()`,
				result.Keyword, rec.Link, runID, i+1,
				rec.Title, rec.Address, rec.Area, rec.BuildingType,
				rec.WeeklyRentPrice, rec.ManagementPrice, rec.CleaningPrice,
				rec.ThumbnailURL, occupancyJSON, rec.OccupancyRate,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert listing records: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// FindByKeyword returns the records stored for keyword, latest run first, in scrape order.
func (r *ListingRecordRepoImpl) FindByKeyword(ctx context.Context, keyword string) ([]entity.ListingRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT link, title, address, area, building_type, weekly_rent_price, management_price, cleaning_price,
			thumbnail_url, occupancy, occupancy_rate
		FROM listing_records
		WHERE keyword = $1
		ORDER BY run_id DESC, position ASC`,
		keyword,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []entity.ListingRecord
	for rows.Next() {
		var rec entity.ListingRecord
		var occupancyJSON []byte
		if err := rows.Scan(
			&rec.Link,
			&rec.Title,
			&rec.Address,
			&rec.Area,
			&rec.BuildingType,
			&rec.WeeklyRentPrice,
			&rec.ManagementPrice,
			&rec.CleaningPrice,
			&rec.ThumbnailURL,
			&occupancyJSON,
			&rec.OccupancyRate,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(occupancyJSON, &rec.OccupancyByMonth); err != nil {
			return nil, fmt.Errorf("decode occupancy of %s: %w", rec.Link, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LastRun returns the most recent run summary for keyword, or nil when it was never crawled.
func (r *ListingRecordRepoImpl) LastRun(ctx context.Context, keyword string) (*entity.CrawlStatus, error) {
	var (
		status   entity.CrawlStatus
		finished time.Time
	)
	err := r.db.QueryRow(ctx, `
		SELECT keyword, finished_at, record_count, failure_count, average_rate
		FROM crawl_runs
		WHERE keyword = $1
		ORDER BY finished_at DESC
		LIMIT 1`,
		keyword,
	).Scan(&status.Keyword, &finished, &status.RecordCount, &status.FailureCount, &status.AverageRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	status.CurrentStatus = entity.StatusCompleted
	status.LastCrawlTimestamp = &finished
	return &status, nil
}
