package response

import (
	"time"

	"github.com/user/rental-crawler/internal/entity"
)

type SubmitJobsResponse struct {
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	Accepted []string `json:"accepted"`
	Skipped  []string `json:"skipped"`
}

// CrawlStatusResponse is a DTO for a keyword's crawl status, mirroring entity.CrawlStatus.
type CrawlStatusResponse struct {
	Keyword            string     `json:"keyword"`
	CurrentStatus      string     `json:"current_status"` // "pending", "completed"
	LastCrawlTimestamp *time.Time `json:"last_crawl_timestamp,omitempty"`
	RecordCount        int        `json:"record_count"`
	FailureCount       int        `json:"failure_count"`
	AverageRate        float64    `json:"average_rate"`
}

func NewCrawlStatusResponse(s *entity.CrawlStatus) CrawlStatusResponse {
	return CrawlStatusResponse{
		Keyword:            s.Keyword,
		CurrentStatus:      s.CurrentStatus,
		LastCrawlTimestamp: s.LastCrawlTimestamp,
		RecordCount:        s.RecordCount,
		FailureCount:       s.FailureCount,
		AverageRate:        s.AverageRate,
	}
}

type RecordsResponse struct {
	Keyword string                 `json:"keyword"`
	Count   int                    `json:"count"`
	Records []entity.ListingRecord `json:"records"`
}

type FailuresResponse struct {
	Keyword  string           `json:"keyword"`
	Failures []entity.Failure `json:"failures"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}
