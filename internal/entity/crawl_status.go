package entity

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusNotFound  = "not_found"
)

// CrawlStatus describes the latest known state of a keyword job.
type CrawlStatus struct {
	Keyword            string
	CurrentStatus      string
	LastCrawlTimestamp *time.Time
	RecordCount        int
	FailureCount       int
	AverageRate        float64
}
