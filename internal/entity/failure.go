package entity

import "time"

// FailureKind classifies why a step of a keyword run did not produce data.
type FailureKind string

const (
	FailureNavigation FailureKind = "navigation"
	FailureExtraction FailureKind = "extraction"
	FailureCalendar   FailureKind = "calendar"
	FailureSession    FailureKind = "session"
	FailureUnexpected FailureKind = "unexpected"
)

// Failure is one entry of a keyword's failure report.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	Keyword    string      `json:"keyword"`
	Link       string      `json:"link,omitempty"`
	Step       string      `json:"step"`
	Reason     string      `json:"reason"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// KeywordResult is everything one keyword run produced: the ordered records and the failure report.
type KeywordResult struct {
	Keyword    string
	Records    []ListingRecord
	Failures   []Failure
	Sections   int
	Pages      int
	// StopReason explains why traversal ended before the bounds, if it did.
	StopReason string
	StartedAt  time.Time
	FinishedAt time.Time
}

// AverageRate is the mean of the per-record occupancy rates, 0 without records.
func (r KeywordResult) AverageRate() float64 {
	if len(r.Records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range r.Records {
		sum += rec.OccupancyRate
	}
	return sum / float64(len(r.Records))
}
