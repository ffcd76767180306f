package entity

import "fmt"

const (
	DefaultMaxSections     = 100
	DefaultPagesPerSection = 10
	DefaultMonthWindow     = 3
)

// Bounds limits how far the pagination walk may go for one keyword.
type Bounds struct {
	MaxSections     int
	PagesPerSection int
}

// DefaultBounds returns the bounds used when the caller supplies none.
func DefaultBounds() Bounds {
	return Bounds{MaxSections: DefaultMaxSections, PagesPerSection: DefaultPagesPerSection}
}

// Validate reports bounds the walker cannot honor.
func (b Bounds) Validate() error {
	if b.MaxSections < 1 {
		return fmt.Errorf("max sections must be at least 1, got %d", b.MaxSections)
	}
	if b.PagesPerSection < 1 {
		return fmt.Errorf("pages per section must be at least 1, got %d", b.PagesPerSection)
	}
	return nil
}

// CrawlJob is one keyword search with its traversal bounds. It does not change during a run.
type CrawlJob struct {
	Keyword string
	Bounds  Bounds
}
