package repository

import (
	"context"
	"time"
)

// RecentKeywordRepository remembers keywords crawled recently so they are not queued twice.
type RecentKeywordRepository interface {
	// MarkRecent marks a keyword as crawled with a specific expiry time.
	MarkRecent(ctx context.Context, keyword string, expiry time.Duration) error
	// IsRecent checks if a keyword has been queued or crawled within its expiry.
	IsRecent(ctx context.Context, keyword string) (bool, error)
	// RemoveRecent clears the mark, used for forced crawls.
	RemoveRecent(ctx context.Context, keyword string) error
}
