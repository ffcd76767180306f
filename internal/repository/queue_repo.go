package repository

import "context"

// JobQueueRepository is a FIFO queue of keywords waiting to be crawled.
type JobQueueRepository interface {
	// Push adds a keyword to the end of the queue.
	Push(ctx context.Context, keyword string) error
	// Pop removes and returns the keyword at the front of the queue.
	// It returns ErrQueueEmpty when there is nothing to do.
	Pop(ctx context.Context) (string, error)
	// Size returns the current number of queued keywords.
	Size(ctx context.Context) (int64, error)
}
