package repository

import "errors"

var (
	// ErrElementNotFound is returned when a selector matches nothing in the page.
	ErrElementNotFound = errors.New("element not found")
	// ErrWaitTimeout is returned when a bounded wait ends before its condition holds.
	ErrWaitTimeout = errors.New("wait timed out")
)

// ErrQueueEmpty is returned by JobQueueRepository.Pop when the queue has no items.
var ErrQueueEmpty = errors.New("job queue is empty")
