package crawl

import (
	"context"
	"time"
)

// Timing holds the bounded wait and the fixed settle delays between UI actions.
type Timing struct {
	WaitTimeout    time.Duration
	ClickSettle    time.Duration
	PageSettle     time.Duration
	SectionSettle  time.Duration
	DetailSettle   time.Duration
	MonthSettle    time.Duration
	TabCloseSettle time.Duration
}

// DefaultTiming mirrors the pace the target site tolerates.
func DefaultTiming() Timing {
	return Timing{
		WaitTimeout:    10 * time.Second,
		ClickSettle:    500 * time.Millisecond,
		PageSettle:     2 * time.Second,
		SectionSettle:  3 * time.Second,
		DetailSettle:   time.Second,
		MonthSettle:    time.Second,
		TabCloseSettle: 500 * time.Millisecond,
	}
}

// bounded runs fn under the wait timeout. A zero timeout leaves ctx untouched.
func (t Timing) bounded(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.WaitTimeout <= 0 {
		return fn(ctx)
	}
	waitCtx, cancel := context.WithTimeout(ctx, t.WaitTimeout)
	defer cancel()
	return fn(waitCtx)
}

// settle pauses for d unless ctx ends first.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
