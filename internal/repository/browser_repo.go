package repository

import (
	"context"
	"time"
)

// Page is one browsing context. Waits are bounded by the deadline of ctx.
type Page interface {
	// Navigate loads url in this context.
	Navigate(ctx context.Context, url string) error
	// WaitPresent blocks until selector matches an element in the DOM.
	WaitPresent(ctx context.Context, selector string) error
	// WaitClickable blocks until selector matches a visible, enabled element.
	WaitClickable(ctx context.Context, selector string) error
	// WaitDocumentReady blocks until document.readyState is "complete".
	WaitDocumentReady(ctx context.Context) error
	// Click performs a plain click on the first match of selector.
	Click(ctx context.Context, selector string) error
	// MoveAndClick moves the pointer onto the first match of selector and clicks it.
	MoveAndClick(ctx context.Context, selector string) error
	// ScrollIntoView scrolls the first match of selector into the viewport.
	ScrollIntoView(ctx context.Context, selector string) error
	// Type clears the first match of selector and types text into it.
	Type(ctx context.Context, selector, text string) error
	// HTML returns a snapshot of the current document.
	HTML(ctx context.Context) (string, error)
	// Location returns the current document URL.
	Location(ctx context.Context) (string, error)
}

// Tab is a transient browsing context opened next to the main one.
type Tab interface {
	Page
	// Close releases the tab. The main context keeps focus afterwards.
	Close() error
}

// Browser is the single automation session: its own Page is the persistent results view.
type Browser interface {
	Page
	// OpenTab opens url in a new isolated context.
	OpenTab(ctx context.Context, url string) (Tab, error)
}

// Clock supplies the current time used for calendar month arithmetic.
type Clock interface {
	Now(ctx context.Context) time.Time
}
