package crawl

import (
	"errors"
	"fmt"
	"time"

	"github.com/user/rental-crawler/internal/entity"
)

// NavigationError means a pagination or section control was absent or never became
// clickable. It ends the walk for the current keyword.
type NavigationError struct {
	Step    string
	Section int
	Page    int
	Control string
	Err     error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation %s at section %d page %d (%s): %v", e.Step, e.Section, e.Page, e.Control, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ExtractionError means a listing's detail view lacked a required element.
// It aborts only that listing.
type ExtractionError struct {
	Step  string
	Link  string
	Field Field
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("extract %s of %s: field %s: %v", e.Step, e.Link, e.Field, e.Err)
	}
	return fmt.Sprintf("extract %s of %s: %v", e.Step, e.Link, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// CalendarError means the calendar walk stopped early; the months already counted stay valid.
type CalendarError struct {
	Step  string
	Month time.Month
	Err   error
}

func (e *CalendarError) Error() string {
	return fmt.Sprintf("calendar %s at %s: %v", e.Step, e.Month, e.Err)
}

func (e *CalendarError) Unwrap() error { return e.Err }

// SessionError means the search for a keyword could not be started. The keyword is abandoned.
type SessionError struct {
	Step    string
	Keyword string
	Err     error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s for %q: %v", e.Step, e.Keyword, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// failureFrom turns an error of the taxonomy into a failure report entry.
func failureFrom(keyword, link string, err error, at time.Time) entity.Failure {
	f := entity.Failure{
		Kind:       entity.FailureUnexpected,
		Keyword:    keyword,
		Link:       link,
		Step:       "unknown",
		Reason:     err.Error(),
		OccurredAt: at,
	}
	var (
		navErr *NavigationError
		extErr *ExtractionError
		calErr *CalendarError
		sesErr *SessionError
	)
	switch {
	case errors.As(err, &navErr):
		f.Kind, f.Step = entity.FailureNavigation, navErr.Step
	case errors.As(err, &extErr):
		f.Kind, f.Step = entity.FailureExtraction, extErr.Step
		if extErr.Field != "" {
			f.Step = extErr.Step + ":" + string(extErr.Field)
		}
	case errors.As(err, &calErr):
		f.Kind, f.Step = entity.FailureCalendar, calErr.Step
	case errors.As(err, &sesErr):
		f.Kind, f.Step = entity.FailureSession, sesErr.Step
	}
	return f
}
