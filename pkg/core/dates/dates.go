// Package dates validates the calendar-day labels used throughout worklog.
//
// A day is always the literal string form YYYY-MM-DD. Because the form is fixed
// width, two valid days compare correctly with plain string comparison, which the
// stores and range reports rely on.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Layout is the only accepted day format
const Layout = "2006-01-02"

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	// ErrInvalidDay is returned for anything that is not a real YYYY-MM-DD day
	ErrInvalidDay = errors.New("invalid day")
	// ErrReversedWindow is returned when a window starts after it ends
	ErrReversedWindow = errors.New("window start is after window end")
	// ErrMissingBound is returned when a range is missing one of its ends
	ErrMissingBound = errors.New("range start and end are required")
)

// ParseDay parses a strict YYYY-MM-DD label.
// Shapes like "2024-1-5" and impossible days like "2024-02-30" are rejected.
func ParseDay(s string) (time.Time, error) {
	if !dayPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDay, s)
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return t, nil
}

// ValidateDay reports whether s is a valid day label
func ValidateDay(s string) error {
	_, err := ParseDay(s)
	return err
}

// ValidateWindow checks an optional window. Either end may be nil; when both are
// present the start must not be after the end.
func ValidateWindow(start, end *string) error {
	if start != nil {
		if err := ValidateDay(*start); err != nil {
			return err
		}
	}
	if end != nil {
		if err := ValidateDay(*end); err != nil {
			return err
		}
	}
	if start != nil && end != nil && *start > *end {
		return fmt.Errorf("%w: %s > %s", ErrReversedWindow, *start, *end)
	}
	return nil
}

// ValidateRange checks an inclusive reporting range where both ends are required
func ValidateRange(start, end string) error {
	if start == "" || end == "" {
		return ErrMissingBound
	}
	return ValidateWindow(&start, &end)
}

// Format renders t as a day label
func Format(t time.Time) string {
	return t.Format(Layout)
}
