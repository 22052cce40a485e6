package dates

import (
	"fmt"
	"time"
)

// Clock supplies "today" so that business logic never reads the wall clock directly
type Clock interface {
	Today() string
}

type zoneClock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock that reports the current day in loc
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &zoneClock{loc: loc, now: time.Now}
}

// NewClockForZone loads the named IANA zone and returns a clock for it
func NewClockForZone(name string) (Clock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return NewClock(loc), nil
}

func (c *zoneClock) Today() string {
	return Format(c.now().In(c.loc))
}

// FixedClock always reports the same day
type FixedClock string

// Today returns the fixed day
func (f FixedClock) Today() string {
	return string(f)
}
