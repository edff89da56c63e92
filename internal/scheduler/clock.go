package scheduler

import "time"

// DateLayout is the civil date format used in errors and payloads.
const DateLayout = "2006-01-02"

// Clock supplies the current time and the location calendar days are evaluated in.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// ZonedClock reads the system clock in a fixed location.
type ZonedClock struct {
	loc *time.Location
}

// NewZonedClock returns a clock for loc; nil means UTC.
func NewZonedClock(loc *time.Location) ZonedClock {
	if loc == nil {
		loc = time.UTC
	}
	return ZonedClock{loc: loc}
}

func (c ZonedClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c ZonedClock) Location() *time.Location { return c.loc }

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

func (c FixedClock) Location() *time.Location { return c.At.Location() }

// CivilDate formats t as a calendar day in loc.
func CivilDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}
