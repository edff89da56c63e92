package scheduler

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals share any instant.
// Intervals that only touch at an endpoint do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Valid reports whether the interval has a positive length.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// Booking is an occupied interval of a room or teacher.
type Booking struct {
	ResourceID string
	Interval   Interval
	// Ref identifies the row the booking was derived from.
	Ref string
}

// Available reports whether candidate is free of all existing bookings.
func Available(candidate Interval, existing []Booking) bool {
	_, conflict := FirstConflict(candidate, existing)
	return !conflict
}

// FirstConflict returns the first booking overlapping candidate.
func FirstConflict(candidate Interval, existing []Booking) (Booking, bool) {
	for _, b := range existing {
		if candidate.Overlaps(b.Interval) {
			return b, true
		}
	}
	return Booking{}, false
}

// BookingIndex groups bookings by resource id.
type BookingIndex map[string][]Booking

// Add records a booking.
func (idx BookingIndex) Add(b Booking) {
	idx[b.ResourceID] = append(idx[b.ResourceID], b)
}

// Available reports whether the resource is free during candidate.
func (idx BookingIndex) Available(resourceID string, candidate Interval) bool {
	return Available(candidate, idx[resourceID])
}

// Conflict returns a ConflictError when the resource is busy during candidate.
func (idx BookingIndex) Conflict(kind ResourceKind, resourceID string, candidate Interval) *ConflictError {
	existing, found := FirstConflict(candidate, idx[resourceID])
	if !found {
		return nil
	}
	return &ConflictError{Kind: kind, ResourceID: resourceID, Requested: candidate, Existing: existing.Interval}
}
