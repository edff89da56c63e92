package scheduler

import (
	"errors"
	"fmt"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

var (
	// ErrInvalidCapacity is returned when a room with a non-positive capacity is offered.
	ErrInvalidCapacity = errors.New("room capacity must be positive")
	// ErrWindowTooLong is returned when one window cannot fit between the daily bounds.
	ErrWindowTooLong = errors.New("exam duration does not fit between daily bounds")
	// ErrExamAlreadyAttached is returned when a slot already carries an exam.
	ErrExamAlreadyAttached = errors.New("exam slot already has an exam attached")
	// ErrExamTypeMismatch is returned when the exam type differs from the slot's exam type.
	ErrExamTypeMismatch = errors.New("exam type does not match exam slot")
	// ErrSlotClosed is returned for any status request against a closed slot.
	ErrSlotClosed = errors.New("exam slot is closed")
)

// CapacityExceededError reports that the offered rooms cannot seat the roster.
type CapacityExceededError struct {
	Required  int `json:"required"`
	Available int `json:"available"`
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("insufficient room capacity: %d students, %d seats", e.Required, e.Available)
}

// ResourceKind names what a booking interval is keyed by.
type ResourceKind string

const (
	ResourceRoom    ResourceKind = "ROOM"
	ResourceTeacher ResourceKind = "TEACHER"
)

// ConflictError reports a double booking of one resource.
type ConflictError struct {
	Kind       ResourceKind `json:"kind"`
	ResourceID string       `json:"resourceId"`
	Requested  Interval     `json:"requested"`
	Existing   Interval     `json:"existing"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s is booked %s, overlapping %s",
		e.Kind, e.ResourceID, e.Existing, e.Requested)
}

// DateMismatchError is returned when a slot is opened outside its exam date.
type DateMismatchError struct {
	Scheduled string `json:"scheduled"`
	Today     string `json:"today"`
}

func (e *DateMismatchError) Error() string {
	return fmt.Sprintf("exam slot is scheduled for %s but today is %s", e.Scheduled, e.Today)
}

// EligibilityError is returned when a teacher may not take a duty.
type EligibilityError struct {
	TeacherID string                 `json:"teacherId"`
	SubjectID string                 `json:"subjectId"`
	Role      models.TeacherDutyRole `json:"role"`
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("teacher %s is not eligible as %s for subject %s", e.TeacherID, e.Role, e.SubjectID)
}

// TransitionError is returned for a status change the lifecycle does not allow.
type TransitionError struct {
	From models.ExamSlotStatus `json:"from"`
	To   models.ExamSlotStatus `json:"to"`
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move exam slot from %s to %s", e.From, e.To)
}
