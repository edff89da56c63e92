package scheduler

import (
	"fmt"
	"time"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// SlotState is the part of an exam slot the lifecycle decides on.
type SlotState struct {
	Status   models.ExamSlotStatus
	ExamType models.ExamType
	ExamID   *string
	// ExamDate is a calendar date; only its year, month and day are read.
	ExamDate time.Time
}

// Lifecycle governs status transitions of persisted exam slots.
type Lifecycle struct {
	clock Clock
}

// NewLifecycle builds a lifecycle that evaluates "today" with clock.
func NewLifecycle(clock Clock) *Lifecycle {
	if clock == nil {
		clock = NewZonedClock(time.UTC)
	}
	return &Lifecycle{clock: clock}
}

// Today returns the current civil date in the clock's location.
func (l *Lifecycle) Today() string {
	return CivilDate(l.clock.Now(), l.clock.Location())
}

// Location is where calendar days are evaluated.
func (l *Lifecycle) Location() *time.Location {
	return l.clock.Location()
}

// Next returns the status that follows current, if any.
func Next(current models.ExamSlotStatus) (models.ExamSlotStatus, bool) {
	switch current {
	case models.ExamSlotStatusUnassigned:
		return models.ExamSlotStatusUnopened, true
	case models.ExamSlotStatusUnopened:
		return models.ExamSlotStatusOpen, true
	case models.ExamSlotStatusOpen:
		return models.ExamSlotStatusClosed, true
	}
	return 0, false
}

// AttachExam validates attaching an exam of examType and returns the resulting status.
func (l *Lifecycle) AttachExam(slot SlotState, examType models.ExamType) (models.ExamSlotStatus, error) {
	if slot.Status == models.ExamSlotStatusClosed {
		return slot.Status, ErrSlotClosed
	}
	if slot.ExamID != nil && *slot.ExamID != "" {
		return slot.Status, ErrExamAlreadyAttached
	}
	if slot.Status != models.ExamSlotStatusUnassigned {
		return slot.Status, &TransitionError{From: slot.Status, To: models.ExamSlotStatusUnopened}
	}
	if examType != slot.ExamType {
		return slot.Status, fmt.Errorf("%w: slot is %s, exam is %s", ErrExamTypeMismatch, slot.ExamType, examType)
	}
	return models.ExamSlotStatusUnopened, nil
}

// Advance validates a status request of examType against slot and returns the next status.
// Opening is only allowed on the slot's exam date. A failed request never changes state.
func (l *Lifecycle) Advance(slot SlotState, examType models.ExamType) (models.ExamSlotStatus, error) {
	if slot.Status == models.ExamSlotStatusClosed {
		return slot.Status, ErrSlotClosed
	}
	if examType != slot.ExamType {
		return slot.Status, fmt.Errorf("%w: slot is %s, request is %s", ErrExamTypeMismatch, slot.ExamType, examType)
	}
	switch slot.Status {
	case models.ExamSlotStatusUnopened:
		scheduled := slot.ExamDate.Format(DateLayout)
		if today := l.Today(); scheduled != today {
			return slot.Status, &DateMismatchError{Scheduled: scheduled, Today: today}
		}
		return models.ExamSlotStatusOpen, nil
	case models.ExamSlotStatusOpen:
		return models.ExamSlotStatusClosed, nil
	case models.ExamSlotStatusUnassigned:
		return slot.Status, &TransitionError{From: slot.Status, To: models.ExamSlotStatusOpen}
	}
	return slot.Status, fmt.Errorf("unknown exam slot status %s", slot.Status)
}
