package service

import (
	"errors"

	"github.com/noah-isme/exam-slot-api/internal/scheduler"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

// mapSchedulerError translates engine errors into API errors. Unknown errors pass through.
func mapSchedulerError(err error) error {
	if err == nil {
		return nil
	}

	var capErr *scheduler.CapacityExceededError
	var conflictErr *scheduler.ConflictError
	var dateErr *scheduler.DateMismatchError
	var transErr *scheduler.TransitionError
	var eligErr *scheduler.EligibilityError

	switch {
	case errors.As(err, &capErr):
		return appErrors.WithDetails(appErrors.ErrCapacityExceeded, capErr.Error(), capErr)
	case errors.As(err, &conflictErr):
		return appErrors.WithDetails(appErrors.ErrConflict, conflictErr.Error(), []*scheduler.ConflictError{conflictErr})
	case errors.As(err, &dateErr):
		return appErrors.WithDetails(appErrors.ErrDateMismatch, dateErr.Error(), dateErr)
	case errors.As(err, &transErr):
		return appErrors.WithDetails(appErrors.ErrInvalidTransition, transErr.Error(), transErr)
	case errors.Is(err, scheduler.ErrSlotClosed):
		return appErrors.Clone(appErrors.ErrInvalidTransition, err.Error())
	case errors.Is(err, scheduler.ErrExamAlreadyAttached):
		return appErrors.Clone(appErrors.ErrInvalidTransition, err.Error())
	case errors.As(err, &eligErr):
		return appErrors.WithDetails(appErrors.ErrAssignmentRejected, eligErr.Error(), eligErr)
	case errors.Is(err, scheduler.ErrExamTypeMismatch),
		errors.Is(err, scheduler.ErrWindowTooLong),
		errors.Is(err, scheduler.ErrInvalidCapacity):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return err
}
