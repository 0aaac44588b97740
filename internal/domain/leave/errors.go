package leave

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid leave input")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("leave request not found")
	ErrTypeNotFound        = errors.New("leave type not found")
	ErrNoWorkingDays       = errors.New("requested range has no working days")
	ErrLockedDate          = errors.New("requested range contains a locked date")
	ErrOverlapsApproved    = errors.New("requested range overlaps approved leave")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrInvalidTransition   = errors.New("invalid leave status transition")
)
