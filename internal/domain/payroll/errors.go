package payroll

import "errors"

var (
	ErrForbidden         = errors.New("operation not permitted for role")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidMonth      = errors.New("month must be formatted YYYY-MM")
	ErrBatchExists       = errors.New("a payroll batch already exists for this month")
	ErrBatchNotFound     = errors.New("payroll batch not found")
	ErrEntryNotFound     = errors.New("payroll entry not found")
	ErrBatchNotEditable  = errors.New("payroll batch is no longer editable")
	ErrBatchNotReady     = errors.New("payroll batch is not approved yet")
	ErrInvalidAmount     = errors.New("amount must be a finite non-negative number")
	ErrInvalidTransition = errors.New("invalid payroll batch transition")
)
