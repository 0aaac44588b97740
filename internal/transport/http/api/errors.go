package api

import (
	"errors"
	"log/slog"
	"net/http"

	"hrcore/internal/domain/directory"
	"hrcore/internal/domain/leave"
	"hrcore/internal/domain/payroll"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Domain sentinels map to stable wire codes exactly once, here. Handlers pass
// errors through untouched.
var errorMappings = []errorMapping{
	{leave.ErrForbidden, http.StatusForbidden, "forbidden"},
	{payroll.ErrForbidden, http.StatusForbidden, "forbidden"},
	{leave.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{payroll.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{leave.ErrNotFound, http.StatusNotFound, "not_found"},
	{leave.ErrTypeNotFound, http.StatusNotFound, "invalid_leave_type"},
	{payroll.ErrBatchNotFound, http.StatusNotFound, "batch_not_found"},
	{payroll.ErrEntryNotFound, http.StatusNotFound, "entry_not_found"},
	{directory.ErrEmployeeNotFound, http.StatusNotFound, "employee_not_found"},
	{leave.ErrNoWorkingDays, http.StatusBadRequest, "empty_range"},
	{leave.ErrLockedDate, http.StatusConflict, "date_locked"},
	{leave.ErrOverlapsApproved, http.StatusConflict, "overlaps_approved"},
	{leave.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{leave.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{payroll.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{payroll.ErrBatchExists, http.StatusConflict, "batch_exists"},
	{payroll.ErrBatchNotEditable, http.StatusConflict, "batch_not_editable"},
	{payroll.ErrBatchNotReady, http.StatusConflict, "batch_not_ready"},
	{payroll.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{payroll.ErrInvalidMonth, http.StatusBadRequest, "invalid_month"},
}

func FailDomain(w http.ResponseWriter, err error, requestID string) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.err) {
			Fail(w, mapping.status, mapping.code, mapping.err.Error(), requestID)
			return
		}
	}
	slog.Error("unmapped domain error", "err", err, "requestId", requestID)
	Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
}
