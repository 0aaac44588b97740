package leave

import (
	"context"
	"time"
)

type NewRequest struct {
	EmployeeID  string
	LeaveTypeID string
	StartDate   time.Time
	EndDate     time.Time
	WorkingDays int
	RequestedBy string
	Comment     string
}

type RequestUpdate struct {
	EmployeeID  string
	LeaveTypeID string
	StartDate   time.Time
	EndDate     time.Time
	WorkingDays int
	Comment     string
}

// StoreAPI is everything the engine needs from persistence. Transition
// methods must serialize concurrent calls on the same request and re-check
// the status precondition under that lock.
type StoreAPI interface {
	ListTypes(ctx context.Context, includeInactive bool) ([]LeaveType, error)
	GetType(ctx context.Context, leaveTypeID string) (LeaveType, error)
	CreateType(ctx context.Context, input TypeInput) (LeaveType, error)
	UpdateType(ctx context.Context, leaveTypeID string, input TypeInput) (LeaveType, error)
	DeactivateType(ctx context.Context, leaveTypeID string) error

	LockDate(ctx context.Context, day time.Time, reason, createdBy string) (LockedDate, error)
	UnlockDate(ctx context.Context, day time.Time) error
	ListLockedDates(ctx context.Context, year int) ([]LockedDate, error)
	AnyLockedDate(ctx context.Context, days []time.Time) (bool, error)

	Entitlement(ctx context.Context, employeeID, leaveTypeID string, year int) (total, reserved int, err error)
	UsedDays(ctx context.Context, employeeID, leaveTypeID string, year int) (pending, approved int, err error)

	CountApprovedOverlap(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeRequestID string) (int, error)
	CreateRequest(ctx context.Context, rec NewRequest) (LeaveRequest, error)
	GetRequest(ctx context.Context, requestID string) (LeaveRequest, error)
	TransitionRequest(ctx context.Context, requestID, toStatus string, allowedFrom []string, actorUserID, comment string) (LeaveRequest, error)
	MasterUpdateRequest(ctx context.Context, requestID string, upd RequestUpdate) (LeaveRequest, error)
	DeleteRequest(ctx context.Context, requestID string) error
	ListRequests(ctx context.Context, filter RequestFilter) (RequestList, error)
}
