package leave

import (
	"context"
	"strings"
	"time"

	"hrcore/internal/domain/auth"
)

type Service struct {
	store           StoreAPI
	defaultPageSize int
	maxPageSize     int
}

type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

func NewService(store StoreAPI, opts Options) *Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	return &Service{store: store, defaultPageSize: opts.DefaultPageSize, maxPageSize: opts.MaxPageSize}
}

func (s *Service) ListTypes(ctx context.Context, actor auth.Actor, includeInactive bool) ([]LeaveType, error) {
	if !actor.Can(auth.CapLeaveRead) {
		return nil, ErrForbidden
	}
	return s.store.ListTypes(ctx, includeInactive)
}

func (s *Service) CreateType(ctx context.Context, actor auth.Actor, input TypeInput) (LeaveType, error) {
	if !actor.Can(auth.CapLeaveTypesManage) {
		return LeaveType{}, ErrForbidden
	}
	if strings.TrimSpace(input.Name) == "" || input.AnnualEntitlementDays < 0 {
		return LeaveType{}, ErrInvalidInput
	}
	input.Name = strings.TrimSpace(input.Name)
	return s.store.CreateType(ctx, input)
}

func (s *Service) UpdateType(ctx context.Context, actor auth.Actor, leaveTypeID string, input TypeInput) (LeaveType, error) {
	if !actor.Can(auth.CapLeaveTypesManage) {
		return LeaveType{}, ErrForbidden
	}
	if leaveTypeID == "" || strings.TrimSpace(input.Name) == "" || input.AnnualEntitlementDays < 0 {
		return LeaveType{}, ErrInvalidInput
	}
	input.Name = strings.TrimSpace(input.Name)
	return s.store.UpdateType(ctx, leaveTypeID, input)
}

// DeactivateType is a soft, irreversible retirement. History referencing the
// type stays resolvable; a replacement type is the supported path forward.
func (s *Service) DeactivateType(ctx context.Context, actor auth.Actor, leaveTypeID string) error {
	if !actor.Can(auth.CapLeaveTypesManage) {
		return ErrForbidden
	}
	if leaveTypeID == "" {
		return ErrInvalidInput
	}
	return s.store.DeactivateType(ctx, leaveTypeID)
}

func (s *Service) LockDate(ctx context.Context, actor auth.Actor, input LockDateInput) (LockedDate, error) {
	if !actor.Can(auth.CapLeaveDatesLock) {
		return LockedDate{}, ErrForbidden
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(input.Date))
	if err != nil {
		return LockedDate{}, ErrInvalidInput
	}
	return s.store.LockDate(ctx, day, strings.TrimSpace(input.Reason), actor.UserID)
}

func (s *Service) UnlockDate(ctx context.Context, actor auth.Actor, date string) error {
	if !actor.Can(auth.CapLeaveDatesLock) {
		return ErrForbidden
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return ErrInvalidInput
	}
	return s.store.UnlockDate(ctx, day)
}

func (s *Service) ListLockedDates(ctx context.Context, actor auth.Actor, year int) ([]LockedDate, error) {
	if !actor.Can(auth.CapLeaveRead) {
		return nil, ErrForbidden
	}
	if year < 2000 {
		return nil, ErrInvalidInput
	}
	return s.store.ListLockedDates(ctx, year)
}

// Apply validates the full request window before any write. Validation order
// is fixed: type, working days, overlap, locked dates, balance.
func (s *Service) Apply(ctx context.Context, actor auth.Actor, input ApplyInput) (LeaveRequest, error) {
	employeeID, err := s.resolveTargetEmployee(actor, input.EmployeeID)
	if err != nil {
		return LeaveRequest{}, err
	}

	leaveType, startDate, endDate, workingDays, workingDates, err := s.validateWindow(ctx, input, employeeID, "")
	if err != nil {
		return LeaveRequest{}, err
	}

	if err := s.checkLockedDates(ctx, actor, workingDates); err != nil {
		return LeaveRequest{}, err
	}

	if leaveType.CountsTowardEntitlement {
		if err := s.checkBalance(ctx, employeeID, leaveType.ID, startDate.Year(), workingDays); err != nil {
			return LeaveRequest{}, err
		}
	}

	return s.store.CreateRequest(ctx, NewRequest{
		EmployeeID:  employeeID,
		LeaveTypeID: leaveType.ID,
		StartDate:   startDate,
		EndDate:     endDate,
		WorkingDays: workingDays,
		RequestedBy: actor.UserID,
		Comment:     input.Comment,
	})
}

func (s *Service) Approve(ctx context.Context, actor auth.Actor, requestID, comment string) (LeaveRequest, error) {
	if !actor.Can(auth.CapLeaveDecide) {
		return LeaveRequest{}, ErrForbidden
	}
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if request.Status != StatusPending {
		return LeaveRequest{}, ErrInvalidTransition
	}

	// The balance may have shrunk since apply time; approval re-validates it.
	leaveType, err := s.store.GetType(ctx, request.LeaveTypeID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if leaveType.CountsTowardEntitlement {
		pending, approved, err := s.store.UsedDays(ctx, request.EmployeeID, request.LeaveTypeID, request.StartDate.Year())
		if err != nil {
			return LeaveRequest{}, err
		}
		total, reserved, err := s.store.Entitlement(ctx, request.EmployeeID, request.LeaveTypeID, request.StartDate.Year())
		if err != nil {
			return LeaveRequest{}, err
		}
		// This request is part of pending; approving moves it, not adds it.
		if AvailableBalance(total, reserved, pending-request.WorkingDays, approved) < request.WorkingDays {
			return LeaveRequest{}, ErrInsufficientBalance
		}
	}

	return s.store.TransitionRequest(ctx, requestID, StatusApproved, []string{StatusPending}, actor.UserID, comment)
}

func (s *Service) Reject(ctx context.Context, actor auth.Actor, requestID, comment string) (LeaveRequest, error) {
	if !actor.Can(auth.CapLeaveDecide) {
		return LeaveRequest{}, ErrForbidden
	}
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if request.Status != StatusPending {
		return LeaveRequest{}, ErrInvalidTransition
	}
	return s.store.TransitionRequest(ctx, requestID, StatusRejected, []string{StatusPending}, actor.UserID, comment)
}

// Cancel is owner-initiated from Pending; cancelling Approved leave is a
// manager action.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, requestID, comment string) (LeaveRequest, error) {
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}

	switch request.Status {
	case StatusPending:
		if !actor.Can(auth.CapLeaveCancelAny) && actor.EmployeeID != request.EmployeeID {
			return LeaveRequest{}, ErrForbidden
		}
	case StatusApproved:
		if !actor.Can(auth.CapLeaveCancelAny) {
			return LeaveRequest{}, ErrForbidden
		}
	default:
		return LeaveRequest{}, ErrInvalidTransition
	}

	// Owners may only leave Pending. The transition re-checks the status under
	// the row lock, so an approval landing after the read above turns an owner
	// cancel into ErrInvalidTransition instead of cancelling approved leave.
	allowedFrom := []string{StatusPending}
	if actor.Can(auth.CapLeaveCancelAny) {
		allowedFrom = append(allowedFrom, StatusApproved)
	}
	return s.store.TransitionRequest(ctx, requestID, StatusCancelled, allowedFrom, actor.UserID, comment)
}

// ConvertAbsenceToLeave reclassifies a single unexcused day as leave. It is
// the same path as Apply with a one-day window.
func (s *Service) ConvertAbsenceToLeave(ctx context.Context, actor auth.Actor, employeeID, absenceDate, leaveTypeID string) (LeaveRequest, error) {
	if !actor.Can(auth.CapLeaveApplyOthers) {
		return LeaveRequest{}, ErrForbidden
	}
	if employeeID == "" {
		return LeaveRequest{}, ErrInvalidInput
	}
	return s.Apply(ctx, actor, ApplyInput{
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		StartDate:   absenceDate,
		EndDate:     absenceDate,
		Comment:     "absence conversion",
	})
}

// MasterUpdate rewrites a request window outside the normal lifecycle. It
// revalidates everything Apply would, excluding the request itself from the
// overlap check.
func (s *Service) MasterUpdate(ctx context.Context, actor auth.Actor, requestID string, input ApplyInput) (LeaveRequest, error) {
	if !actor.Can(auth.CapLeaveMasterUpdate) {
		return LeaveRequest{}, ErrForbidden
	}
	if requestID == "" || input.EmployeeID == "" {
		return LeaveRequest{}, ErrInvalidInput
	}

	leaveType, startDate, endDate, workingDays, workingDates, err := s.validateWindow(ctx, input, input.EmployeeID, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if err := s.checkLockedDates(ctx, actor, workingDates); err != nil {
		return LeaveRequest{}, err
	}
	if leaveType.CountsTowardEntitlement {
		if err := s.checkBalance(ctx, input.EmployeeID, leaveType.ID, startDate.Year(), workingDays); err != nil {
			return LeaveRequest{}, err
		}
	}

	return s.store.MasterUpdateRequest(ctx, requestID, RequestUpdate{
		EmployeeID:  input.EmployeeID,
		LeaveTypeID: leaveType.ID,
		StartDate:   startDate,
		EndDate:     endDate,
		WorkingDays: workingDays,
		Comment:     input.Comment,
	})
}

// MasterDelete removes the record entirely, bypassing the state machine.
// Callers are expected to write an audit event alongside.
func (s *Service) MasterDelete(ctx context.Context, actor auth.Actor, requestID string) error {
	if !actor.Can(auth.CapLeaveHardDelete) {
		return ErrForbidden
	}
	if requestID == "" {
		return ErrInvalidInput
	}
	return s.store.DeleteRequest(ctx, requestID)
}

// GetRequest returns one request under the same visibility rule as listing:
// employees see their own, managers see everything.
func (s *Service) GetRequest(ctx context.Context, actor auth.Actor, requestID string) (LeaveRequest, error) {
	if !actor.Can(auth.CapLeaveRead) {
		return LeaveRequest{}, ErrForbidden
	}
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if !actor.Can(auth.CapLeaveBalanceReadAny) && request.EmployeeID != actor.EmployeeID {
		return LeaveRequest{}, ErrForbidden
	}
	return request, nil
}

// Balance computes the derived entitlement consumption for one employee and
// year. Read-only; nothing here may mutate the ledger.
func (s *Service) Balance(ctx context.Context, actor auth.Actor, employeeID string, year int) (BalanceSummary, error) {
	if employeeID == "" || year < 2000 {
		return BalanceSummary{}, ErrInvalidInput
	}
	if !actor.Can(auth.CapLeaveBalanceReadAny) && actor.EmployeeID != employeeID {
		return BalanceSummary{}, ErrForbidden
	}

	types, err := s.store.ListTypes(ctx, true)
	if err != nil {
		return BalanceSummary{}, err
	}

	summary := BalanceSummary{EmployeeID: employeeID, Year: year}
	for _, leaveType := range types {
		pending, approved, err := s.store.UsedDays(ctx, employeeID, leaveType.ID, year)
		if err != nil {
			return BalanceSummary{}, err
		}
		// Deactivated types stay visible only while history references them.
		if !leaveType.IsActive && pending == 0 && approved == 0 {
			continue
		}
		total, reserved, err := s.store.Entitlement(ctx, employeeID, leaveType.ID, year)
		if err != nil {
			return BalanceSummary{}, err
		}
		summary.Items = append(summary.Items, Balance{
			LeaveTypeID: leaveType.ID,
			TypeName:    leaveType.Name,
			Total:       total,
			Reserved:    reserved,
			Pending:     pending,
			Approved:    approved,
			Available:   AvailableBalance(total, reserved, pending, approved),
			UsedPercent: UsedPercent(total, pending, approved),
		})
	}
	return summary, nil
}

func (s *Service) ListRequests(ctx context.Context, actor auth.Actor, filter RequestFilter) (RequestList, error) {
	if !actor.Can(auth.CapLeaveRead) {
		return RequestList{}, ErrForbidden
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.defaultPageSize
	}
	if filter.PageSize > s.maxPageSize {
		filter.PageSize = s.maxPageSize
	}

	if !actor.Can(auth.CapLeaveBalanceReadAny) {
		if actor.EmployeeID == "" {
			return RequestList{}, ErrForbidden
		}
		filter.EmployeeID = actor.EmployeeID
	}
	return s.store.ListRequests(ctx, filter)
}

func (s *Service) resolveTargetEmployee(actor auth.Actor, requestedEmployeeID string) (string, error) {
	if requestedEmployeeID != "" && requestedEmployeeID != actor.EmployeeID {
		if !actor.Can(auth.CapLeaveApplyOthers) {
			return "", ErrForbidden
		}
		return requestedEmployeeID, nil
	}
	if !actor.Can(auth.CapLeaveApply) {
		return "", ErrForbidden
	}
	if actor.EmployeeID == "" {
		return "", ErrForbidden
	}
	return actor.EmployeeID, nil
}

func (s *Service) validateWindow(ctx context.Context, input ApplyInput, employeeID, excludeRequestID string) (LeaveType, time.Time, time.Time, int, []time.Time, error) {
	fail := func(err error) (LeaveType, time.Time, time.Time, int, []time.Time, error) {
		return LeaveType{}, time.Time{}, time.Time{}, 0, nil, err
	}

	if input.LeaveTypeID == "" {
		return fail(ErrInvalidInput)
	}
	startDate, err := time.Parse("2006-01-02", strings.TrimSpace(input.StartDate))
	if err != nil {
		return fail(ErrInvalidInput)
	}
	endDate, err := time.Parse("2006-01-02", strings.TrimSpace(input.EndDate))
	if err != nil {
		return fail(ErrInvalidInput)
	}
	if endDate.Before(startDate) {
		return fail(ErrInvalidInput)
	}

	leaveType, err := s.store.GetType(ctx, input.LeaveTypeID)
	if err != nil {
		return fail(err)
	}
	if !leaveType.IsActive {
		return fail(ErrTypeNotFound)
	}

	workingDays, workingDates := WorkingDays(startDate, endDate)
	if workingDays <= 0 {
		return fail(ErrNoWorkingDays)
	}

	overlaps, err := s.store.CountApprovedOverlap(ctx, employeeID, startDate, endDate, excludeRequestID)
	if err != nil {
		return fail(err)
	}
	if overlaps > 0 {
		return fail(ErrOverlapsApproved)
	}

	return leaveType, startDate, endDate, workingDays, workingDates, nil
}

func (s *Service) checkLockedDates(ctx context.Context, actor auth.Actor, workingDates []time.Time) error {
	if actor.Can(auth.CapLeaveLockOverride) {
		return nil
	}
	locked, err := s.store.AnyLockedDate(ctx, workingDates)
	if err != nil {
		return err
	}
	if locked {
		return ErrLockedDate
	}
	return nil
}

func (s *Service) checkBalance(ctx context.Context, employeeID, leaveTypeID string, year, requestedDays int) error {
	total, reserved, err := s.store.Entitlement(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		return err
	}
	pending, approved, err := s.store.UsedDays(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		return err
	}
	if requestedDays > AvailableBalance(total, reserved, pending, approved) {
		return ErrInsufficientBalance
	}
	return nil
}
