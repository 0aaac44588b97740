package leave

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"hrcore/internal/domain/auth"
)

type fakeStore struct {
	mu           sync.Mutex
	types        map[string]LeaveType
	locked       map[string]LockedDate
	entitlements map[string][2]int
	requests     map[string]*LeaveRequest
	seq          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types:        map[string]LeaveType{},
		locked:       map[string]LockedDate{},
		entitlements: map[string][2]int{},
		requests:     map[string]*LeaveRequest{},
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) addType(name string, entitlement int, counts, active bool) LeaveType {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := LeaveType{
		ID:                      f.nextID("lt"),
		Name:                    name,
		AnnualEntitlementDays:   entitlement,
		CountsTowardEntitlement: counts,
		IsActive:                active,
		CreatedAt:               time.Now().UTC(),
	}
	f.types[t.ID] = t
	return t
}

func entKey(employeeID, leaveTypeID string, year int) string {
	return fmt.Sprintf("%s|%s|%d", employeeID, leaveTypeID, year)
}

func (f *fakeStore) ListTypes(_ context.Context, includeInactive bool) ([]LeaveType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []LeaveType
	for _, t := range f.types {
		if !includeInactive && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetType(_ context.Context, leaveTypeID string) (LeaveType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.types[leaveTypeID]
	if !ok {
		return LeaveType{}, ErrTypeNotFound
	}
	return t, nil
}

func (f *fakeStore) CreateType(_ context.Context, input TypeInput) (LeaveType, error) {
	t := f.addType(input.Name, input.AnnualEntitlementDays, input.CountsTowardEntitlement, true)
	t.IsPaid = input.IsPaid
	t.RequiresAttachment = input.RequiresAttachment
	t.RequiresApproval = input.RequiresApproval
	f.mu.Lock()
	f.types[t.ID] = t
	f.mu.Unlock()
	return t, nil
}

func (f *fakeStore) UpdateType(_ context.Context, leaveTypeID string, input TypeInput) (LeaveType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.types[leaveTypeID]
	if !ok {
		return LeaveType{}, ErrTypeNotFound
	}
	t.Name = input.Name
	t.AnnualEntitlementDays = input.AnnualEntitlementDays
	t.CountsTowardEntitlement = input.CountsTowardEntitlement
	f.types[leaveTypeID] = t
	return t, nil
}

func (f *fakeStore) DeactivateType(_ context.Context, leaveTypeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.types[leaveTypeID]
	if !ok || !t.IsActive {
		return ErrTypeNotFound
	}
	t.IsActive = false
	f.types[leaveTypeID] = t
	return nil
}

func dayKey(day time.Time) string { return day.Format("2006-01-02") }

func (f *fakeStore) LockDate(_ context.Context, day time.Time, reason, createdBy string) (LockedDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := LockedDate{ID: f.nextID("ld"), Date: Day(day), Reason: reason, CreatedBy: createdBy, CreatedAt: time.Now().UTC()}
	f.locked[dayKey(day)] = d
	return d, nil
}

func (f *fakeStore) UnlockDate(_ context.Context, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.locked[dayKey(day)]; !ok {
		return ErrNotFound
	}
	delete(f.locked, dayKey(day))
	return nil
}

func (f *fakeStore) ListLockedDates(_ context.Context, year int) ([]LockedDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []LockedDate
	for _, d := range f.locked {
		if d.Date.Year() == year {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeStore) AnyLockedDate(_ context.Context, days []time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, day := range days {
		if _, ok := f.locked[dayKey(day)]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Entitlement(_ context.Context, employeeID, leaveTypeID string, year int) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if grant, ok := f.entitlements[entKey(employeeID, leaveTypeID, year)]; ok {
		return grant[0], grant[1], nil
	}
	t, ok := f.types[leaveTypeID]
	if !ok {
		return 0, 0, ErrTypeNotFound
	}
	return t.AnnualEntitlementDays, 0, nil
}

func (f *fakeStore) UsedDays(_ context.Context, employeeID, leaveTypeID string, year int) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending, approved int
	for _, r := range f.requests {
		if r.EmployeeID != employeeID || r.LeaveTypeID != leaveTypeID || r.StartDate.Year() != year {
			continue
		}
		switch r.Status {
		case StatusPending:
			pending += r.WorkingDays
		case StatusApproved:
			approved += r.WorkingDays
		}
	}
	return pending, approved, nil
}

func (f *fakeStore) CountApprovedOverlap(_ context.Context, employeeID string, startDate, endDate time.Time, excludeRequestID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.requests {
		if r.ID == excludeRequestID || r.EmployeeID != employeeID || r.Status != StatusApproved {
			continue
		}
		if !r.StartDate.After(endDate) && !r.EndDate.Before(startDate) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CreateRequest(_ context.Context, rec NewRequest) (LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := LeaveRequest{
		ID:          f.nextID("lr"),
		EmployeeID:  rec.EmployeeID,
		LeaveTypeID: rec.LeaveTypeID,
		StartDate:   rec.StartDate,
		EndDate:     rec.EndDate,
		WorkingDays: rec.WorkingDays,
		Status:      StatusPending,
		RequestedBy: rec.RequestedBy,
		Comment:     rec.Comment,
		CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute),
	}
	f.requests[r.ID] = &r
	copied := r
	return copied, nil
}

func (f *fakeStore) GetRequest(_ context.Context, requestID string) (LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok {
		return LeaveRequest{}, ErrNotFound
	}
	return *r, nil
}

func (f *fakeStore) TransitionRequest(_ context.Context, requestID, toStatus string, allowedFrom []string, actorUserID, comment string) (LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok {
		return LeaveRequest{}, ErrNotFound
	}
	allowed := false
	for _, from := range allowedFrom {
		if r.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return LeaveRequest{}, ErrInvalidTransition
	}
	now := time.Now().UTC()
	r.Status = toStatus
	switch toStatus {
	case StatusApproved:
		r.ApprovedBy, r.ApprovedAt = &actorUserID, &now
	case StatusRejected:
		r.RejectedBy, r.RejectedAt = &actorUserID, &now
	case StatusCancelled:
		r.CancelledBy, r.CancelledAt = &actorUserID, &now
	}
	if comment != "" {
		r.Comment = comment
	}
	return *r, nil
}

func (f *fakeStore) MasterUpdateRequest(_ context.Context, requestID string, upd RequestUpdate) (LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok {
		return LeaveRequest{}, ErrNotFound
	}
	r.EmployeeID = upd.EmployeeID
	r.LeaveTypeID = upd.LeaveTypeID
	r.StartDate = upd.StartDate
	r.EndDate = upd.EndDate
	r.WorkingDays = upd.WorkingDays
	if upd.Comment != "" {
		r.Comment = upd.Comment
	}
	return *r, nil
}

func (f *fakeStore) DeleteRequest(_ context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[requestID]; !ok {
		return ErrNotFound
	}
	delete(f.requests, requestID)
	return nil
}

func (f *fakeStore) ListRequests(_ context.Context, filter RequestFilter) (RequestList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []LeaveRequest
	for _, r := range f.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.EmployeeID != "" && r.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.LeaveTypeID != "" && r.LeaveTypeID != filter.LeaveTypeID {
			continue
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	out := RequestList{Total: len(all), Page: filter.Page, PageSize: filter.PageSize}
	start := (filter.Page - 1) * filter.PageSize
	if start < len(all) {
		end := start + filter.PageSize
		if end > len(all) {
			end = len(all)
		}
		out.Items = all[start:end]
	}
	return out, nil
}

var (
	employee = auth.Actor{UserID: "u-emp", EmployeeID: "e-1", Role: auth.RoleViewer}
	other    = auth.Actor{UserID: "u-oth", EmployeeID: "e-2", Role: auth.RoleViewer}
	hr       = auth.Actor{UserID: "u-hr", EmployeeID: "e-hr", Role: auth.RoleHR}
	master   = auth.Actor{UserID: "u-mst", EmployeeID: "e-mst", Role: auth.RoleMaster}
)

func newService(store *fakeStore) *Service {
	return NewService(store, Options{})
}

func mustApply(t *testing.T, svc *Service, actor auth.Actor, typeID, start, end string) LeaveRequest {
	t.Helper()
	request, err := svc.Apply(context.Background(), actor, ApplyInput{
		LeaveTypeID: typeID,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	return request
}

func TestApplyCreatesPendingRequest(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	// Mon 2025-06-02 .. Fri 2025-06-06.
	request := mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-06")
	if request.Status != StatusPending {
		t.Fatalf("expected Pending, got %s", request.Status)
	}
	if request.WorkingDays != 5 {
		t.Fatalf("expected 5 working days, got %d", request.WorkingDays)
	}
	if request.EmployeeID != employee.EmployeeID {
		t.Fatalf("request attributed to wrong employee %s", request.EmployeeID)
	}
}

func TestApplyRejectsInactiveType(t *testing.T) {
	store := newFakeStore()
	retired := store.addType("Retired", 10, true, false)
	svc := newService(store)

	_, err := svc.Apply(context.Background(), employee, ApplyInput{
		LeaveTypeID: retired.ID, StartDate: "2025-06-02", EndDate: "2025-06-03",
	})
	if !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("expected ErrTypeNotFound, got %v", err)
	}
}

func TestApplyRejectsWeekendOnlyRange(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	// Sat 2099-01-10 .. Sun 2099-01-11.
	_, err := svc.Apply(context.Background(), employee, ApplyInput{
		LeaveTypeID: annual.ID, StartDate: "2099-01-10", EndDate: "2099-01-11",
	})
	if !errors.Is(err, ErrNoWorkingDays) {
		t.Fatalf("expected ErrNoWorkingDays, got %v", err)
	}
}

func TestApplyRejectsInvertedRange(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	_, err := svc.Apply(context.Background(), employee, ApplyInput{
		LeaveTypeID: annual.ID, StartDate: "2025-06-06", EndDate: "2025-06-02",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApplyLockedDate(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	if _, err := svc.LockDate(context.Background(), hr, LockDateInput{Date: "2025-06-04", Reason: "inventory"}); err != nil {
		t.Fatalf("lock date: %v", err)
	}

	_, err := svc.Apply(context.Background(), employee, ApplyInput{
		LeaveTypeID: annual.ID, StartDate: "2025-06-02", EndDate: "2025-06-06",
	})
	if !errors.Is(err, ErrLockedDate) {
		t.Fatalf("expected ErrLockedDate for plain caller, got %v", err)
	}

	// Override capability walks through the blackout.
	if _, err := svc.Apply(context.Background(), hr, ApplyInput{
		EmployeeID: "e-9", LeaveTypeID: annual.ID, StartDate: "2025-06-02", EndDate: "2025-06-06",
	}); err != nil {
		t.Fatalf("expected override to succeed, got %v", err)
	}
}

func TestApplyInsufficientBalance(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 3, true, true)
	svc := newService(store)

	_, err := svc.Apply(context.Background(), employee, ApplyInput{
		LeaveTypeID: annual.ID, StartDate: "2025-06-02", EndDate: "2025-06-06",
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestApplyNonCountingTypeIgnoresBalance(t *testing.T) {
	store := newFakeStore()
	unpaid := store.addType("Unpaid", 0, false, true)
	svc := newService(store)

	if _, err := svc.Apply(context.Background(), employee, ApplyInput{
		LeaveTypeID: unpaid.ID, StartDate: "2025-06-02", EndDate: "2025-06-06",
	}); err != nil {
		t.Fatalf("non-counting type must skip balance check: %v", err)
	}
}

func TestApplyOverlapApprovedLeave(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 30, true, true)
	svc := newService(store)

	first := mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-06")
	if _, err := svc.Approve(context.Background(), hr, first.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := svc.Apply(context.Background(), employee, ApplyInput{
		LeaveTypeID: annual.ID, StartDate: "2025-06-05", EndDate: "2025-06-09",
	})
	if !errors.Is(err, ErrOverlapsApproved) {
		t.Fatalf("expected ErrOverlapsApproved, got %v", err)
	}
}

func TestApplyOnBehalfRequiresCapability(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	_, err := svc.Apply(context.Background(), employee, ApplyInput{
		EmployeeID: other.EmployeeID, LeaveTypeID: annual.ID, StartDate: "2025-06-02", EndDate: "2025-06-03",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if _, err := svc.Apply(context.Background(), hr, ApplyInput{
		EmployeeID: other.EmployeeID, LeaveTypeID: annual.ID, StartDate: "2025-06-02", EndDate: "2025-06-03",
	}); err != nil {
		t.Fatalf("manager apply on behalf failed: %v", err)
	}
}

func TestApproveTransitions(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	request := mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-03")

	if _, err := svc.Approve(context.Background(), employee, request.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employee approve must be forbidden, got %v", err)
	}

	approved, err := svc.Approve(context.Background(), hr, request.ID, "ok")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved || approved.ApprovedBy == nil || approved.ApprovedAt == nil {
		t.Fatalf("approve did not record actor/timestamp: %+v", approved)
	}

	if _, err := svc.Approve(context.Background(), hr, request.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second approve must fail ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Reject(context.Background(), hr, request.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reject after approve must fail ErrInvalidTransition, got %v", err)
	}
}

func TestApproveRevalidatesBalance(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 6, true, true)
	svc := newService(store)

	pending := mustApply(t, svc, employee, annual.ID, "2025-07-07", "2025-07-08")

	// Five approved days landed after this request was filed, leaving only one.
	store.requests["lr-prior"] = &LeaveRequest{
		ID: "lr-prior", EmployeeID: employee.EmployeeID, LeaveTypeID: annual.ID,
		StartDate: date(2025, 6, 2), EndDate: date(2025, 6, 6), WorkingDays: 5, Status: StatusApproved,
	}

	if _, err := svc.Approve(context.Background(), hr, pending.ID, ""); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance on approve, got %v", err)
	}
}

func TestCancelRules(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	request := mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-03")

	if _, err := svc.Cancel(context.Background(), other, request.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign employee cancel must be forbidden, got %v", err)
	}
	cancelled, err := svc.Cancel(context.Background(), employee, request.ID, "changed plans")
	if err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelledBy == nil {
		t.Fatalf("cancel did not record actor: %+v", cancelled)
	}

	if _, err := svc.Cancel(context.Background(), employee, request.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel of cancelled must fail, got %v", err)
	}
}

func TestCancelApprovedIsManagerOnly(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	request := mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-03")
	if _, err := svc.Approve(context.Background(), hr, request.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), employee, request.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner cancel of approved must be forbidden, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), hr, request.ID, "late cancellation"); err != nil {
		t.Fatalf("manager cancel of approved: %v", err)
	}
}

// approveAfterReadStore approves the request right after the first status
// read, simulating a manager decision landing mid-cancel.
type approveAfterReadStore struct {
	StoreAPI
	inner *fakeStore
	once  sync.Once
}

func (s *approveAfterReadStore) GetRequest(ctx context.Context, requestID string) (LeaveRequest, error) {
	request, err := s.StoreAPI.GetRequest(ctx, requestID)
	s.once.Do(func() {
		_, _ = s.inner.TransitionRequest(ctx, requestID, StatusApproved, []string{StatusPending}, hr.UserID, "")
	})
	return request, err
}

func TestCancelLosesRaceWithApproval(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := NewService(&approveAfterReadStore{StoreAPI: store, inner: store}, Options{})

	request := mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-03")

	if _, err := svc.Cancel(context.Background(), employee, request.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("owner cancel racing an approval must fail, got %v", err)
	}
	final, err := store.GetRequest(context.Background(), request.ID)
	if err != nil || final.Status != StatusApproved {
		t.Fatalf("request must stay approved, got %+v err=%v", final, err)
	}

	// A manager may still cancel the approved leave.
	if _, err := svc.Cancel(context.Background(), hr, request.ID, "late cancellation"); err != nil {
		t.Fatalf("manager cancel of approved: %v", err)
	}
}

func TestConvertAbsenceToLeave(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	if _, err := svc.ConvertAbsenceToLeave(context.Background(), employee, other.EmployeeID, "2025-06-03", annual.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for employee, got %v", err)
	}

	request, err := svc.ConvertAbsenceToLeave(context.Background(), hr, other.EmployeeID, "2025-06-03", annual.ID)
	if err != nil {
		t.Fatalf("convert absence: %v", err)
	}
	if !request.StartDate.Equal(request.EndDate) || request.WorkingDays != 1 {
		t.Fatalf("expected single working day request, got %+v", request)
	}
	if request.EmployeeID != other.EmployeeID {
		t.Fatalf("converted for wrong employee %s", request.EmployeeID)
	}

	// A weekend absence cannot become leave.
	if _, err := svc.ConvertAbsenceToLeave(context.Background(), hr, other.EmployeeID, "2099-01-10", annual.ID); !errors.Is(err, ErrNoWorkingDays) {
		t.Fatalf("expected ErrNoWorkingDays, got %v", err)
	}
}

func TestMasterUpdateAndDelete(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	request := mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-03")

	if _, err := svc.MasterUpdate(context.Background(), hr, request.ID, ApplyInput{
		EmployeeID: employee.EmployeeID, LeaveTypeID: annual.ID, StartDate: "2025-06-09", EndDate: "2025-06-10",
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("hr master update must be forbidden, got %v", err)
	}

	updated, err := svc.MasterUpdate(context.Background(), master, request.ID, ApplyInput{
		EmployeeID: employee.EmployeeID, LeaveTypeID: annual.ID, StartDate: "2025-06-09", EndDate: "2025-06-10",
	})
	if err != nil {
		t.Fatalf("master update: %v", err)
	}
	if updated.WorkingDays != 2 {
		t.Fatalf("expected recomputed working days 2, got %d", updated.WorkingDays)
	}

	if err := svc.MasterDelete(context.Background(), hr, request.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("hr hard delete must be forbidden, got %v", err)
	}
	if err := svc.MasterDelete(context.Background(), master, request.ID); err != nil {
		t.Fatalf("master delete: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), master, request.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted request must be gone, got %v", err)
	}
}

func TestBalanceComputation(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	store.addType("Ghost", 5, true, false)
	store.entitlements[entKey(employee.EmployeeID, annual.ID, 2025)] = [2]int{20, 2}
	svc := newService(store)

	mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-04") // 3 pending days
	approvedReq := mustApply(t, svc, employee, annual.ID, "2025-07-07", "2025-07-11")
	if _, err := svc.Approve(context.Background(), hr, approvedReq.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	summary, err := svc.Balance(context.Background(), employee, employee.EmployeeID, 2025)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("inactive unused type must be hidden; got %d items", len(summary.Items))
	}
	item := summary.Items[0]
	if item.Total != 20 || item.Reserved != 2 || item.Pending != 3 || item.Approved != 5 {
		t.Fatalf("unexpected balance row: %+v", item)
	}
	if item.Available != 20-2-3-5 {
		t.Fatalf("available invariant broken: %+v", item)
	}
	if item.UsedPercent != 40 {
		t.Fatalf("expected 40%% used, got %v", item.UsedPercent)
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 2, true, true)
	store.entitlements[entKey(employee.EmployeeID, annual.ID, 2025)] = [2]int{2, 0}
	svc := newService(store)

	// Seed inconsistent data directly: more approved days than entitlement.
	store.requests["lr-x"] = &LeaveRequest{
		ID: "lr-x", EmployeeID: employee.EmployeeID, LeaveTypeID: annual.ID,
		StartDate: date(2025, 6, 2), EndDate: date(2025, 6, 13), WorkingDays: 10, Status: StatusApproved,
	}

	summary, err := svc.Balance(context.Background(), employee, employee.EmployeeID, 2025)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if summary.Items[0].Available != 0 {
		t.Fatalf("available must clamp at zero, got %d", summary.Items[0].Available)
	}
}

func TestBalanceAccessControl(t *testing.T) {
	store := newFakeStore()
	store.addType("Annual", 20, true, true)
	svc := newService(store)

	if _, err := svc.Balance(context.Background(), employee, other.EmployeeID, 2025); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden reading another balance, got %v", err)
	}
	if _, err := svc.Balance(context.Background(), hr, other.EmployeeID, 2025); err != nil {
		t.Fatalf("manager balance read failed: %v", err)
	}
}

func TestListRequestsScopedToOwnForEmployees(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 30, true, true)
	svc := newService(store)

	mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-03")
	mustApply(t, svc, other, annual.ID, "2025-06-02", "2025-06-03")

	list, err := svc.ListRequests(context.Background(), employee, RequestFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 || list.Items[0].EmployeeID != employee.EmployeeID {
		t.Fatalf("employee must only see own requests: %+v", list)
	}

	list, err = svc.ListRequests(context.Background(), hr, RequestFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("manager must see all requests, got %d", list.Total)
	}
}

func TestListRequestsPagination(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 260, true, true)
	svc := newService(store)

	// Five single-day requests on consecutive Mondays.
	for week := 0; week < 5; week++ {
		day := date(2025, 6, 2).AddDate(0, 0, 7*week).Format("2006-01-02")
		mustApply(t, svc, employee, annual.ID, day, day)
	}

	page, err := svc.ListRequests(context.Background(), hr, RequestFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 || page.Page != 2 || page.PageSize != 2 {
		t.Fatalf("unexpected page: total=%d items=%d", page.Total, len(page.Items))
	}
	// Most recent first: page 2 holds the 3rd and 2nd newest.
	if !page.Items[0].CreatedAt.After(page.Items[1].CreatedAt) {
		t.Fatal("items not ordered most recent first")
	}
}

func TestConcurrentApproveSingleWinner(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	request := mustApply(t, svc, employee, annual.ID, "2025-06-02", "2025-06-03")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Approve(context.Background(), hr, request.ID, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidTransition):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one winner, got wins=%d losses=%d", wins, losses)
	}
}

func TestDeactivateType(t *testing.T) {
	store := newFakeStore()
	annual := store.addType("Annual", 20, true, true)
	svc := newService(store)

	if err := svc.DeactivateType(context.Background(), employee, annual.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employee deactivate must be forbidden, got %v", err)
	}
	if err := svc.DeactivateType(context.Background(), hr, annual.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := svc.DeactivateType(context.Background(), hr, annual.ID); !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("second deactivate must be ErrTypeNotFound, got %v", err)
	}
	if err := svc.DeactivateType(context.Background(), hr, "lt-missing"); !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("unknown type must be ErrTypeNotFound, got %v", err)
	}
}

func TestCreateTypeValidation(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	if _, err := svc.CreateType(context.Background(), hr, TypeInput{Name: "  ", AnnualEntitlementDays: 5}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank name must be rejected, got %v", err)
	}
	if _, err := svc.CreateType(context.Background(), hr, TypeInput{Name: "Study", AnnualEntitlementDays: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative entitlement must be rejected, got %v", err)
	}
	created, err := svc.CreateType(context.Background(), hr, TypeInput{Name: " Study ", AnnualEntitlementDays: 5})
	if err != nil {
		t.Fatalf("create type: %v", err)
	}
	if created.Name != "Study" || !created.IsActive {
		t.Fatalf("unexpected created type: %+v", created)
	}
	if strings.Contains(created.Name, " ") {
		t.Fatalf("name not trimmed: %q", created.Name)
	}
}

func TestLockedDateLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	if _, err := svc.LockDate(context.Background(), employee, LockDateInput{Date: "2025-06-04"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employee lock must be forbidden, got %v", err)
	}
	if _, err := svc.LockDate(context.Background(), hr, LockDateInput{Date: "not-a-date"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("malformed date must be rejected, got %v", err)
	}

	locked, err := svc.LockDate(context.Background(), hr, LockDateInput{Date: "2025-06-04", Reason: "audit"})
	if err != nil {
		t.Fatalf("lock date: %v", err)
	}
	if locked.CreatedBy != hr.UserID {
		t.Fatalf("creator not recorded: %+v", locked)
	}

	dates, err := svc.ListLockedDates(context.Background(), employee, 2025)
	if err != nil || len(dates) != 1 {
		t.Fatalf("list locked dates: %v (%d)", err, len(dates))
	}

	if err := svc.UnlockDate(context.Background(), hr, "2025-06-04"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := svc.UnlockDate(context.Background(), hr, "2025-06-04"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second unlock must be ErrNotFound, got %v", err)
	}
}
