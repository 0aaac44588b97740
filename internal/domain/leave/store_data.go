package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const requestColumns = `
    r.id, r.employee_id, e.name, r.leave_type_id, lt.name,
    r.start_date, r.end_date, r.working_days, r.status,
    r.requested_by, r.approved_by, r.approved_at, r.rejected_by, r.rejected_at,
    r.cancelled_by, r.cancelled_at, r.comment, r.created_at, r.updated_at`

const requestTables = `
    FROM leave_requests r
    JOIN employees e ON e.id = r.employee_id
    JOIN leave_types lt ON lt.id = r.leave_type_id`

func (s *Store) ListTypes(ctx context.Context, includeInactive bool) ([]LeaveType, error) {
	query := `
    SELECT id, name, annual_entitlement_days, is_paid, requires_attachment,
           requires_approval, counts_toward_entitlement, is_active, created_at, updated_at
    FROM leave_types
  `
	if !includeInactive {
		query += " WHERE is_active"
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Name, &t.AnnualEntitlementDays, &t.IsPaid, &t.RequiresAttachment,
			&t.RequiresApproval, &t.CountsTowardEntitlement, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) GetType(ctx context.Context, leaveTypeID string) (LeaveType, error) {
	var t LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, annual_entitlement_days, is_paid, requires_attachment,
           requires_approval, counts_toward_entitlement, is_active, created_at, updated_at
    FROM leave_types
    WHERE id = $1
  `, leaveTypeID).Scan(&t.ID, &t.Name, &t.AnnualEntitlementDays, &t.IsPaid, &t.RequiresAttachment,
		&t.RequiresApproval, &t.CountsTowardEntitlement, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveType{}, ErrTypeNotFound
	}
	return t, err
}

func (s *Store) CreateType(ctx context.Context, input TypeInput) (LeaveType, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (name, annual_entitlement_days, is_paid, requires_attachment,
                             requires_approval, counts_toward_entitlement, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,true)
    RETURNING id
  `, input.Name, input.AnnualEntitlementDays, input.IsPaid, input.RequiresAttachment,
		input.RequiresApproval, input.CountsTowardEntitlement).Scan(&id)
	if err != nil {
		return LeaveType{}, err
	}
	return s.GetType(ctx, id)
}

func (s *Store) UpdateType(ctx context.Context, leaveTypeID string, input TypeInput) (LeaveType, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_types
    SET name = $2, annual_entitlement_days = $3, is_paid = $4, requires_attachment = $5,
        requires_approval = $6, counts_toward_entitlement = $7, updated_at = now()
    WHERE id = $1
  `, leaveTypeID, input.Name, input.AnnualEntitlementDays, input.IsPaid, input.RequiresAttachment,
		input.RequiresApproval, input.CountsTowardEntitlement)
	if err != nil {
		return LeaveType{}, err
	}
	if tag.RowsAffected() == 0 {
		return LeaveType{}, ErrTypeNotFound
	}
	return s.GetType(ctx, leaveTypeID)
}

func (s *Store) DeactivateType(ctx context.Context, leaveTypeID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_types SET is_active = false, updated_at = now()
    WHERE id = $1 AND is_active
  `, leaveTypeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTypeNotFound
	}
	return nil
}

func (s *Store) LockDate(ctx context.Context, day time.Time, reason, createdBy string) (LockedDate, error) {
	var out LockedDate
	err := s.DB.QueryRow(ctx, `
    INSERT INTO locked_dates (lock_date, reason, created_by)
    VALUES ($1,$2,$3)
    ON CONFLICT (lock_date) DO UPDATE SET reason = EXCLUDED.reason, created_by = EXCLUDED.created_by
    RETURNING id, lock_date, reason, created_by, created_at
  `, day, reason, createdBy).Scan(&out.ID, &out.Date, &out.Reason, &out.CreatedBy, &out.CreatedAt)
	return out, err
}

func (s *Store) UnlockDate(ctx context.Context, day time.Time) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM locked_dates WHERE lock_date = $1", day)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListLockedDates(ctx context.Context, year int) ([]LockedDate, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, lock_date, reason, created_by, created_at
    FROM locked_dates
    WHERE EXTRACT(YEAR FROM lock_date) = $1
    ORDER BY lock_date
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []LockedDate
	for rows.Next() {
		var d LockedDate
		if err := rows.Scan(&d.ID, &d.Date, &d.Reason, &d.CreatedBy, &d.CreatedAt); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *Store) AnyLockedDate(ctx context.Context, days []time.Time) (bool, error) {
	if len(days) == 0 {
		return false, nil
	}
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM locked_dates WHERE lock_date = ANY($1::date[])
  `, days).Scan(&count)
	return count > 0, err
}

func (s *Store) Entitlement(ctx context.Context, employeeID, leaveTypeID string, year int) (int, int, error) {
	var total, reserved int
	err := s.DB.QueryRow(ctx, `
    SELECT total_days, reserved_days
    FROM leave_entitlements
    WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
  `, employeeID, leaveTypeID, year).Scan(&total, &reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		// No explicit grant: the type's annual entitlement applies.
		leaveType, err := s.GetType(ctx, leaveTypeID)
		if err != nil {
			return 0, 0, err
		}
		return leaveType.AnnualEntitlementDays, 0, nil
	}
	return total, reserved, err
}

func (s *Store) UsedDays(ctx context.Context, employeeID, leaveTypeID string, year int) (int, int, error) {
	var pending, approved int
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(working_days) FILTER (WHERE status = $4), 0),
           COALESCE(SUM(working_days) FILTER (WHERE status = $5), 0)
    FROM leave_requests
    WHERE employee_id = $1 AND leave_type_id = $2 AND EXTRACT(YEAR FROM start_date) = $3
  `, employeeID, leaveTypeID, year, StatusPending, StatusApproved).Scan(&pending, &approved)
	return pending, approved, err
}

func (s *Store) CountApprovedOverlap(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeRequestID string) (int, error) {
	query := `
    SELECT COUNT(1)
    FROM leave_requests
    WHERE employee_id = $1 AND status = $2 AND start_date <= $4 AND end_date >= $3
  `
	args := []any{employeeID, StatusApproved, startDate, endDate}
	if excludeRequestID != "" {
		query += " AND id <> $5"
		args = append(args, excludeRequestID)
	}
	var count int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (s *Store) CreateRequest(ctx context.Context, rec NewRequest) (LeaveRequest, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type_id, start_date, end_date,
                                working_days, status, requested_by, comment)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, rec.EmployeeID, rec.LeaveTypeID, rec.StartDate, rec.EndDate,
		rec.WorkingDays, StatusPending, rec.RequestedBy, rec.Comment).Scan(&id)
	if err != nil {
		return LeaveRequest{}, err
	}
	return s.GetRequest(ctx, id)
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (LeaveRequest, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+requestColumns+requestTables+" WHERE r.id = $1", requestID)
	request, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrNotFound
	}
	return request, err
}

// TransitionRequest serializes races on the same request: the row is locked
// and the precondition re-checked before the status flips, so of two
// concurrent transitions exactly one wins.
func (s *Store) TransitionRequest(ctx context.Context, requestID, toStatus string, allowedFrom []string, actorUserID, comment string) (LeaveRequest, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return LeaveRequest{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, "SELECT status FROM leave_requests WHERE id = $1 FOR UPDATE", requestID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrNotFound
	}
	if err != nil {
		return LeaveRequest{}, err
	}
	allowed := false
	for _, from := range allowedFrom {
		if current == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return LeaveRequest{}, ErrInvalidTransition
	}

	var actorColumns string
	switch toStatus {
	case StatusApproved:
		actorColumns = "approved_by = $2, approved_at = now()"
	case StatusRejected:
		actorColumns = "rejected_by = $2, rejected_at = now()"
	case StatusCancelled:
		actorColumns = "cancelled_by = $2, cancelled_at = now()"
	default:
		return LeaveRequest{}, ErrInvalidTransition
	}

	query := fmt.Sprintf(`
    UPDATE leave_requests
    SET status = $3, %s, comment = CASE WHEN $4 <> '' THEN $4 ELSE comment END, updated_at = now()
    WHERE id = $1
  `, actorColumns)
	if _, err := tx.Exec(ctx, query, requestID, actorUserID, toStatus, comment); err != nil {
		return LeaveRequest{}, err
	}

	row := tx.QueryRow(ctx, "SELECT"+requestColumns+requestTables+" WHERE r.id = $1", requestID)
	request, err := scanRequest(row)
	if err != nil {
		return LeaveRequest{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return LeaveRequest{}, err
	}
	return request, nil
}

func (s *Store) MasterUpdateRequest(ctx context.Context, requestID string, upd RequestUpdate) (LeaveRequest, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return LeaveRequest{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, "SELECT status FROM leave_requests WHERE id = $1 FOR UPDATE", requestID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrNotFound
	}
	if err != nil {
		return LeaveRequest{}, err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET employee_id = $2, leave_type_id = $3, start_date = $4, end_date = $5,
        working_days = $6, comment = CASE WHEN $7 <> '' THEN $7 ELSE comment END, updated_at = now()
    WHERE id = $1
  `, requestID, upd.EmployeeID, upd.LeaveTypeID, upd.StartDate, upd.EndDate, upd.WorkingDays, upd.Comment); err != nil {
		return LeaveRequest{}, err
	}

	row := tx.QueryRow(ctx, "SELECT"+requestColumns+requestTables+" WHERE r.id = $1", requestID)
	request, err := scanRequest(row)
	if err != nil {
		return LeaveRequest{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return LeaveRequest{}, err
	}
	return request, nil
}

func (s *Store) DeleteRequest(ctx context.Context, requestID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_requests WHERE id = $1", requestID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context, filter RequestFilter) (RequestList, error) {
	where := " WHERE 1=1"
	var args []any

	addArg := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(clause, len(args))
	}
	if filter.Status != "" {
		addArg(" AND r.status = $%d", filter.Status)
	}
	if filter.EmployeeID != "" {
		addArg(" AND r.employee_id = $%d", filter.EmployeeID)
	}
	if filter.LeaveTypeID != "" {
		addArg(" AND r.leave_type_id = $%d", filter.LeaveTypeID)
	}
	if filter.FromDate != "" {
		addArg(" AND r.end_date >= $%d", filter.FromDate)
	}
	if filter.ToDate != "" {
		addArg(" AND r.start_date <= $%d", filter.ToDate)
	}

	out := RequestList{Page: filter.Page, PageSize: filter.PageSize}
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+requestTables+where, args...).Scan(&out.Total); err != nil {
		return RequestList{}, err
	}

	query := "SELECT" + requestColumns + requestTables + where +
		fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return RequestList{}, err
	}
	defer rows.Close()

	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return RequestList{}, err
		}
		out.Items = append(out.Items, request)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (LeaveRequest, error) {
	var r LeaveRequest
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.LeaveTypeID, &r.TypeName,
		&r.StartDate, &r.EndDate, &r.WorkingDays, &r.Status,
		&r.RequestedBy, &r.ApprovedBy, &r.ApprovedAt, &r.RejectedBy, &r.RejectedAt,
		&r.CancelledBy, &r.CancelledAt, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
