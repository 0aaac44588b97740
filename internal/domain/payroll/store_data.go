package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const batchColumns = `
    b.id, b.month, b.status, b.created_by, b.created_at,
    b.approved_by, b.approved_at, b.locked_at,
    (SELECT count(*) FROM payroll_entries pe WHERE pe.batch_id = b.id)`

const entryColumns = `
    pe.id, pe.batch_id, pe.employee_id, e.name,
    pe.base_salary, pe.allowances_total, pe.deductions_total, pe.tax_total,
    pe.gross_pay, pe.net_pay, pe.created_at, pe.updated_at`

const entryTables = `
    FROM payroll_entries pe
    JOIN employees e ON e.id = pe.employee_id`

func scanBatch(row pgx.Row) (Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.Month, &b.Status, &b.CreatedBy, &b.CreatedAt,
		&b.ApprovedBy, &b.ApprovedAt, &b.LockedAt, &b.EntryCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	if err != nil {
		return Batch{}, err
	}
	return b, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.BatchID, &e.EmployeeID, &e.EmployeeName,
		&e.BaseSalary, &e.AllowancesTotal, &e.DeductionsTotal, &e.TaxTotal,
		&e.GrossPay, &e.NetPay, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// CreateBatch serializes concurrent creation for the same month on an
// advisory lock so the uniqueness check cannot race.
func (s *Store) CreateBatch(ctx context.Context, month, createdBy string, enforceUniqueMonth bool) (Batch, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Batch{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if enforceUniqueMonth {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "payroll_batch:"+month); err != nil {
			return Batch{}, err
		}
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM payroll_batches WHERE month = $1)", month).Scan(&exists); err != nil {
			return Batch{}, err
		}
		if exists {
			return Batch{}, ErrBatchExists
		}
	}

	var batchID string
	err = tx.QueryRow(ctx, `
    INSERT INTO payroll_batches (month, status, created_by)
    VALUES ($1, $2, $3)
    RETURNING id
  `, month, BatchStatusDraft, createdBy).Scan(&batchID)
	if err != nil {
		return Batch{}, err
	}

	batch, err := scanBatch(tx.QueryRow(ctx, "SELECT"+batchColumns+" FROM payroll_batches b WHERE b.id = $1", batchID))
	if err != nil {
		return Batch{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

func (s *Store) GetBatch(ctx context.Context, batchID string) (Batch, error) {
	return scanBatch(s.DB.QueryRow(ctx, "SELECT"+batchColumns+" FROM payroll_batches b WHERE b.id = $1", batchID))
}

func (s *Store) GetBatchEntries(ctx context.Context, batchID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, "SELECT"+entryColumns+entryTables+`
    WHERE pe.batch_id = $1
    ORDER BY e.name, pe.employee_id`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error) {
	query := "SELECT" + batchColumns + " FROM payroll_batches b"
	var args []any
	var conditions []string
	if filter.Month != "" {
		args = append(args, filter.Month)
		conditions = append(conditions, fmt.Sprintf("b.month = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)))
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY b.month DESC, b.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// GenerateEntries upserts one entry per seed while the batch row stays locked,
// so a concurrent approve cannot slip between the status check and the writes.
// Entries for employees no longer in the seed set are removed; a regenerated
// batch only pays the current roster.
func (s *Store) GenerateEntries(ctx context.Context, batchID string, seeds []EmployeeSeed) (int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx, "SELECT status FROM payroll_batches WHERE id = $1 FOR UPDATE", batchID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrBatchNotFound
	}
	if err != nil {
		return 0, err
	}
	if status != BatchStatusDraft {
		return 0, ErrInvalidTransition
	}

	for _, seed := range seeds {
		_, err := tx.Exec(ctx, `
      INSERT INTO payroll_entries
        (batch_id, employee_id, base_salary, allowances_total, deductions_total, tax_total, gross_pay, net_pay)
      VALUES ($1, $2, $3, 0, 0, 0, $3, $3)
      ON CONFLICT (batch_id, employee_id) DO UPDATE SET
        base_salary = EXCLUDED.base_salary,
        allowances_total = 0, deductions_total = 0, tax_total = 0,
        gross_pay = EXCLUDED.base_salary, net_pay = EXCLUDED.base_salary,
        updated_at = now()
    `, batchID, seed.EmployeeID, seed.BaseSalary)
		if err != nil {
			return 0, err
		}
	}

	employeeIDs := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		employeeIDs = append(employeeIDs, seed.EmployeeID)
	}
	_, err = tx.Exec(ctx, `
    DELETE FROM payroll_entries
    WHERE batch_id = $1 AND NOT (employee_id = ANY($2))
  `, batchID, employeeIDs)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(seeds), nil
}

// UpdateEntryAmounts reads the base salary in the same locked transaction it
// writes in, so gross and net always match the row's own base even when a
// regenerate runs concurrently.
func (s *Store) UpdateEntryAmounts(ctx context.Context, entryID string, allowances, deductions, tax float64) (Entry, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	var base float64
	err = tx.QueryRow(ctx, `
    SELECT b.status, pe.base_salary
    FROM payroll_entries pe
    JOIN payroll_batches b ON b.id = pe.batch_id
    WHERE pe.id = $1
    FOR UPDATE OF b
  `, entryID).Scan(&status, &base)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	if status != BatchStatusDraft {
		return Entry{}, ErrBatchNotEditable
	}
	gross, net := ComputePay(base, allowances, deductions, tax)

	_, err = tx.Exec(ctx, `
    UPDATE payroll_entries
    SET allowances_total = $2, deductions_total = $3, tax_total = $4,
        gross_pay = $5, net_pay = $6, updated_at = now()
    WHERE id = $1
  `, entryID, allowances, deductions, tax, gross, net)
	if err != nil {
		return Entry{}, err
	}

	entry, err := scanEntry(tx.QueryRow(ctx, "SELECT"+entryColumns+entryTables+" WHERE pe.id = $1", entryID))
	if err != nil {
		return Entry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *Store) TransitionBatch(ctx context.Context, batchID, toStatus string, allowedFrom []string, actorUserID string) (Batch, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Batch{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, "SELECT status FROM payroll_batches WHERE id = $1 FOR UPDATE", batchID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	if err != nil {
		return Batch{}, err
	}
	allowed := false
	for _, from := range allowedFrom {
		if current == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return Batch{}, ErrInvalidTransition
	}

	var query string
	var args []any
	switch toStatus {
	case BatchStatusApproved:
		query = "UPDATE payroll_batches SET status = $2, approved_by = $3, approved_at = now() WHERE id = $1"
		args = []any{batchID, toStatus, actorUserID}
	case BatchStatusLocked:
		query = "UPDATE payroll_batches SET status = $2, locked_at = now() WHERE id = $1"
		args = []any{batchID, toStatus}
	default:
		return Batch{}, ErrInvalidTransition
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return Batch{}, err
	}

	batch, err := scanBatch(tx.QueryRow(ctx, "SELECT"+batchColumns+" FROM payroll_batches b WHERE b.id = $1", batchID))
	if err != nil {
		return Batch{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

func (s *Store) PayslipData(ctx context.Context, batchID, employeeID string) (PayslipData, error) {
	var data PayslipData
	err := s.DB.QueryRow(ctx, `
    SELECT e.name, e.department, b.month,
           pe.base_salary, pe.allowances_total, pe.deductions_total, pe.tax_total,
           pe.gross_pay, pe.net_pay
    FROM payroll_entries pe
    JOIN employees e ON e.id = pe.employee_id
    JOIN payroll_batches b ON b.id = pe.batch_id
    WHERE pe.batch_id = $1 AND pe.employee_id = $2
  `, batchID, employeeID).Scan(&data.EmployeeName, &data.Department, &data.Month,
		&data.BaseSalary, &data.Allowances, &data.Deductions, &data.Tax, &data.Gross, &data.Net)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayslipData{}, ErrEntryNotFound
	}
	if err != nil {
		return PayslipData{}, err
	}
	return data, nil
}
