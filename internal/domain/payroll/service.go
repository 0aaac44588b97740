package payroll

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/directory"
)

// DirectoryAPI is the slice of the employee roster the engine needs when
// generating entries.
type DirectoryAPI interface {
	ActiveEmployees(ctx context.Context) ([]directory.Employee, error)
}

type Service struct {
	store            StoreAPI
	directory        DirectoryAPI
	oneBatchPerMonth bool
	payslipDir       string
}

type Options struct {
	OneBatchPerMonth bool
	PayslipDir       string
}

func NewService(store StoreAPI, dir DirectoryAPI, opts Options) *Service {
	if opts.PayslipDir == "" {
		opts.PayslipDir = "storage/payslips"
	}
	return &Service{
		store:            store,
		directory:        dir,
		oneBatchPerMonth: opts.OneBatchPerMonth,
		payslipDir:       opts.PayslipDir,
	}
}

func (s *Service) CreateBatch(ctx context.Context, actor auth.Actor, month string) (Batch, error) {
	if !actor.Can(auth.CapPayrollManage) {
		return Batch{}, ErrForbidden
	}
	month = strings.TrimSpace(month)
	if _, err := time.Parse("2006-01", month); err != nil {
		return Batch{}, ErrInvalidMonth
	}
	return s.store.CreateBatch(ctx, month, actor.UserID, s.oneBatchPerMonth)
}

// GenerateEntries snapshots every active employee into the batch. Running it
// again refreshes the snapshot and zeroes the amounts; it never duplicates an
// employee.
func (s *Service) GenerateEntries(ctx context.Context, actor auth.Actor, batchID string) (int, error) {
	if !actor.Can(auth.CapPayrollManage) {
		return 0, ErrForbidden
	}
	if batchID == "" {
		return 0, ErrInvalidInput
	}
	employees, err := s.directory.ActiveEmployees(ctx)
	if err != nil {
		return 0, err
	}
	seeds := make([]EmployeeSeed, 0, len(employees))
	for _, employee := range employees {
		seeds = append(seeds, EmployeeSeed{EmployeeID: employee.ID, BaseSalary: employee.BaseSalary})
	}
	return s.store.GenerateEntries(ctx, batchID, seeds)
}

func (s *Service) UpdateEntryAmounts(ctx context.Context, actor auth.Actor, entryID string, input EntryAmountsInput) (Entry, error) {
	if !actor.Can(auth.CapPayrollManage) {
		return Entry{}, ErrForbidden
	}
	if entryID == "" {
		return Entry{}, ErrInvalidInput
	}
	if !ValidAmount(input.AllowancesTotal) || !ValidAmount(input.DeductionsTotal) || !ValidAmount(input.TaxTotal) {
		return Entry{}, ErrInvalidAmount
	}

	// Gross and net derive from the entry's stored base salary; the store
	// computes them under the batch lock so a concurrent regenerate cannot
	// desync them from the base.
	return s.store.UpdateEntryAmounts(ctx, entryID, input.AllowancesTotal, input.DeductionsTotal, input.TaxTotal)
}

func (s *Service) ApproveBatch(ctx context.Context, actor auth.Actor, batchID string) (Batch, error) {
	if !actor.Can(auth.CapPayrollManage) {
		return Batch{}, ErrForbidden
	}
	return s.store.TransitionBatch(ctx, batchID, BatchStatusApproved, []string{BatchStatusDraft}, actor.UserID)
}

func (s *Service) LockBatch(ctx context.Context, actor auth.Actor, batchID string) (Batch, error) {
	if !actor.Can(auth.CapPayrollManage) {
		return Batch{}, ErrForbidden
	}
	return s.store.TransitionBatch(ctx, batchID, BatchStatusLocked, []string{BatchStatusApproved}, actor.UserID)
}

func (s *Service) GetBatch(ctx context.Context, actor auth.Actor, batchID string) (BatchDetail, error) {
	if !actor.Can(auth.CapPayrollRead) {
		return BatchDetail{}, ErrForbidden
	}
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return BatchDetail{}, err
	}
	entries, err := s.store.GetBatchEntries(ctx, batchID)
	if err != nil {
		return BatchDetail{}, err
	}
	return BatchDetail{Batch: batch, Entries: entries}, nil
}

func (s *Service) ListBatches(ctx context.Context, actor auth.Actor, filter BatchFilter) ([]Batch, error) {
	if !actor.Can(auth.CapPayrollRead) {
		return nil, ErrForbidden
	}
	if filter.Month != "" {
		if _, err := time.Parse("2006-01", filter.Month); err != nil {
			return nil, ErrInvalidMonth
		}
	}
	return s.store.ListBatches(ctx, filter)
}

var exportHeader = []string{
	"employee_id", "employee_name", "base_salary",
	"allowances_total", "deductions_total", "tax_total",
	"gross_pay", "net_pay",
}

// ExportCSV writes the batch register. Rows are ordered by employee name then
// id so two exports of the same batch are byte-identical.
func (s *Service) ExportCSV(ctx context.Context, actor auth.Actor, batchID string, w io.Writer) error {
	if !actor.Can(auth.CapPayrollRead) {
		return ErrForbidden
	}
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.Status != BatchStatusApproved && batch.Status != BatchStatusLocked {
		return ErrBatchNotReady
	}
	entries, err := s.store.GetBatchEntries(ctx, batchID)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, entry := range entries {
		record := []string{
			entry.EmployeeID,
			entry.EmployeeName,
			FormatAmount(entry.BaseSalary),
			FormatAmount(entry.AllowancesTotal),
			FormatAmount(entry.DeductionsTotal),
			FormatAmount(entry.TaxTotal),
			FormatAmount(entry.GrossPay),
			FormatAmount(entry.NetPay),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
