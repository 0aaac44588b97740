package payroll

import "context"

type StoreAPI interface {
	CreateBatch(ctx context.Context, month, createdBy string, enforceUniqueMonth bool) (Batch, error)
	GetBatch(ctx context.Context, batchID string) (Batch, error)
	GetBatchEntries(ctx context.Context, batchID string) ([]Entry, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error)
	GenerateEntries(ctx context.Context, batchID string, seeds []EmployeeSeed) (int, error)
	UpdateEntryAmounts(ctx context.Context, entryID string, allowances, deductions, tax float64) (Entry, error)
	TransitionBatch(ctx context.Context, batchID, toStatus string, allowedFrom []string, actorUserID string) (Batch, error)
	PayslipData(ctx context.Context, batchID, employeeID string) (PayslipData, error)
}
