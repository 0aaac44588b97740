package payroll

import "time"

const (
	BatchStatusDraft    = "Draft"
	BatchStatusApproved = "Approved"
	BatchStatusLocked   = "Locked"
)

// Batch is one payroll run for a calendar month. The lifecycle is one-way:
// Draft -> Approved -> Locked.
type Batch struct {
	ID         string     `json:"id"`
	Month      string     `json:"month"`
	Status     string     `json:"status"`
	CreatedBy  string     `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	ApprovedBy *string    `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	LockedAt   *time.Time `json:"lockedAt,omitempty"`
	EntryCount int        `json:"entryCount"`
}

// Entry holds one employee's pay lines. BaseSalary is a snapshot taken at
// generation time; later salary changes do not leak into an open batch.
type Entry struct {
	ID              string    `json:"id"`
	BatchID         string    `json:"batchId"`
	EmployeeID      string    `json:"employeeId"`
	EmployeeName    string    `json:"employeeName,omitempty"`
	BaseSalary      float64   `json:"baseSalary"`
	AllowancesTotal float64   `json:"allowancesTotal"`
	DeductionsTotal float64   `json:"deductionsTotal"`
	TaxTotal        float64   `json:"taxTotal"`
	GrossPay        float64   `json:"grossPay"`
	NetPay          float64   `json:"netPay"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type BatchDetail struct {
	Batch
	Entries []Entry `json:"entries"`
}

type EntryAmountsInput struct {
	AllowancesTotal float64 `json:"allowancesTotal" validate:"gte=0"`
	DeductionsTotal float64 `json:"deductionsTotal" validate:"gte=0"`
	TaxTotal        float64 `json:"taxTotal" validate:"gte=0"`
}

type BatchFilter struct {
	Month  string `json:"month"`
	Status string `json:"status"`
}

// EmployeeSeed is the roster row a generation run turns into an entry.
type EmployeeSeed struct {
	EmployeeID string
	BaseSalary float64
}

type PayslipData struct {
	EmployeeName string
	Department   string
	Month        string
	BaseSalary   float64
	Allowances   float64
	Deductions   float64
	Tax          float64
	Gross        float64
	Net          float64
}
