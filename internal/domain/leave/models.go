package leave

import "time"

const (
	StatusPending   = "Pending"
	StatusApproved  = "Approved"
	StatusRejected  = "Rejected"
	StatusCancelled = "Cancelled"
)

type LeaveType struct {
	ID                      string    `json:"id"`
	Name                    string    `json:"name"`
	AnnualEntitlementDays   int       `json:"annualEntitlementDays"`
	IsPaid                  bool      `json:"isPaid"`
	RequiresAttachment      bool      `json:"requiresAttachment"`
	RequiresApproval        bool      `json:"requiresApproval"`
	CountsTowardEntitlement bool      `json:"countsTowardEntitlement"`
	IsActive                bool      `json:"isActive"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

type TypeInput struct {
	Name                    string `json:"name" validate:"required"`
	AnnualEntitlementDays   int    `json:"annualEntitlementDays" validate:"gte=0"`
	IsPaid                  bool   `json:"isPaid"`
	RequiresAttachment      bool   `json:"requiresAttachment"`
	RequiresApproval        bool   `json:"requiresApproval"`
	CountsTowardEntitlement bool   `json:"countsTowardEntitlement"`
}

type LockedDate struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Reason    string    `json:"reason"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type LeaveRequest struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	LeaveTypeID  string     `json:"leaveTypeId"`
	TypeName     string     `json:"typeName,omitempty"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      time.Time  `json:"endDate"`
	WorkingDays  int        `json:"workingDays"`
	Status       string     `json:"status"`
	RequestedBy  string     `json:"requestedBy,omitempty"`
	ApprovedBy   *string    `json:"approvedBy,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	RejectedBy   *string    `json:"rejectedBy,omitempty"`
	RejectedAt   *time.Time `json:"rejectedAt,omitempty"`
	CancelledBy  *string    `json:"cancelledBy,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
	Comment      string     `json:"comment"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type ApplyInput struct {
	EmployeeID  string `json:"employeeId,omitempty"`
	LeaveTypeID string `json:"leaveTypeId" validate:"required"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	Comment     string `json:"comment"`
}

type LockDateInput struct {
	Date   string `json:"date" validate:"required"`
	Reason string `json:"reason"`
}

type RequestFilter struct {
	Status      string `json:"status"`
	EmployeeID  string `json:"employeeId"`
	LeaveTypeID string `json:"leaveTypeId"`
	FromDate    string `json:"fromDate"`
	ToDate      string `json:"toDate"`
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
}

type RequestList struct {
	Items    []LeaveRequest `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Balance is derived from the ledger on every read, never stored.
type Balance struct {
	LeaveTypeID string  `json:"leaveTypeId"`
	TypeName    string  `json:"typeName"`
	Total       int     `json:"total"`
	Reserved    int     `json:"reserved"`
	Pending     int     `json:"pending"`
	Approved    int     `json:"approved"`
	Available   int     `json:"available"`
	UsedPercent float64 `json:"usedPercent"`
}

type BalanceSummary struct {
	EmployeeID string    `json:"employeeId"`
	Year       int       `json:"year"`
	Items      []Balance `json:"items"`
}
