package auth

const (
	RoleViewer  = "Viewer"
	RoleHR      = "HR Officer"
	RoleFinance = "Finance Officer"
	RoleAdmin   = "Admin"
	RoleMaster  = "Master"
)

// Capabilities are the unit of authorization. Every mutating engine operation
// names exactly one capability and checks it before touching state.
const (
	CapLeaveRead           = "leave.read"
	CapLeaveApply          = "leave.apply"
	CapLeaveApplyOthers    = "leave.apply.others"
	CapLeaveDecide         = "leave.decide"
	CapLeaveCancelAny      = "leave.cancel.any"
	CapLeaveTypesManage    = "leave.types.manage"
	CapLeaveDatesLock      = "leave.dates.lock"
	CapLeaveLockOverride   = "leave.lock.override"
	CapLeaveBalanceReadAny = "leave.balance.read.any"
	CapLeaveMasterUpdate   = "leave.master.update"
	CapLeaveHardDelete     = "leave.hard.delete"
	CapPayrollRead         = "payroll.read"
	CapPayrollManage       = "payroll.manage"
	CapAuditRead           = "audit.read"
)

var AllCapabilities = []string{
	CapLeaveRead,
	CapLeaveApply,
	CapLeaveApplyOthers,
	CapLeaveDecide,
	CapLeaveCancelAny,
	CapLeaveTypesManage,
	CapLeaveDatesLock,
	CapLeaveLockOverride,
	CapLeaveBalanceReadAny,
	CapLeaveMasterUpdate,
	CapLeaveHardDelete,
	CapPayrollRead,
	CapPayrollManage,
	CapAuditRead,
}

var managerLeaveCapabilities = []string{
	CapLeaveRead,
	CapLeaveApply,
	CapLeaveApplyOthers,
	CapLeaveDecide,
	CapLeaveCancelAny,
	CapLeaveTypesManage,
	CapLeaveDatesLock,
	CapLeaveLockOverride,
	CapLeaveBalanceReadAny,
}

// RoleCapabilities is the single source of truth for who may do what.
// Handlers and services consult it through Can; no per-call role lists.
var RoleCapabilities = map[string][]string{
	RoleViewer: {
		CapLeaveRead,
		CapLeaveApply,
	},
	RoleHR: managerLeaveCapabilities,
	RoleFinance: {
		CapLeaveRead,
		CapLeaveApply,
		CapPayrollRead,
		CapPayrollManage,
	},
	RoleAdmin: append(append([]string{}, managerLeaveCapabilities...),
		CapPayrollRead,
		CapPayrollManage,
		CapAuditRead,
	),
	RoleMaster: AllCapabilities,
}

func Can(role, capability string) bool {
	for _, held := range RoleCapabilities[role] {
		if held == capability {
			return true
		}
	}
	return false
}

func KnownRole(role string) bool {
	_, ok := RoleCapabilities[role]
	return ok
}
