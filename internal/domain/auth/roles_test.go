package auth

import "testing"

func TestRoleCapabilitiesSubset(t *testing.T) {
	known := map[string]struct{}{}
	for _, capability := range AllCapabilities {
		known[capability] = struct{}{}
	}

	for role, caps := range RoleCapabilities {
		if len(caps) == 0 {
			t.Fatalf("role %s has no capabilities", role)
		}
		for _, capability := range caps {
			if _, ok := known[capability]; !ok {
				t.Fatalf("role %s holds unknown capability %s", role, capability)
			}
		}
	}
}

func TestViewerCannotDecideOrManage(t *testing.T) {
	for _, capability := range []string{CapLeaveDecide, CapLeaveTypesManage, CapLeaveDatesLock, CapPayrollManage, CapLeaveHardDelete} {
		if Can(RoleViewer, capability) {
			t.Fatalf("viewer must not hold %s", capability)
		}
	}
	if !Can(RoleViewer, CapLeaveApply) {
		t.Fatal("viewer must be able to apply for leave")
	}
}

func TestFinanceDrivesPayrollOnly(t *testing.T) {
	if !Can(RoleFinance, CapPayrollManage) {
		t.Fatal("finance must manage payroll")
	}
	if Can(RoleFinance, CapLeaveDecide) {
		t.Fatal("finance must not approve leave")
	}
}

func TestMasterHoldsEverything(t *testing.T) {
	for _, capability := range AllCapabilities {
		if !Can(RoleMaster, capability) {
			t.Fatalf("master missing %s", capability)
		}
	}
}

func TestHardDeleteIsMasterOnly(t *testing.T) {
	for _, role := range []string{RoleViewer, RoleHR, RoleFinance, RoleAdmin} {
		if Can(role, CapLeaveHardDelete) {
			t.Fatalf("role %s must not hard-delete leave records", role)
		}
	}
}

func TestUnknownRoleHasNothing(t *testing.T) {
	if Can("Intern", CapLeaveRead) {
		t.Fatal("unknown role must hold no capabilities")
	}
	if KnownRole("Intern") {
		t.Fatal("unknown role reported as known")
	}
}
