package auth

// Actor is the resolved identity every engine call receives. Credential
// validation happens outside the engine; by the time an Actor exists the
// caller is authenticated.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       string
}

func (a Actor) Can(capability string) bool {
	return Can(a.Role, capability)
}
