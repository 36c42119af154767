package authz

const (
	RoleUser    = 10
	RoleSupport = 20
	RoleAudit   = 30
	RoleAdmin   = 50
)

func IsElevated(roleID int) bool {
	return roleID == RoleSupport || roleID == RoleAdmin
}

func IsReadOnly(roleID int) bool {
	return roleID == RoleAudit
}
