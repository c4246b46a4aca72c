package domain

// Role is the platform role enumeration. Roles are fixed; permission lists
// are derived from them at token issuance time and travel inside the token,
// so a role change only takes effect when tokens are re-issued.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleSchoolAdmin Role = "school_admin"
	RoleStaff       Role = "staff"
	RoleTeacher     Role = "teacher"
	RoleParent      Role = "parent"
	RoleStudent     Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSchoolAdmin, RoleStaff, RoleTeacher, RoleParent, RoleStudent:
		return true
	}
	return false
}

// rolePermissions maps each role to its capability strings. Higher roles are
// written out in full rather than composed, so an auditor can read a role's
// effective permissions in one place.
var rolePermissions = map[Role][]string{
	RoleAdmin: {
		"users:read", "users:write",
		"orders:read", "orders:write",
		"invoices:read", "invoices:write",
		"billing:read", "billing:write",
		"rfid:read", "rfid:write",
		"notifications:send",
		"schools:read", "schools:write",
	},
	RoleSchoolAdmin: {
		"users:read",
		"orders:read", "orders:write",
		"invoices:read",
		"rfid:read", "rfid:write",
		"notifications:send",
		"schools:read",
	},
	RoleStaff: {
		"orders:read", "orders:write",
		"rfid:read",
	},
	RoleTeacher: {
		"orders:read",
		"notifications:send",
	},
	RoleParent: {
		"orders:read", "orders:write",
		"invoices:read",
	},
	RoleStudent: {
		"orders:read",
	},
}

// Permissions returns the capability strings for the role. Unknown roles get
// no permissions rather than an error; a token with an empty permission list
// cannot do anything.
func (r Role) Permissions() []string {
	perms, ok := rolePermissions[r]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
