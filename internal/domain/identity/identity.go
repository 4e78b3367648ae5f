// Package identity carries the authenticated caller through every core
// operation. The transport layer resolves tokens into an Identity; the
// domain never reads ambient session state.
package identity

// Role is the access level of an authenticated user.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleStaff    Role = "Staff"
	RoleAdmin    Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r grants back-office access.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Identity is the authenticated caller of an operation.
type Identity struct {
	UserID int64
	Role   Role
}
