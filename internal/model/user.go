package model

import "time"

// Role is the access level assigned to a user account. Roles map to a
// fixed capability set resolved once per identity (see Capabilities).
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
)

// Capability names a single permitted action group. Handlers guard
// routes with RequireCapability rather than comparing role strings.
type Capability string

const (
	CapManageUsers   Capability = "users:manage"
	CapIssueInvoices Capability = "invoices:issue"
	CapViewReports   Capability = "reports:view"
)

// roleCaps is the fixed role → capability mapping. It is intentionally a
// static table: permissions are resolved from the role enum, never
// recomputed per check from dynamic data.
var roleCaps = map[Role]map[Capability]bool{
	RoleSuperadmin: {CapManageUsers: true, CapIssueInvoices: true, CapViewReports: true},
	RoleAdmin:      {CapManageUsers: true, CapIssueInvoices: true, CapViewReports: true},
	RoleEmployee:   {CapIssueInvoices: true, CapViewReports: true},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCaps[r]
	return ok
}

// Can reports whether the role grants the given capability. Unknown
// roles grant nothing.
func (r Role) Can(c Capability) bool {
	return roleCaps[r][c]
}

// User mirrors the `users` table.
type User struct {
	ID           int64     // users.id
	Email        string    // users.email (stored lowercased)
	Name         string    // users.name
	PasswordHash string    // users.password_hash, never serialized
	Role         Role      // users.role
	CreatedAt    time.Time // users.created_at
}
