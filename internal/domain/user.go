package domain

import "slices"

type Role string

const (
	RoleClient          Role = "client"
	RoleAdmin           Role = "admin"
	RoleSalesTeam       Role = "sales-team"
	RoleSalesManager    Role = "sales-manager"
	RoleReferralPartner Role = "referral-partner"
	RoleWritingTeam     Role = "writing-team"
)

// Roles lists every role a user profile may hold.
var Roles = []Role{
	RoleClient,
	RoleAdmin,
	RoleSalesTeam,
	RoleSalesManager,
	RoleReferralPartner,
	RoleWritingTeam,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// IsStaff reports whether r belongs to internal staff (anyone who may own a lead or project).
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleSalesTeam, RoleSalesManager, RoleWritingTeam:
		return true
	}
	return false
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UID  string `json:"uid"`
	Role Role   `json:"role"`
}

// Is reports whether the actor holds one of the given roles.
func (a Actor) Is(roles ...Role) bool {
	return slices.Contains(roles, a.Role)
}
