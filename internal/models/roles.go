package models

// Role представляет уровень привилегий пользователя в системе.
// Роли упорядочены по возрастанию привилегий: staff < manager < owner < superadmin.
type Role string

// Fixed four-level role hierarchy. Superadmin is unrestricted and bypasses
// tenant scoping; every other role is bound to its own site.
const (
	RoleStaff      Role = "staff"
	RoleManager    Role = "manager"
	RoleOwner      Role = "owner"
	RoleSuperadmin Role = "superadmin"
)

// roleLevels maps roles to their privilege level for ordering comparisons.
var roleLevels = map[Role]int{
	RoleStaff:      1,
	RoleManager:    2,
	RoleOwner:      3,
	RoleSuperadmin: 4,
}

// IsValid reports whether the role is one of the four known roles.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the numeric privilege level of the role (0 for unknown roles).
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether the role has privileges equal to or above other.
func (r Role) AtLeast(other Role) bool {
	return roleLevels[r] >= roleLevels[other]
}

// Actor identifies who performed a mutation: the user and the role they held
// at the time, plus their home site for tenant scoping.
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	SiteID string `json:"site_id"`
}
