// Package permissions implements the pure role→permission lookup used by the
// commit, audit and rollback paths. It performs no I/O and has no failure
// modes beyond returning false: the same matrix must be enforced wherever a
// decision is made, so callers never cache or reinterpret results.
package permissions

import "github.com/jtomassoni/mmb-sub000/internal/models"

// Action is a permission-gated operation on a resource.
type Action string

// Gated actions.
const (
	ActionRead     Action = "read"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionRollback Action = "rollback"
)

// matrix is the fixed role→action permission table. Superadmin is handled
// separately (unrestricted).
var matrix = map[models.Role]map[Action]bool{
	models.RoleStaff: {
		ActionRead: true,
	},
	models.RoleManager: {
		ActionRead:     true,
		ActionCreate:   true,
		ActionUpdate:   true,
		ActionRollback: true,
	},
	models.RoleOwner: {
		ActionRead:     true,
		ActionCreate:   true,
		ActionUpdate:   true,
		ActionDelete:   true,
		ActionRollback: true,
	},
}

// Allowed reports whether the role may perform the action on the given
// resource kind. Unknown roles and unknown kinds are always denied.
func Allowed(role models.Role, kind models.ResourceKind, action Action) bool {
	if !role.IsValid() || !kind.IsValid() {
		return false
	}
	if role == models.RoleSuperadmin {
		return true
	}
	return matrix[role][action]
}

// CanAccessSite reports whether the role may touch resources of targetSiteID.
// Superadmin bypasses tenant scoping; every other role requires the user's
// own site to match the target.
func CanAccessSite(role models.Role, userSiteID, targetSiteID string) bool {
	if role == models.RoleSuperadmin {
		return true
	}
	return userSiteID != "" && userSiteID == targetSiteID
}

// Check combines the action and tenant-scope checks for one actor against
// one resource. Возвращает PermissionError при любом отказе.
func Check(actor models.Actor, ref models.ResourceRef, action Action) error {
	if !CanAccessSite(actor.Role, actor.SiteID, ref.SiteID) ||
		!Allowed(actor.Role, ref.Kind, action) {
		return &models.PermissionError{Actor: actor, Action: string(action), Ref: ref}
	}
	return nil
}
