package models

// Workspace-scoped roles, ordered from most to least privileged.
//
// RoleSystemAdmin is not a workspace role: it is the sentinel returned by the
// access evaluator for users whose IsSystemAdmin flag is set. It bypasses
// every allow-list in the system. RoleNone is the sentinel for "no relation
// to this workspace at all" and is distinct from an insufficient role.
const (
	RoleAdmin          = "admin"
	RoleProjectManager = "project_manager"
	RoleMember         = "member"
	RoleViewer         = "viewer"

	RoleSystemAdmin = "system_admin"
	RoleNone        = "none"
)

// WorkspaceRoles lists the roles that may be stored on a membership.
var WorkspaceRoles = []string{RoleAdmin, RoleProjectManager, RoleMember, RoleViewer}

// IsValidWorkspaceRole reports whether value is a storable workspace role.
// The sentinels (system_admin, none) are never stored and are not valid here.
func IsValidWorkspaceRole(value string) bool {
	for _, r := range WorkspaceRoles {
		if r == value {
			return true
		}
	}
	return false
}
