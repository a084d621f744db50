// Package access evaluates what a user may do inside a workspace.
//
// Role resolution order: system admins outrank everything, the workspace
// owner is always an admin, otherwise the role comes from the membership
// list. Users with no relation at all resolve to RoleNone.
package access

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Principal is a user's resolved standing in one workspace.
type Principal struct {
	UserID      primitive.ObjectID
	WorkspaceID primitive.ObjectID
	Role        string
}

// IsSystemAdmin reports whether the principal bypasses workspace checks.
func (p Principal) IsSystemAdmin() bool { return p.Role == models.RoleSystemAdmin }

// RoleFor resolves the effective role of user within ws.
func RoleFor(user *models.User, ws *models.Workspace) string {
	if user == nil || ws == nil {
		return models.RoleNone
	}
	if user.IsSystemAdmin {
		return models.RoleSystemAdmin
	}
	if ws.OwnerID == user.ID {
		return models.RoleAdmin
	}
	return ws.MemberRole(user.ID)
}

// PrincipalFor resolves user's standing in ws.
func PrincipalFor(user *models.User, ws *models.Workspace) Principal {
	return Principal{
		UserID:      user.ID,
		WorkspaceID: ws.ID,
		Role:        RoleFor(user, ws),
	}
}

// Authorize checks the principal's role against the allowed set. System
// admins always pass. Non-members get ErrNotAMember so callers can
// distinguish "outsider" from "member without the right role". An empty
// allowed set means membership alone is enough: any member role passes.
func Authorize(p Principal, allowed ...string) error {
	if p.IsSystemAdmin() {
		return nil
	}
	if p.Role == models.RoleNone {
		return apperr.ErrNotAMember
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if p.Role == role {
			return nil
		}
	}
	return apperr.Forbidden(allowed, p.Role)
}

// Require resolves and authorizes in one step.
func Require(user *models.User, ws *models.Workspace, allowed ...string) (Principal, error) {
	p := PrincipalFor(user, ws)
	if err := Authorize(p, allowed...); err != nil {
		return Principal{}, err
	}
	return p, nil
}

// ManagementRoles are the roles allowed to mutate workspace structure and
// membership.
var ManagementRoles = []string{models.RoleAdmin, models.RoleProjectManager}

// ContributorRoles are the roles allowed to create and edit work items.
var ContributorRoles = []string{models.RoleAdmin, models.RoleProjectManager, models.RoleMember}

// ReaderRoles are all roles that may view workspace content.
var ReaderRoles = []string{models.RoleAdmin, models.RoleProjectManager, models.RoleMember, models.RoleViewer}
