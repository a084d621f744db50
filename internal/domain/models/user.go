package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserWorkspace is one entry in a user's denormalized workspace-membership
// list. It mirrors Workspace.members: for every active membership the pair
// (Workspace.members[].user_id, User.workspaces[].workspace_id) must agree
// on both existence and role. The membership mutator is the only writer of
// either side.
type UserWorkspace struct {
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Role        string             `bson:"role" json:"role"`
}

// User represents an account. Email is unique across the system and is the
// identity key for invitation flows (find-or-create at accept time).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Phone        string             `bson:"no_hp" json:"noHp"`
	Position     string             `bson:"posisi" json:"posisi"`
	Department   string             `bson:"departemen,omitempty" json:"departemen,omitempty"`
	Division     string             `bson:"divisi,omitempty" json:"divisi,omitempty"`

	// IsSystemAdmin bypasses every workspace role check. This is a deliberate
	// global escape hatch evaluated by the access evaluator, not a bug.
	IsSystemAdmin bool `bson:"is_system_admin,omitempty" json:"is_system_admin,omitempty"`

	// Workspaces mirrors workspace membership; see UserWorkspace. A
	// (user, workspace) pair appears at most once.
	Workspaces []UserWorkspace `bson:"workspaces" json:"workspaces"`

	// Leaf entities this user is a person-in-charge of, mirrored against the
	// pic arrays on tasks and subtasks.
	AssignedTasks    []primitive.ObjectID `bson:"assigned_tasks" json:"assigned_tasks"`
	AssignedSubtasks []primitive.ObjectID `bson:"assigned_subtasks" json:"assigned_subtasks"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// WorkspaceRole returns the role recorded on the user's own membership
// mirror, or RoleNone when the workspace is absent from it.
func (u User) WorkspaceRole(workspaceID primitive.ObjectID) string {
	for _, w := range u.Workspaces {
		if w.WorkspaceID == workspaceID {
			return w.Role
		}
	}
	return RoleNone
}
