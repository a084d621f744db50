package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is one entry in a workspace's membership roster. The owner is never
// duplicated here: ownership is recorded only on Workspace.OwnerID and always
// evaluates to at least the admin role.
type Member struct {
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role    string             `bson:"role" json:"role"`
	AddedAt time.Time          `bson:"added_at" json:"added_at"`
}

// Workspace is the top-level tenant container. Projects belong to exactly one
// workspace; every leaf entity (task, subtask) is reachable from exactly one
// workspace by walking parent references.
type Workspace struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"nama" json:"nama"`
	OwnerID primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	Members []Member `bson:"members" json:"members"`

	// PendingInvites holds unconsumed membership invitations. A token in this
	// list is unique and single-use; acceptance or detected expiry removes it.
	PendingInvites []Invite `bson:"pending_invites" json:"-"`

	// Projects is the denormalized child list, maintained by the project
	// store on create/delete.
	Projects []primitive.ObjectID `bson:"projects" json:"projects"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MemberRole returns the stored role for userID, or RoleNone when userID has
// no entry in the roster. Owner and system-admin bypass are the access
// evaluator's concern, not this lookup's.
func (w Workspace) MemberRole(userID primitive.ObjectID) string {
	for _, m := range w.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return RoleNone
}

// HasMember reports whether userID appears in the roster.
func (w Workspace) HasMember(userID primitive.ObjectID) bool {
	return w.MemberRole(userID) != RoleNone
}
