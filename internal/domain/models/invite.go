package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invite is a single-use, time-boxed invitation embedded on its owning
// entity: Workspace.pending_invites for membership invites, and
// Task/Subtask.pending_pic_invites for person-in-charge invites.
//
// Lifecycle: created by an inviter, consumed exactly once by a matching
// accept, or pruned lazily when a lookup finds it expired. Tokens are opaque
// random strings and are never reused across invitations.
type Invite struct {
	Email     string              `bson:"email" json:"email"`
	Token     string              `bson:"token" json:"-"`
	Role      string              `bson:"role,omitempty" json:"role,omitempty"`
	InvitedBy *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time           `bson:"expires_at" json:"expires_at"`
}
