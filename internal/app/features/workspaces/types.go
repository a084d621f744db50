// internal/app/features/workspaces/types.go
package workspaces

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memberSummary is the membership confirmation shape shared by the
// direct-add and acceptance responses.
type memberSummary struct {
	UserID   primitive.ObjectID `json:"userId"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Role     string             `json:"role"`
}

type createRequest struct {
	Name string `json:"nama"`
}

type updateRequest struct {
	Name string `json:"nama"`
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type inviteResponse struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// acceptRequest carries registration data for invitees without an account.
// All fields are ignored when the invited email already has one.
type acceptRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Phone      string `json:"noHp"`
	Position   string `json:"posisi"`
	Department string `json:"departemen"`
	Division   string `json:"divisi"`
}

type acceptResponse struct {
	Workspace string        `json:"workspace"`
	Member    memberSummary `json:"member"`
}

type verifyResponse struct {
	WorkspaceName string    `json:"workspace"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	ExpiresAt     time.Time `json:"expires_at"`

	// NeedsRegistration tells the client to collect account fields before
	// calling accept.
	NeedsRegistration bool `json:"needs_registration"`
}
