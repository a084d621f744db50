// internal/app/features/tasks/types.go
package tasks

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createRequest struct {
	Name        string `json:"nama"`
	Description string `json:"description"`
}

// updateRequest replaces the mutable fields; a groupId pointing at another
// group moves the task there.
type updateRequest struct {
	Name        string              `json:"nama"`
	Description string              `json:"description"`
	GroupID     *primitive.ObjectID `json:"groupId"`
}

type picInviteRequest struct {
	Email string `json:"email"`
}

type picInviteResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type removePicRequest struct {
	UserID primitive.ObjectID `json:"userId"`
}

// picAcceptRequest carries registration data for invitees without an
// account, same contract as workspace invite acceptance.
type picAcceptRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Phone      string `json:"noHp"`
	Position   string `json:"posisi"`
	Department string `json:"departemen"`
	Division   string `json:"divisi"`
}

type picVerifyResponse struct {
	Task              string    `json:"task"`
	Workspace         string    `json:"workspace"`
	Email             string    `json:"email"`
	ExpiresAt         time.Time `json:"expires_at"`
	NeedsRegistration bool      `json:"needs_registration"`
}
