// internal/app/features/subtasks/types.go
package subtasks

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createRequest struct {
	Name        string     `json:"nama"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Note        string     `json:"note"`
	MeetingDate *time.Time `json:"meeting_date"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

// updateRequest is a sparse patch: absent fields are left unchanged. A
// taskId pointing at another task moves the subtask there.
type updateRequest struct {
	Name        *string             `json:"nama"`
	Description *string             `json:"description"`
	Status      *string             `json:"status"`
	Priority    *string             `json:"priority"`
	Note        *string             `json:"note"`
	MeetingDate *time.Time          `json:"meeting_date"`
	StartDate   *time.Time          `json:"start_date"`
	DueDate     *time.Time          `json:"due_date"`
	FinishDate  *time.Time          `json:"finish_date"`
	TaskID      *primitive.ObjectID `json:"taskId"`
}

type reorderRequest struct {
	Order []primitive.ObjectID `json:"order"`
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

type picAcceptRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Phone      string `json:"noHp"`
	Position   string `json:"posisi"`
	Department string `json:"departemen"`
	Division   string `json:"divisi"`
}

type picVerifyResponse struct {
	Subtask           string    `json:"subtask"`
	Workspace         string    `json:"workspace"`
	Email             string    `json:"email"`
	ExpiresAt         time.Time `json:"expires_at"`
	NeedsRegistration bool      `json:"needs_registration"`
}
