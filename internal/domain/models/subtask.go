package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subtask is the leaf of the containment chain. Position orders subtasks
// inside their task for board views.
type Subtask struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"nama" json:"nama"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	TaskID      primitive.ObjectID   `bson:"task_id" json:"task_id"`
	PIC         []primitive.ObjectID `bson:"pic" json:"pic"`

	Status      string     `bson:"status" json:"status"`
	Priority    string     `bson:"priority,omitempty" json:"priority,omitempty"`
	Note        string     `bson:"note,omitempty" json:"note,omitempty"`
	Position    int        `bson:"position" json:"position"`
	MeetingDate *time.Time `bson:"meeting_date,omitempty" json:"meeting_date,omitempty"`
	StartDate   *time.Time `bson:"start_date,omitempty" json:"start_date,omitempty"`
	DueDate     *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`
	FinishDate  *time.Time `bson:"finish_date,omitempty" json:"finish_date,omitempty"`

	PendingPicInvites []Invite `bson:"pending_pic_invites" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
