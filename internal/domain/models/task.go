package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a direct child of a group and parent of subtasks. PIC (person in
// charge) assignment is tracked on the pic array, mirrored against
// User.assigned_tasks.
type Task struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"nama" json:"nama"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	GroupID     primitive.ObjectID   `bson:"group_id" json:"group_id"`
	Subtasks    []primitive.ObjectID `bson:"subtasks" json:"subtasks"`
	PIC         []primitive.ObjectID `bson:"pic" json:"pic"`

	// PendingPicInvites holds unconsumed "become PIC of this task"
	// invitations; same shape and lifecycle as workspace invites.
	PendingPicInvites []Invite `bson:"pending_pic_invites" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
