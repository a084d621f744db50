package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a discussion entry on a task. Body is stored already sanitized;
// raw user input never reaches the collection.
type Comment struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID   primitive.ObjectID `bson:"task_id" json:"task_id"`
	AuthorID primitive.ObjectID `bson:"author_id" json:"author_id"`
	Body     string             `bson:"body" json:"body"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
