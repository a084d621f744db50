package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a direct child of a project and parent of tasks.
type Group struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"nama" json:"nama"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	ProjectID   primitive.ObjectID   `bson:"project_id" json:"project_id"`
	Tasks       []primitive.ObjectID `bson:"tasks" json:"tasks"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
