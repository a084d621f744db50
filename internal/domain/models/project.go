package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a direct child of a workspace and parent of groups.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"nama" json:"nama"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Groups      []primitive.ObjectID `bson:"groups" json:"groups"`
	CreatedBy   primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
