// internal/app/features/members/types.go
package members

import "go.mongodb.org/mongo-driver/bson/primitive"

type updateRoleRequest struct {
	Role string `json:"role"`
}

// memberView is one roster entry. The owner is listed with the synthetic
// admin role and IsOwner set.
type memberView struct {
	UserID   primitive.ObjectID `json:"userId"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Position string             `json:"posisi,omitempty"`
	Role     string             `json:"role"`
	IsOwner  bool               `json:"is_owner,omitempty"`
}
