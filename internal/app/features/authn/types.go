// internal/app/features/authn/types.go
package authn

import "github.com/wirastama/manpro/internal/domain/models"

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"noHp"`
	Position   string `json:"posisi"`
	Department string `json:"departemen"`
	Division   string `json:"divisi"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}
