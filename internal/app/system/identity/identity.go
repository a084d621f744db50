// Package identity maps an invited email address to a user account,
// creating the account on first acceptance. Email is the only identity key
// in the invitation flow.
package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	userstore "github.com/wirastama/manpro/internal/app/store/users"
	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Registration carries the fields required to create an account during
// invite acceptance. All four required fields must be present; optional
// fields may be empty.
type Registration struct {
	Username   string
	Password   string
	Phone      string
	Position   string
	Department string
	Division   string
}

func (r *Registration) complete() bool {
	return r != nil && r.Username != "" && r.Password != "" && r.Phone != "" && r.Position != ""
}

type Resolver struct {
	users *userstore.Store
}

func New(users *userstore.Store) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the account for email, creating it from reg when none
// exists. The created flag tells the caller whether a new account was made.
//
// A concurrent Resolve for the same email can race past the lookup; the
// unique email index rejects the second insert and we refetch the winner, so
// both callers converge on one account.
func (r *Resolver) Resolve(ctx context.Context, email string, reg *Registration) (*models.User, bool, error) {
	user, err := r.users.GetByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, false, err
	}

	if !reg.complete() {
		return nil, false, apperr.ErrIncompleteRegistration
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, false, err
	}

	created, err := r.users.Create(ctx, models.User{
		Username:     reg.Username,
		Email:        email,
		PasswordHash: hash,
		Phone:        reg.Phone,
		Position:     reg.Position,
		Department:   reg.Department,
		Division:     reg.Division,
	})
	if err == nil {
		return &created, true, nil
	}
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		return nil, false, err
	}

	// Lost the race: another request created the account between our lookup
	// and insert.
	user, err = r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return user, false, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
