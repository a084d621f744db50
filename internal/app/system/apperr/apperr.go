// Package apperr defines the error taxonomy shared by the core subsystems.
//
// Handlers never match on message strings: stores and services return these
// values (possibly wrapped with %w) and the HTTP boundary translates them to
// status codes in one place (httpjson.Error).
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidToken: no invite carries the presented token.
	ErrInvalidToken = errors.New("token tidak valid")

	// ErrExpiredToken: the invite exists but its expiry has passed. Callers
	// that observe this are responsible for pruning the stale record.
	ErrExpiredToken = errors.New("undangan sudah kedaluwarsa")

	// ErrIncompleteRegistration: an invite was accepted for an email with no
	// account and the required registration fields were not all supplied.
	ErrIncompleteRegistration = errors.New("data registrasi tidak lengkap (username, password, noHp, posisi wajib diisi)")

	// ErrNotAMember: the user has no relation to the workspace at all.
	// Distinct from Forbidden (role present but insufficient); the two map
	// to different user-facing messages.
	ErrNotAMember = errors.New("bukan anggota workspace")

	// ErrAlreadyMember: surfaced as a 400 on the invite-creation path only.
	// The acceptance path treats the same condition as idempotent success.
	ErrAlreadyMember = errors.New("user sudah menjadi anggota workspace")
)

// NotFoundError identifies which entity (or which level of the hierarchy
// chain) was missing, so boundaries can produce a precise 404.
type NotFoundError struct {
	Entity string // "workspace", "project", "group", "task", "subtask", "user", "comment"
}

func (e *NotFoundError) Error() string {
	return e.Entity + " tidak ditemukan"
}

// NotFound builds a NotFoundError for the named entity.
func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ForbiddenError carries the allow-list that gated the action and the role
// the user actually resolved to.
type ForbiddenError struct {
	Required []string
	Actual   string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("tidak punya akses (butuh salah satu dari: %s, role anda: %s)",
		strings.Join(e.Required, ", "), e.Actual)
}

// Forbidden builds a ForbiddenError.
func Forbidden(required []string, actual string) error {
	return &ForbiddenError{Required: required, Actual: actual}
}

// IsForbidden reports whether err is (or wraps) a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}
