// Package invite implements the invitation token codec: token generation,
// invite record construction, and validation against an embedded invite list.
//
// The codec is pure: Validate never mutates storage. A caller that receives
// an expired result owns pruning the stale record from its parent's list
// (lazy cleanup; there is no background sweep).
package invite

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirastama/manpro/internal/app/system/normalize"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Expiry is the fixed invitation lifetime.
const Expiry = 7 * 24 * time.Hour

// tokenBytes gives 128 bits of entropy; hex-encoded tokens are URL-safe.
const tokenBytes = 16

// GenerateToken returns a cryptographically random opaque token.
func GenerateToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the process has no usable entropy
		// source; nothing sensible can continue.
		panic("invite: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

// Options carries the optional fields of an invitation.
type Options struct {
	Role      string
	InvitedBy *primitive.ObjectID
}

// New builds an invitation record expiring Expiry from now.
func New(email, token string, opts Options) models.Invite {
	now := time.Now().UTC()
	return models.Invite{
		Email:     normalize.Email(email),
		Token:     token,
		Role:      normalize.Role(opts.Role),
		InvitedBy: opts.InvitedBy,
		CreatedAt: now,
		ExpiresAt: now.Add(Expiry),
	}
}

// Validation is the outcome of scanning an invite list for a token.
type Validation struct {
	Valid   bool
	Expired bool
	Invite  models.Invite // set when a matching record was found (even if expired)
}

// Validate scans invites for a record carrying token.
//
//	no match            → {Valid: false, Expired: false}
//	match, past expiry  → {Valid: false, Expired: true, Invite: rec}
//	match, unexpired    → {Valid: true, Invite: rec}
func Validate(invites []models.Invite, token string) Validation {
	if token == "" {
		return Validation{}
	}
	for _, inv := range invites {
		if inv.Token != token {
			continue
		}
		if time.Now().After(inv.ExpiresAt) {
			return Validation{Expired: true, Invite: inv}
		}
		return Validation{Valid: true, Invite: inv}
	}
	return Validation{}
}
