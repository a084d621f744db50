package userstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/timeouts"
	"github.com/wirastama/manpro/internal/domain/models"
)

// FetchUser loads a fresh user document for the auth middleware on every
// request, so role and membership changes take effect without re-login.
// Implements auth.UserFetcher.
func (s *Store) FetchUser(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.NotFound("user")
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	return s.GetByID(ctx, oid)
}
