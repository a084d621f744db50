// Package auth issues and verifies bearer tokens and injects the
// authenticated user into the request context.
//
// Tokens carry only the user id; the full user document is fetched fresh on
// every request so role and membership changes take effect immediately.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/domain/models"
)

// UserFetcher loads a user by their hex object id. Implemented by the users
// store; kept as an interface so middleware tests can stub it.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*models.User, error)
}

// Claims is the JWT payload. Subject holds the user's hex object id.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens for one secret.
type Manager struct {
	secret []byte
	expiry time.Duration
	log    *zap.Logger
}

func NewManager(secret string, expiry time.Duration, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{secret: []byte(secret), expiry: expiry, log: log}
}

// IssueToken mints a signed token for the given user.
func (m *Manager) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and returns the claims.
func (m *Manager) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Context plumbing                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user and a found flag.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user directly into the request context. For handler
// tests only.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Authenticate rejects requests without a valid bearer token and loads the
// full user document into the context.
func (m *Manager) Authenticate(users UserFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpjson.Fail(w, http.StatusUnauthorized, "anda tidak punya akses")
				return
			}

			claims, err := m.ParseToken(raw)
			if err != nil {
				httpjson.Fail(w, http.StatusUnauthorized, "anda tidak punya akses")
				return
			}

			user, err := users.FetchUser(r.Context(), claims.Subject)
			if err != nil || user == nil {
				if err != nil {
					m.log.Warn("auth: fetch user failed",
						zap.String("user_id", claims.Subject), zap.Error(err))
				}
				httpjson.Fail(w, http.StatusUnauthorized, "anda tidak punya akses")
				return
			}

			next.ServeHTTP(w, withUser(r, user))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return raw, raw != ""
}
