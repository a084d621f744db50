package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/wirastama/manpro/internal/domain/models"
)

type stubFetcher struct {
	users map[string]*models.User
	err   error
}

func (s *stubFetcher) FetchUser(_ context.Context, userID string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[userID], nil
}

func okHandler(t *testing.T, wantUser bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := CurrentUser(r)
		if ok != wantUser {
			t.Errorf("CurrentUser present = %v, want %v", ok, wantUser)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestIssueAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour, zap.NewNop())

	id := primitive.NewObjectID().Hex()
	tok, err := m.IssueToken(id)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := m.ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != id {
		t.Errorf("subject: got %q, want %q", claims.Subject, id)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m := NewManager("secret-a", time.Hour, zap.NewNop())
	other := NewManager("secret-b", time.Hour, zap.NewNop())

	tok, err := m.IssueToken(primitive.NewObjectID().Hex())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := other.ParseToken(tok); err == nil {
		t.Error("expected verification failure with a different secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, zap.NewNop())

	tok, err := m.IssueToken(primitive.NewObjectID().Hex())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := m.ParseToken(tok); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestAuthenticate(t *testing.T) {
	m := NewManager("test-secret", time.Hour, zap.NewNop())
	user := &models.User{ID: primitive.NewObjectID(), Username: "budi"}
	fetcher := &stubFetcher{users: map[string]*models.User{user.ID.Hex(): user}}

	tok, err := m.IssueToken(user.ID.Hex())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + tok, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			m.Authenticate(fetcher)(okHandler(t, tt.want == http.StatusOK)).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	m := NewManager("test-secret", time.Hour, zap.NewNop())
	fetcher := &stubFetcher{users: map[string]*models.User{}}

	tok, err := m.IssueToken(primitive.NewObjectID().Hex())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	m.Authenticate(fetcher)(okHandler(t, false)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticate_FetchError(t *testing.T) {
	m := NewManager("test-secret", time.Hour, zap.NewNop())
	fetcher := &stubFetcher{err: errors.New("db down")}

	tok, err := m.IssueToken(primitive.NewObjectID().Hex())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	m.Authenticate(fetcher)(okHandler(t, false)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestWithTestUser(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Username: "siti"}
	req := WithTestUser(httptest.NewRequest(http.MethodGet, "/", nil), user)

	got, ok := CurrentUser(req)
	if !ok {
		t.Fatal("expected user in context")
	}
	if got.Username != "siti" {
		t.Errorf("username: got %q", got.Username)
	}
}
