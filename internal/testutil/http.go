package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirastama/manpro/internal/app/system/auth"
	"github.com/wirastama/manpro/internal/domain/models"
)

// NewUser returns an in-memory user for handler tests.
func NewUser(email string) *models.User {
	return &models.User{
		ID:               primitive.NewObjectID(),
		Username:         "Test User",
		Email:            email,
		Phone:            "081234567890",
		Position:         "staff",
		Workspaces:       []models.UserWorkspace{},
		AssignedTasks:    []primitive.ObjectID{},
		AssignedSubtasks: []primitive.ObjectID{},
	}
}

// NewSystemAdmin returns an in-memory user with the global bypass flag set.
func NewSystemAdmin(email string) *models.User {
	u := NewUser(email)
	u.IsSystemAdmin = true
	return u
}

// WithUser adds a user to the request context, bypassing the bearer-token
// middleware.
func WithUser(r *http.Request, user *models.User) *http.Request {
	return auth.WithTestUser(r, user)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request carrying a JSON body.
func NewJSONRequest(method, target string, body any) *http.Request {
	buf, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user *models.User) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// DecodeEnvelope parses the standard response envelope.
func (r *ResponseRecorder) DecodeEnvelope(t interface {
	Fatalf(string, ...any)
}) map[string]any {
	var body map[string]any
	if err := json.Unmarshal(r.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a JSON envelope: %v", err)
	}
	return body
}
