package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wirastama/manpro/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a test user with the given email.
func (f *Fixtures) CreateUser(ctx context.Context, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:               primitive.NewObjectID(),
		Username:         "user-" + primitive.NewObjectID().Hex()[:8],
		Email:            email,
		PasswordHash:     "$2a$10$fixturefixturefixturefixturefixturefixtu",
		Phone:            "081234567890",
		Position:         "staff",
		Workspaces:       []models.UserWorkspace{},
		AssignedTasks:    []primitive.ObjectID{},
		AssignedSubtasks: []primitive.ObjectID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateSystemAdmin inserts a test user with the global bypass flag set.
func (f *Fixtures) CreateSystemAdmin(ctx context.Context, email string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, email)
	u.IsSystemAdmin = true
	if _, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"is_system_admin": true}}); err != nil {
		f.t.Fatalf("failed to flag system admin: %v", err)
	}
	return u
}

// CreateWorkspace inserts a test workspace owned by ownerID.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name string, ownerID primitive.ObjectID) models.Workspace {
	f.t.Helper()

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:             primitive.NewObjectID(),
		Name:           name,
		OwnerID:        ownerID,
		Members:        []models.Member{},
		PendingInvites: []models.Invite{},
		Projects:       []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("workspaces").InsertOne(ctx, ws); err != nil {
		f.t.Fatalf("failed to create test workspace: %v", err)
	}
	return ws
}

// AddMember writes both sides of the membership mirror directly. For
// arranging test state only; production code goes through the membership
// mutator.
func (f *Fixtures) AddMember(ctx context.Context, ws models.Workspace, userID primitive.ObjectID, role string) {
	f.t.Helper()

	now := time.Now().UTC()
	if _, err := f.db.Collection("workspaces").UpdateOne(ctx,
		bson.M{"_id": ws.ID},
		bson.M{"$push": bson.M{"members": models.Member{UserID: userID, Role: role, AddedAt: now}}}); err != nil {
		f.t.Fatalf("failed to add member to workspace: %v", err)
	}
	if _, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"workspaces": models.UserWorkspace{WorkspaceID: ws.ID, Role: role}}}); err != nil {
		f.t.Fatalf("failed to mirror membership on user: %v", err)
	}
}

// PushInvite appends a pending invite directly onto the workspace document.
func (f *Fixtures) PushInvite(ctx context.Context, wsID primitive.ObjectID, inv models.Invite) {
	f.t.Helper()

	if _, err := f.db.Collection("workspaces").UpdateOne(ctx,
		bson.M{"_id": wsID},
		bson.M{"$push": bson.M{"pending_invites": inv}}); err != nil {
		f.t.Fatalf("failed to push invite: %v", err)
	}
}

// CreateProject inserts a test project under the workspace and links it.
func (f *Fixtures) CreateProject(ctx context.Context, name string, wsID primitive.ObjectID) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		WorkspaceID: wsID,
		Groups:      []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	if _, err := f.db.Collection("workspaces").UpdateOne(ctx,
		bson.M{"_id": wsID},
		bson.M{"$push": bson.M{"projects": p.ID}}); err != nil {
		f.t.Fatalf("failed to link project to workspace: %v", err)
	}
	return p
}

// CreateGroup inserts a test group under the project and links it.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, projectID primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		ProjectID: projectID,
		Tasks:     []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	if _, err := f.db.Collection("projects").UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$push": bson.M{"groups": g.ID}}); err != nil {
		f.t.Fatalf("failed to link group to project: %v", err)
	}
	return g
}

// CreateTask inserts a test task under the group and links it.
func (f *Fixtures) CreateTask(ctx context.Context, name string, groupID primitive.ObjectID) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:                primitive.NewObjectID(),
		Name:              name,
		GroupID:           groupID,
		Subtasks:          []primitive.ObjectID{},
		PIC:               []primitive.ObjectID{},
		PendingPicInvites: []models.Invite{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	if _, err := f.db.Collection("groups").UpdateOne(ctx,
		bson.M{"_id": groupID},
		bson.M{"$push": bson.M{"tasks": task.ID}}); err != nil {
		f.t.Fatalf("failed to link task to group: %v", err)
	}
	return task
}

// CreateSubtask inserts a test subtask under the task and links it.
func (f *Fixtures) CreateSubtask(ctx context.Context, name string, taskID primitive.ObjectID, position int) models.Subtask {
	f.t.Helper()

	now := time.Now().UTC()
	st := models.Subtask{
		ID:                primitive.NewObjectID(),
		Name:              name,
		TaskID:            taskID,
		PIC:               []primitive.ObjectID{},
		Status:            "todo",
		Position:          position,
		PendingPicInvites: []models.Invite{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("subtasks").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test subtask: %v", err)
	}
	if _, err := f.db.Collection("tasks").UpdateOne(ctx,
		bson.M{"_id": taskID},
		bson.M{"$push": bson.M{"subtasks": st.ID}}); err != nil {
		f.t.Fatalf("failed to link subtask to task: %v", err)
	}
	return st
}
