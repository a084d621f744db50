package tasks

import (
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	commentstore "github.com/wirastama/manpro/internal/app/store/comments"
	groupstore "github.com/wirastama/manpro/internal/app/store/groups"
	projectstore "github.com/wirastama/manpro/internal/app/store/projects"
	subtaskstore "github.com/wirastama/manpro/internal/app/store/subtasks"
	taskstore "github.com/wirastama/manpro/internal/app/store/tasks"
	userstore "github.com/wirastama/manpro/internal/app/store/users"
	workspacestore "github.com/wirastama/manpro/internal/app/store/workspaces"
	"github.com/wirastama/manpro/internal/app/policy/workspacepolicy"
	"github.com/wirastama/manpro/internal/app/system/hierarchy"
	"github.com/wirastama/manpro/internal/app/system/identity"
	"github.com/wirastama/manpro/internal/app/system/invite"
	"github.com/wirastama/manpro/internal/app/system/mailer"
	"github.com/wirastama/manpro/internal/app/system/membership"
	"github.com/wirastama/manpro/internal/domain/models"
	"github.com/wirastama/manpro/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

type env struct {
	h  *Handler
	f  *testutil.Fixtures
	db *mongo.Database

	owner models.User
	ws    models.Workspace
	proj  models.Project
	group models.Group
	task  models.Task
}

func setup(t *testing.T) *env {
	t.Helper()

	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	store := taskstore.New(db)
	resolver := hierarchy.New(
		workspacestore.New(db),
		projectstore.New(db),
		groupstore.New(db),
		store,
		subtaskstore.New(db),
		commentstore.New(db),
	)
	h := NewHandler(
		store,
		users,
		workspacepolicy.New(resolver),
		resolver,
		membership.New(nil, db, zap.NewNop()),
		identity.New(users),
		mailer.New(mailer.Config{}, zap.NewNop()),
		"http://localhost:8080",
		zap.NewNop(),
	)

	owner := f.CreateUser(ctx, "owner@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	p := f.CreateProject(ctx, "Launch", ws.ID)
	g := f.CreateGroup(ctx, "Backend", p.ID)
	task := f.CreateTask(ctx, "API", g.ID)

	return &env{h: h, f: f, db: db, owner: owner, ws: ws, proj: p, group: g, task: task}
}

func (e *env) pendingToken(t *testing.T) string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var task models.Task
	if err := e.db.Collection("tasks").FindOne(ctx, bson.M{"_id": e.task.ID}).Decode(&task); err != nil {
		t.Fatal(err)
	}
	if len(task.PendingPicInvites) == 0 {
		t.Fatal("no pending pic invite stored")
	}
	return task.PendingPicInvites[len(task.PendingPicInvites)-1].Token
}

func TestInvitePIC_UnknownEmailThenAccept(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost,
		"/tasks/"+e.task.ID.Hex()+"/pic-invite",
		map[string]string{"email": "dian@test.com"}), &e.owner)
	req = testutil.WithChiURLParam(req, "taskID", e.task.ID.Hex())
	e.h.InvitePIC(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	token := e.pendingToken(t)

	// Accepting with registration creates the account, grants workspace
	// membership with the default role, and assigns PIC.
	rec = testutil.NewRecorder()
	req = testutil.NewJSONRequest(http.MethodPost,
		"/tasks/"+e.task.ID.Hex()+"/accept-pic-invite?token="+token,
		map[string]string{"username": "Dian", "password": "rahasia", "noHp": "0813", "posisi": "backend"})
	req = testutil.WithChiURLParam(req, "taskID", e.task.ID.Hex())
	e.h.AcceptPicInvite(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	user, err := userstore.New(e.db).GetByEmail(ctx, "dian@test.com")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if user.WorkspaceRole(e.ws.ID) != models.RoleMember {
		t.Errorf("membership role: got %q", user.WorkspaceRole(e.ws.ID))
	}
	if len(user.AssignedTasks) != 1 || user.AssignedTasks[0] != e.task.ID {
		t.Error("assigned task mirror not written")
	}

	var task models.Task
	if err := e.db.Collection("tasks").FindOne(ctx, bson.M{"_id": e.task.ID}).Decode(&task); err != nil {
		t.Fatal(err)
	}
	if len(task.PIC) != 1 || task.PIC[0] != user.ID {
		t.Error("pic entry not written on task")
	}
	if len(task.PendingPicInvites) != 0 {
		t.Error("pic invite not consumed")
	}
}

func TestInvitePIC_ExistingUserAssignedDirectly(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	outsider := e.f.CreateUser(ctx, "dian@test.com")

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost,
		"/tasks/"+e.task.ID.Hex()+"/pic-invite",
		map[string]string{"email": "dian@test.com"}), &e.owner)
	req = testutil.WithChiURLParam(req, "taskID", e.task.ID.Hex())
	e.h.InvitePIC(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	// Membership is granted on the spot; no token round trip.
	user, err := userstore.New(e.db).GetByID(ctx, outsider.ID)
	if err != nil {
		t.Fatal(err)
	}
	if user.WorkspaceRole(e.ws.ID) != models.RoleMember {
		t.Errorf("membership role: got %q", user.WorkspaceRole(e.ws.ID))
	}

	var task models.Task
	if err := e.db.Collection("tasks").FindOne(ctx, bson.M{"_id": e.task.ID}).Decode(&task); err != nil {
		t.Fatal(err)
	}
	if len(task.PIC) != 1 || task.PIC[0] != outsider.ID {
		t.Error("pic entry not written on task")
	}
	if len(task.PendingPicInvites) != 0 {
		t.Error("direct assignment must not leave a pending invite")
	}
}

func TestAcceptPicInvite_TokenScopedToTask(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	token := invite.GenerateToken()
	if err := taskstore.New(e.db).PushPicInvite(ctx, e.task.ID,
		invite.New("dian@test.com", token, invite.Options{})); err != nil {
		t.Fatal(err)
	}

	// Presenting the token against a different task id is rejected.
	other := primitive.NewObjectID()
	rec := testutil.NewRecorder()
	req := testutil.NewRequest(http.MethodPost, "/tasks/"+other.Hex()+"/accept-pic-invite?token="+token)
	req = testutil.WithChiURLParam(req, "taskID", other.Hex())
	e.h.AcceptPicInvite(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestAcceptPicInvite_Expired(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	token := invite.GenerateToken()
	stale := invite.New("dian@test.com", token, invite.Options{})
	stale.CreatedAt = time.Now().Add(-8 * 24 * time.Hour)
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	if err := taskstore.New(e.db).PushPicInvite(ctx, e.task.ID, stale); err != nil {
		t.Fatal(err)
	}

	rec := testutil.NewRecorder()
	req := testutil.NewRequest(http.MethodPost, "/tasks/"+e.task.ID.Hex()+"/accept-pic-invite?token="+token)
	req = testutil.WithChiURLParam(req, "taskID", e.task.ID.Hex())
	e.h.AcceptPicInvite(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)

	var task models.Task
	if err := e.db.Collection("tasks").FindOne(ctx, bson.M{"_id": e.task.ID}).Decode(&task); err != nil {
		t.Fatal(err)
	}
	if len(task.PendingPicInvites) != 0 {
		t.Error("expired pic invite not pruned")
	}
}

func TestInvitePIC_RequiresManagementRole(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := e.f.CreateUser(ctx, "member@test.com")
	e.f.AddMember(ctx, e.ws, member.ID, models.RoleMember)

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost,
		"/tasks/"+e.task.ID.Hex()+"/pic-invite",
		map[string]string{"email": "dian@test.com"}), &member)
	req = testutil.WithChiURLParam(req, "taskID", e.task.ID.Hex())
	e.h.InvitePIC(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestRemovePIC(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := e.f.CreateUser(ctx, "member@test.com")
	e.f.AddMember(ctx, e.ws, member.ID, models.RoleMember)
	if err := taskstore.New(e.db).AddPIC(ctx, e.task.ID, member.ID); err != nil {
		t.Fatal(err)
	}

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodDelete,
		"/tasks/"+e.task.ID.Hex()+"/pic",
		map[string]any{"userId": member.ID}), &e.owner)
	req = testutil.WithChiURLParam(req, "taskID", e.task.ID.Hex())
	e.h.RemovePIC(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	user, err := userstore.New(e.db).GetByID(ctx, member.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(user.AssignedTasks) != 0 {
		t.Error("assignment mirror not removed")
	}
}

func TestUpdate_MoveToAnotherGroup(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dest := e.f.CreateGroup(ctx, "Frontend", e.proj.ID)

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPut,
		"/tasks/"+e.task.ID.Hex(),
		map[string]any{"nama": "API", "groupId": dest.ID}), &e.owner)
	req = testutil.WithChiURLParam(req, "taskID", e.task.ID.Hex())
	e.h.Update(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	moved, err := taskstore.New(e.db).GetByID(ctx, e.task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.GroupID != dest.ID {
		t.Errorf("task group = %s, want %s", moved.GroupID.Hex(), dest.ID.Hex())
	}

	var old, now struct {
		Tasks []primitive.ObjectID `bson:"tasks"`
	}
	if err := e.db.Collection("groups").FindOne(ctx, bson.M{"_id": e.group.ID}).Decode(&old); err != nil {
		t.Fatal(err)
	}
	if len(old.Tasks) != 0 {
		t.Errorf("old group still lists %d tasks", len(old.Tasks))
	}
	if err := e.db.Collection("groups").FindOne(ctx, bson.M{"_id": dest.ID}).Decode(&now); err != nil {
		t.Fatal(err)
	}
	if len(now.Tasks) != 1 || now.Tasks[0] != e.task.ID {
		t.Error("destination group does not list the moved task")
	}
}

func TestUpdate_MoveAcrossWorkspacesRejected(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	otherWs := e.f.CreateWorkspace(ctx, "Tim Lain", e.owner.ID)
	otherProj := e.f.CreateProject(ctx, "Side", otherWs.ID)
	foreign := e.f.CreateGroup(ctx, "Luar", otherProj.ID)

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPut,
		"/tasks/"+e.task.ID.Hex(),
		map[string]any{"nama": "API", "groupId": foreign.ID}), &e.owner)
	req = testutil.WithChiURLParam(req, "taskID", e.task.ID.Hex())
	e.h.Update(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)

	kept, err := taskstore.New(e.db).GetByID(ctx, e.task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if kept.GroupID != e.group.ID {
		t.Error("task should stay in its group after a rejected move")
	}
}

func TestRemoveAllPICs_ScrubsEveryMirror(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := taskstore.New(e.db)
	a := e.f.CreateUser(ctx, "a@test.com")
	b := e.f.CreateUser(ctx, "b@test.com")
	for _, u := range []models.User{a, b} {
		e.f.AddMember(ctx, e.ws, u.ID, models.RoleMember)
		if err := store.AddPIC(ctx, e.task.ID, u.ID); err != nil {
			t.Fatal(err)
		}
	}

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodDelete,
		"/tasks/"+e.task.ID.Hex()+"/pic/all", nil), &e.owner)
	req = testutil.WithChiURLParam(req, "taskID", e.task.ID.Hex())
	e.h.RemoveAllPICs(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := store.GetByID(ctx, e.task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.PIC) != 0 {
		t.Errorf("task still lists %d PICs", len(got.PIC))
	}
	for _, u := range []models.User{a, b} {
		fresh, err := userstore.New(e.db).GetByID(ctx, u.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(fresh.AssignedTasks) != 0 {
			t.Errorf("user %s still mirrors the assignment", fresh.Email)
		}
	}
}
