package members

import (
	"net/http"
	"testing"

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
	"github.com/wirastama/manpro/internal/app/system/membership"
	"github.com/wirastama/manpro/internal/domain/models"
	"github.com/wirastama/manpro/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newTestHandler(t *testing.T, db *mongo.Database) *Handler {
	t.Helper()

	resolver := hierarchy.New(
		workspacestore.New(db),
		projectstore.New(db),
		groupstore.New(db),
		taskstore.New(db),
		subtaskstore.New(db),
		commentstore.New(db),
	)
	return NewHandler(
		userstore.New(db),
		workspacepolicy.New(resolver),
		membership.New(nil, db, zap.NewNop()),
		zap.NewNop(),
	)
}

func memberReq(method, target string, body any, u *models.User, wsID primitive.ObjectID, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(method, target, body)
	} else {
		req = testutil.NewRequest(method, target)
	}
	req = testutil.WithUser(req, u)
	req = testutil.WithChiURLParam(req, "workspaceID", wsID.Hex())
	if userID != "" {
		req = testutil.WithChiURLParam(req, "userID", userID)
	}
	return req
}

func TestList_IncludesOwnerAndRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	member := f.CreateUser(ctx, "member@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	f.AddMember(ctx, ws, member.ID, models.RoleViewer)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	h.List(rec, memberReq(http.MethodGet, "/workspaces/"+ws.ID.Hex()+"/members", nil, &member, ws.ID, ""))
	rec.AssertStatus(t, http.StatusOK)

	data := rec.DecodeEnvelope(t)["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("roster size: got %d, want 2", len(data))
	}
	roles := map[string]string{}
	for _, raw := range data {
		m := raw.(map[string]any)
		roles[m["email"].(string)] = m["role"].(string)
	}
	if roles["owner@test.com"] != models.RoleAdmin {
		t.Errorf("owner listed with role %q", roles["owner@test.com"])
	}
	if roles["member@test.com"] != models.RoleViewer {
		t.Errorf("member listed with role %q", roles["member@test.com"])
	}
}

func TestUpdateRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	member := f.CreateUser(ctx, "member@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	f.AddMember(ctx, ws, member.ID, models.RoleViewer)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	h.UpdateRole(rec, memberReq(http.MethodPatch,
		"/workspaces/"+ws.ID.Hex()+"/members/"+member.ID.Hex(),
		map[string]string{"role": models.RoleProjectManager},
		&owner, ws.ID, member.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	got, err := userstore.New(db).GetByID(ctx, member.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.WorkspaceRole(ws.ID) != models.RoleProjectManager {
		t.Errorf("role after update: got %q", got.WorkspaceRole(ws.ID))
	}
}

func TestUpdateRole_OwnerRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	h.UpdateRole(rec, memberReq(http.MethodPatch,
		"/workspaces/"+ws.ID.Hex()+"/members/"+owner.ID.Hex(),
		map[string]string{"role": models.RoleViewer},
		&owner, ws.ID, owner.ID.Hex()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestUpdateRole_RequiresAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	pm := f.CreateUser(ctx, "pm@test.com")
	member := f.CreateUser(ctx, "member@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	f.AddMember(ctx, ws, pm.ID, models.RoleProjectManager)
	f.AddMember(ctx, ws, member.ID, models.RoleMember)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	h.UpdateRole(rec, memberReq(http.MethodPatch,
		"/workspaces/"+ws.ID.Hex()+"/members/"+member.ID.Hex(),
		map[string]string{"role": models.RoleViewer},
		&pm, ws.ID, member.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestRemove_ScrubsAssignments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	member := f.CreateUser(ctx, "member@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	f.AddMember(ctx, ws, member.ID, models.RoleMember)

	p := f.CreateProject(ctx, "Launch", ws.ID)
	g := f.CreateGroup(ctx, "Backend", p.ID)
	task := f.CreateTask(ctx, "API", g.ID)
	if err := taskstore.New(db).AddPIC(ctx, task.ID, member.ID); err != nil {
		t.Fatal(err)
	}

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	h.Remove(rec, memberReq(http.MethodDelete,
		"/workspaces/"+ws.ID.Hex()+"/members/"+member.ID.Hex(),
		nil, &owner, ws.ID, member.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	got, err := userstore.New(db).GetByID(ctx, member.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.WorkspaceRole(ws.ID) != models.RoleNone {
		t.Error("membership mirror not removed")
	}
	if len(got.AssignedTasks) != 0 {
		t.Error("assignment mirror not scrubbed")
	}

	var gotTask models.Task
	if err := db.Collection("tasks").FindOne(ctx, bson.M{"_id": task.ID}).Decode(&gotTask); err != nil {
		t.Fatal(err)
	}
	if len(gotTask.PIC) != 0 {
		t.Error("pic entry not scrubbed from task")
	}
}

func TestUpdateRole_TargetNotOnRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	outsider := f.CreateUser(ctx, "outsider@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	h.UpdateRole(rec, memberReq(http.MethodPatch,
		"/workspaces/"+ws.ID.Hex()+"/members/"+outsider.ID.Hex(),
		map[string]string{"role": models.RoleViewer}, &owner, ws.ID, outsider.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)

	body := rec.DecodeEnvelope(t)
	if body["message"] != "anggota tidak ditemukan" {
		t.Errorf("message: got %q", body["message"])
	}
}

func TestRemove_TargetNotOnRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	outsider := f.CreateUser(ctx, "outsider@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	h.Remove(rec, memberReq(http.MethodDelete,
		"/workspaces/"+ws.ID.Hex()+"/members/"+outsider.ID.Hex(),
		nil, &owner, ws.ID, outsider.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}
