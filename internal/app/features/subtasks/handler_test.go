package subtasks

import (
	"net/http"
	"testing"

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
	"github.com/wirastama/manpro/internal/app/system/mailer"
	"github.com/wirastama/manpro/internal/app/system/membership"
	"github.com/wirastama/manpro/internal/domain/models"
	"github.com/wirastama/manpro/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newTestHandler(t *testing.T, db *mongo.Database) *Handler {
	t.Helper()

	users := userstore.New(db)
	store := subtaskstore.New(db)
	resolver := hierarchy.New(
		workspacestore.New(db),
		projectstore.New(db),
		groupstore.New(db),
		taskstore.New(db),
		store,
		commentstore.New(db),
	)
	return NewHandler(
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
}

func TestReorder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	p := f.CreateProject(ctx, "Launch", ws.ID)
	g := f.CreateGroup(ctx, "Backend", p.ID)
	task := f.CreateTask(ctx, "API", g.ID)
	a := f.CreateSubtask(ctx, "desain", task.ID, 1)
	b := f.CreateSubtask(ctx, "implementasi", task.ID, 2)
	c := f.CreateSubtask(ctx, "review", task.ID, 3)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPatch,
		"/tasks/"+task.ID.Hex()+"/subtasks/positions",
		map[string][]primitive.ObjectID{"order": {c.ID, a.ID, b.ID}}), &owner)
	req = testutil.WithChiURLParam(req, "taskID", task.ID.Hex())
	h.Reorder(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := subtaskstore.New(db).ListByTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"review", "desain", "implementasi"}
	for i, st := range got {
		if st.Name != want[i] {
			t.Errorf("position %d: got %q, want %q", i+1, st.Name, want[i])
		}
	}
}

func TestUpdate_SparsePatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	p := f.CreateProject(ctx, "Launch", ws.ID)
	g := f.CreateGroup(ctx, "Backend", p.ID)
	task := f.CreateTask(ctx, "API", g.ID)
	st := f.CreateSubtask(ctx, "desain", task.ID, 1)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPut,
		"/subtasks/"+st.ID.Hex(),
		map[string]string{"status": "in_progress"}), &owner)
	req = testutil.WithChiURLParam(req, "subtaskID", st.ID.Hex())
	h.Update(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := subtaskstore.New(db).GetByID(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "in_progress" {
		t.Errorf("status: got %q", got.Status)
	}
	if got.Name != "desain" {
		t.Errorf("untouched field changed: nama = %q", got.Name)
	}
}

func TestUpdate_ViewerForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	viewer := f.CreateUser(ctx, "viewer@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	f.AddMember(ctx, ws, viewer.ID, models.RoleViewer)
	p := f.CreateProject(ctx, "Launch", ws.ID)
	g := f.CreateGroup(ctx, "Backend", p.ID)
	task := f.CreateTask(ctx, "API", g.ID)
	st := f.CreateSubtask(ctx, "desain", task.ID, 1)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPut,
		"/subtasks/"+st.ID.Hex(),
		map[string]string{"status": "done"}), &viewer)
	req = testutil.WithChiURLParam(req, "subtaskID", st.ID.Hex())
	h.Update(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestUpdate_MoveToAnotherTask(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	p := f.CreateProject(ctx, "Launch", ws.ID)
	g := f.CreateGroup(ctx, "Backend", p.ID)
	src := f.CreateTask(ctx, "API", g.ID)
	dest := f.CreateTask(ctx, "Deploy", g.ID)
	st := f.CreateSubtask(ctx, "desain", src.ID, 1)
	f.CreateSubtask(ctx, "persiapan", dest.ID, 1)

	h := newTestHandler(t, db)
	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPut,
		"/subtasks/"+st.ID.Hex(),
		map[string]any{"taskId": dest.ID}), &owner)
	req = testutil.WithChiURLParam(req, "subtaskID", st.ID.Hex())
	h.Update(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	moved, err := subtaskstore.New(db).GetByID(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.TaskID != dest.ID {
		t.Errorf("subtask task = %s, want %s", moved.TaskID.Hex(), dest.ID.Hex())
	}
	// Joins the destination board after its current last item.
	if moved.Position != 2 {
		t.Errorf("position = %d, want 2", moved.Position)
	}

	remaining, err := subtaskstore.New(db).ListByTask(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("source task still lists %d subtasks", len(remaining))
	}
}
