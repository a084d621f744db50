package hierarchy

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	commentstore "github.com/wirastama/manpro/internal/app/store/comments"
	groupstore "github.com/wirastama/manpro/internal/app/store/groups"
	projectstore "github.com/wirastama/manpro/internal/app/store/projects"
	subtaskstore "github.com/wirastama/manpro/internal/app/store/subtasks"
	taskstore "github.com/wirastama/manpro/internal/app/store/tasks"
	workspacestore "github.com/wirastama/manpro/internal/app/store/workspaces"
	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/testutil"
)

func newResolver(db *mongo.Database) *Resolver {
	return New(
		workspacestore.New(db),
		projectstore.New(db),
		groupstore.New(db),
		taskstore.New(db),
		subtaskstore.New(db),
		commentstore.New(db),
	)
}

func TestFromSubtask_ResolvesFullChain(t *testing.T) {
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

	chain, err := newResolver(db).FromSubtask(ctx, st.ID)
	if err != nil {
		t.Fatalf("FromSubtask failed: %v", err)
	}
	if chain.Workspace == nil || chain.Workspace.ID != ws.ID {
		t.Error("chain does not reach the owning workspace")
	}
	if chain.Project.ID != p.ID || chain.Group.ID != g.ID || chain.Task.ID != task.ID {
		t.Error("intermediate levels resolved to the wrong documents")
	}
	if chain.Subtask.ID != st.ID {
		t.Error("leaf subtask missing from chain")
	}
}

func TestFromTask_DanglingGroupReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	p := f.CreateProject(ctx, "Launch", ws.ID)
	g := f.CreateGroup(ctx, "Backend", p.ID)
	task := f.CreateTask(ctx, "API", g.ID)

	// The group disappears underneath the task, as if deleted by another
	// process without a cascade.
	if _, err := db.Collection("groups").DeleteOne(ctx, bson.M{"_id": g.ID}); err != nil {
		t.Fatal(err)
	}

	chain, err := newResolver(db).FromTask(ctx, task.ID)
	if chain != nil {
		t.Error("dangling reference must not produce a partial chain")
	}
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
	if nf.Entity != "group" {
		t.Errorf("error names %q, want the missing level %q", nf.Entity, "group")
	}
}

func TestFromTask_UnknownTask(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := newResolver(db).FromTask(ctx, primitive.NewObjectID())
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
	if nf.Entity != "task" {
		t.Errorf("error names %q, want %q", nf.Entity, "task")
	}
}
