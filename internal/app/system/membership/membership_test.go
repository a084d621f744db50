package membership_test

import (
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/membership"
	"github.com/wirastama/manpro/internal/domain/models"
	"github.com/wirastama/manpro/internal/testutil"
)

func loadMirror(t *testing.T, f *testutil.Fixtures, wsID, userID primitive.ObjectID) (models.Workspace, models.User) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var ws models.Workspace
	if err := f.DB().Collection("workspaces").FindOne(ctx, bson.M{"_id": wsID}).Decode(&ws); err != nil {
		t.Fatalf("load workspace: %v", err)
	}
	var u models.User
	if err := f.DB().Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		t.Fatalf("load user: %v", err)
	}
	return ws, u
}

func TestAddMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	member := f.CreateUser(ctx, "member@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	m := membership.New(nil, db, zap.NewNop())

	added, err := m.AddMember(ctx, ws.ID, member.ID, models.RoleMember)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if !added {
		t.Fatal("expected added=true on first add")
	}

	gotWS, gotUser := loadMirror(t, f, ws.ID, member.ID)
	if gotWS.MemberRole(member.ID) != models.RoleMember {
		t.Errorf("workspace side role: got %q", gotWS.MemberRole(member.ID))
	}
	if gotUser.WorkspaceRole(ws.ID) != models.RoleMember {
		t.Errorf("user side role: got %q", gotUser.WorkspaceRole(ws.ID))
	}
}

func TestAddMember_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	member := f.CreateUser(ctx, "member@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	m := membership.New(nil, db, zap.NewNop())

	if _, err := m.AddMember(ctx, ws.ID, member.ID, models.RoleMember); err != nil {
		t.Fatalf("first AddMember: %v", err)
	}
	added, err := m.AddMember(ctx, ws.ID, member.ID, models.RoleViewer)
	if err != nil {
		t.Fatalf("second AddMember: %v", err)
	}
	if added {
		t.Error("expected added=false on repeat add")
	}

	gotWS, gotUser := loadMirror(t, f, ws.ID, member.ID)
	if len(gotWS.Members) != 1 {
		t.Errorf("roster entries: got %d, want 1", len(gotWS.Members))
	}
	if len(gotUser.Workspaces) != 1 {
		t.Errorf("user mirror entries: got %d, want 1", len(gotUser.Workspaces))
	}
	// Repeat add must not silently change the stored role.
	if gotWS.MemberRole(member.ID) != models.RoleMember {
		t.Errorf("role after repeat add: got %q, want %q", gotWS.MemberRole(member.ID), models.RoleMember)
	}
}

func TestAddMember_OwnerIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	m := membership.New(nil, db, zap.NewNop())
	added, err := m.AddMember(ctx, ws.ID, owner.ID, models.RoleMember)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if added {
		t.Error("owner must never enter the roster")
	}

	gotWS, _ := loadMirror(t, f, ws.ID, owner.ID)
	if len(gotWS.Members) != 0 {
		t.Errorf("roster entries: got %d, want 0", len(gotWS.Members))
	}
}

func TestAddMember_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	member := f.CreateUser(ctx, "member@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	m := membership.New(nil, db, zap.NewNop())
	for _, role := range []string{"", "superuser", models.RoleSystemAdmin, models.RoleNone} {
		if _, err := m.AddMember(ctx, ws.ID, member.ID, role); err == nil {
			t.Errorf("role %q: expected error", role)
		}
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

	m := membership.New(nil, db, zap.NewNop())
	if err := m.UpdateRole(ctx, ws.ID, member.ID, models.RoleProjectManager); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}

	gotWS, gotUser := loadMirror(t, f, ws.ID, member.ID)
	if gotWS.MemberRole(member.ID) != models.RoleProjectManager {
		t.Errorf("workspace side role: got %q", gotWS.MemberRole(member.ID))
	}
	if gotUser.WorkspaceRole(ws.ID) != models.RoleProjectManager {
		t.Errorf("user side role: got %q", gotUser.WorkspaceRole(ws.ID))
	}
}

func TestUpdateRole_NotAMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	outsider := f.CreateUser(ctx, "outsider@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	m := membership.New(nil, db, zap.NewNop())
	err := m.UpdateRole(ctx, ws.ID, outsider.ID, models.RoleMember)
	if !errors.Is(err, apperr.ErrNotAMember) {
		t.Errorf("want ErrNotAMember, got %v", err)
	}
}

func TestUpdateRole_OwnerRefused(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	m := membership.New(nil, db, zap.NewNop())
	if err := m.UpdateRole(ctx, ws.ID, owner.ID, models.RoleViewer); !errors.Is(err, membership.ErrOwner) {
		t.Errorf("want ErrOwner, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	member := f.CreateUser(ctx, "member@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)
	f.AddMember(ctx, ws, member.ID, models.RoleMember)

	// Assign the member as PIC of a task and a subtask under the workspace.
	p := f.CreateProject(ctx, "Proyek A", ws.ID)
	g := f.CreateGroup(ctx, "Sprint 1", p.ID)
	task := f.CreateTask(ctx, "Desain", g.ID)
	st := f.CreateSubtask(ctx, "Wireframe", task.ID, 1)

	if _, err := db.Collection("tasks").UpdateOne(ctx, bson.M{"_id": task.ID},
		bson.M{"$push": bson.M{"pic": member.ID}}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Collection("subtasks").UpdateOne(ctx, bson.M{"_id": st.ID},
		bson.M{"$push": bson.M{"pic": member.ID}}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Collection("users").UpdateOne(ctx, bson.M{"_id": member.ID},
		bson.M{"$push": bson.M{"assigned_tasks": task.ID, "assigned_subtasks": st.ID}}); err != nil {
		t.Fatal(err)
	}

	m := membership.New(nil, db, zap.NewNop())
	if err := m.RemoveMember(ctx, ws.ID, member.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	gotWS, gotUser := loadMirror(t, f, ws.ID, member.ID)
	if gotWS.HasMember(member.ID) {
		t.Error("member still on roster")
	}
	if gotUser.WorkspaceRole(ws.ID) != models.RoleNone {
		t.Error("membership still mirrored on user")
	}
	if len(gotUser.AssignedTasks) != 0 || len(gotUser.AssignedSubtasks) != 0 {
		t.Errorf("assignments not scrubbed: tasks=%d subtasks=%d",
			len(gotUser.AssignedTasks), len(gotUser.AssignedSubtasks))
	}

	var gotTask models.Task
	if err := db.Collection("tasks").FindOne(ctx, bson.M{"_id": task.ID}).Decode(&gotTask); err != nil {
		t.Fatal(err)
	}
	if len(gotTask.PIC) != 0 {
		t.Error("member still PIC of task")
	}
	var gotSub models.Subtask
	if err := db.Collection("subtasks").FindOne(ctx, bson.M{"_id": st.ID}).Decode(&gotSub); err != nil {
		t.Fatal(err)
	}
	if len(gotSub.PIC) != 0 {
		t.Error("member still PIC of subtask")
	}
}

func TestRemoveMember_NotAMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	outsider := f.CreateUser(ctx, "outsider@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	m := membership.New(nil, db, zap.NewNop())
	if err := m.RemoveMember(ctx, ws.ID, outsider.ID); !errors.Is(err, apperr.ErrNotAMember) {
		t.Errorf("want ErrNotAMember, got %v", err)
	}
}

func TestAddMember_ConcurrentConvergesToOneEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "owner@test.com")
	member := f.CreateUser(ctx, "member@test.com")
	ws := f.CreateWorkspace(ctx, "Tim Produk", owner.ID)

	m := membership.New(nil, db, zap.NewNop())

	// Two accepts racing on the same invite both reach AddMember. The
	// guarded pushes must leave exactly one entry per mirror side, with
	// no error surfacing from the losing caller.
	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.AddMember(ctx, ws.ID, member.ID, models.RoleMember)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent AddMember: %v", err)
		}
	}

	gotWS, gotUser := loadMirror(t, f, ws.ID, member.ID)
	if len(gotWS.Members) != 1 {
		t.Errorf("roster entries: got %d, want 1", len(gotWS.Members))
	}
	if len(gotUser.Workspaces) != 1 {
		t.Errorf("user mirror entries: got %d, want 1", len(gotUser.Workspaces))
	}
	if gotWS.MemberRole(member.ID) != models.RoleMember {
		t.Errorf("role: got %q, want %q", gotWS.MemberRole(member.ID), models.RoleMember)
	}
}
