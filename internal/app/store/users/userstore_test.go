package userstore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	userstore "github.com/wirastama/manpro/internal/app/store/users"
	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/indexes"
	"github.com/wirastama/manpro/internal/domain/models"
	"github.com/wirastama/manpro/internal/testutil"
)

func TestCreate_NormalizesEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := userstore.New(db)
	u, err := store.Create(ctx, models.User{
		Username:     "Budi",
		Email:        "  Budi@Example.COM ",
		PasswordHash: "hash",
		Phone:        "0812",
		Position:     "staff",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != "budi@example.com" {
		t.Errorf("email: got %q", u.Email)
	}

	got, err := store.GetByEmail(ctx, "BUDI@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Error("lookup by differently-cased email failed")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	store := userstore.New(db)
	base := models.User{Username: "Budi", Email: "budi@test.com", PasswordHash: "h", Phone: "0812", Position: "staff"}
	if _, err := store.Create(ctx, base); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := store.Create(ctx, base)
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("want ErrDuplicateEmail, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := userstore.New(db).GetByID(ctx, primitive.NewObjectID())
	if !apperr.IsNotFound(err) {
		t.Errorf("want not-found, got %v", err)
	}
}

func TestFetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := f.CreateUser(ctx, "budi@test.com")
	store := userstore.New(db)

	got, err := store.FetchUser(ctx, u.ID.Hex())
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if got.Email != "budi@test.com" {
		t.Errorf("email: got %q", got.Email)
	}

	if _, err := store.FetchUser(ctx, "not-a-hex-id"); !apperr.IsNotFound(err) {
		t.Errorf("malformed id: want not-found, got %v", err)
	}
}

func TestAssignmentMirror(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := f.CreateUser(ctx, "budi@test.com")
	store := userstore.New(db)
	taskID := primitive.NewObjectID()

	if err := store.AddAssignedTask(ctx, u.ID, taskID); err != nil {
		t.Fatal(err)
	}
	if err := store.AddAssignedTask(ctx, u.ID, taskID); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.AssignedTasks) != 1 {
		t.Errorf("assigned tasks: got %d, want 1 (repeat add must not duplicate)", len(got.AssignedTasks))
	}

	if err := store.RemoveAssignedTask(ctx, u.ID, taskID); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.AssignedTasks) != 0 {
		t.Errorf("assigned tasks after remove: got %d", len(got.AssignedTasks))
	}
}

func TestPromoteSystemAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := f.CreateUser(ctx, "root@test.com")
	store := userstore.New(db)

	matched, err := store.PromoteSystemAdmin(ctx, "Root@Test.com")
	if err != nil {
		t.Fatalf("PromoteSystemAdmin: %v", err)
	}
	if matched != 1 {
		t.Fatalf("matched: got %d, want 1", matched)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsSystemAdmin {
		t.Error("flag not set")
	}

	matched, err = store.PromoteSystemAdmin(ctx, "nobody@test.com")
	if err != nil {
		t.Fatal(err)
	}
	if matched != 0 {
		t.Errorf("matched for unknown email: got %d", matched)
	}
}
