package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wirastama/manpro/internal/app/system/indexes"
)

const defaultTestURI = "mongodb://localhost:27017"

// SetupTestDB connects to the Mongo instance named by MONGO_TEST_URI (or
// localhost) and hands back a throwaway database that is dropped when the
// test finishes. Tests are skipped, not failed, when no Mongo is reachable,
// so the pure-logic suite still runs everywhere.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = defaultTestURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to test mongo at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("skipping: test mongo at %s not reachable: %v", uri, err)
	}

	dbName := fmt.Sprintf("manpro_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)

	// Same index set the app reconciles at startup; the unique email index
	// in particular is load-bearing for duplicate registration tests.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensuring indexes on test db: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with a generous deadline for DB-backed tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
