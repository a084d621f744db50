// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure step is idempotent. Errors are
aggregated so every problem is visible and startup can fail fast.

The unique index on users.email is the backbone of the invitation flow: the
find-or-create race at accept time is resolved by this index, not by
application locks.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{"users", userIndexes()},
		{"workspaces", workspaceIndexes()},
		{"projects", projectIndexes()},
		{"groups", groupIndexes()},
		{"tasks", taskIndexes()},
		{"subtasks", subtaskIndexes()},
		{"comments", commentIndexes()},
	}

	for _, step := range steps {
		if err := ensureIndexSet(ctx, db.Collection(step.collection), step.models); err != nil {
			problems = append(problems, step.collection+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "workspaces.workspace_id", Value: 1}},
			Options: options.Index().SetName("by_workspace"),
		},
	}
}

func workspaceIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetName("by_owner"),
		},
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: options.Index().SetName("by_member"),
		},
		{
			Keys:    bson.D{{Key: "pending_invites.token", Value: 1}},
			Options: options.Index().SetName("by_invite_token"),
		},
	}
}

func projectIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}},
			Options: options.Index().SetName("by_workspace"),
		},
	}
}

func groupIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}},
			Options: options.Index().SetName("by_project"),
		},
	}
}

func taskIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetName("by_group"),
		},
		{
			Keys:    bson.D{{Key: "pending_pic_invites.token", Value: 1}},
			Options: options.Index().SetName("by_pic_invite_token"),
		},
	}
}

func subtaskIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "position", Value: 1}},
			Options: options.Index().SetName("by_task_position"),
		},
		{
			Keys:    bson.D{{Key: "pending_pic_invites.token", Value: 1}},
			Options: options.Index().SetName("by_pic_invite_token"),
		},
	}
}

func commentIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("by_task_created"),
		},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(p *bool) bool { return p != nil && *p }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel) error {
	var errs []string

	for _, m := range desired {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		existing, err := listExisting(ctx, coll)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: list indexes: %v", name, err))
			continue
		}

		if ex, ok := existing[sig]; ok {
			if boolOf(unique) == boolOf(ex.Unique) {
				continue // same keys, same uniqueness: reuse whatever name it has
			}
			// Uniqueness mismatch (typically upgrading to unique): drop and
			// recreate below.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s: %v", name, ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && boolOf(unique) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index, duplicates present on %s", name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolOf(unique)),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
