// Package membership is the only writer of the workspace membership mirror:
// Workspace.members on one side, User.workspaces on the other. Every
// mutation writes both sides with guarded, idempotent updates, ordered
// workspace-first, so the mirror converges even when the transactional path
// is unavailable.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/txn"
	"github.com/wirastama/manpro/internal/domain/models"
)

// ErrOwner is returned when a mutation targets the workspace owner. The
// owner's standing comes from Workspace.owner_id, never from the roster.
var ErrOwner = errors.New("pemilik workspace tidak dapat diubah melalui keanggotaan")

type Mutator struct {
	client     *mongo.Client
	db         *mongo.Database
	workspaces *mongo.Collection
	users      *mongo.Collection
	log        *zap.Logger
}

// New builds a Mutator. client may be nil in tests; writes then run without
// a transaction, which the guarded updates tolerate.
func New(client *mongo.Client, db *mongo.Database, log *zap.Logger) *Mutator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mutator{
		client:     client,
		db:         db,
		workspaces: db.Collection("workspaces"),
		users:      db.Collection("users"),
		log:        log,
	}
}

// AddMember grants userID the role in wsID, writing both sides of the
// mirror. Adding an existing member is a no-op reported via added=false, so
// the acceptance path stays idempotent while the invite-creation path can
// turn it into ErrAlreadyMember.
func (m *Mutator) AddMember(ctx context.Context, wsID, userID primitive.ObjectID, role string) (added bool, err error) {
	if !models.IsValidWorkspaceRole(role) {
		return false, fmt.Errorf("invalid role %q", role)
	}

	var ws models.Workspace
	if err := m.workspaces.FindOne(ctx, bson.M{"_id": wsID}).Decode(&ws); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, apperr.NotFound("workspace")
		}
		return false, err
	}
	if ws.OwnerID == userID {
		return false, nil
	}
	if ws.HasMember(userID) {
		// Heal the user side in case a previous partial write missed it.
		if err := m.pushUserSide(ctx, wsID, userID, ws.MemberRole(userID)); err != nil {
			return false, err
		}
		return false, nil
	}

	now := time.Now()
	err = txn.WithFallback(ctx, m.client, func(ctx context.Context) error {
		res, err := m.workspaces.UpdateOne(ctx,
			bson.M{"_id": wsID, "members.user_id": bson.M{"$ne": userID}},
			bson.M{
				"$push": bson.M{"members": models.Member{UserID: userID, Role: role, AddedAt: now}},
				"$set":  bson.M{"updated_at": now},
			})
		if err != nil {
			return err
		}
		if res.ModifiedCount == 0 {
			// Concurrent add won; still make sure the user side agrees.
			added = false
		} else {
			added = true
		}
		return m.pushUserSide(ctx, wsID, userID, role)
	})
	if err != nil {
		return false, err
	}
	if added {
		m.log.Info("member added",
			zap.String("workspace_id", wsID.Hex()),
			zap.String("user_id", userID.Hex()),
			zap.String("role", role))
	}
	return added, nil
}

func (m *Mutator) pushUserSide(ctx context.Context, wsID, userID primitive.ObjectID, role string) error {
	_, err := m.users.UpdateOne(ctx,
		bson.M{"_id": userID, "workspaces.workspace_id": bson.M{"$ne": wsID}},
		bson.M{
			"$push": bson.M{"workspaces": models.UserWorkspace{WorkspaceID: wsID, Role: role}},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	return err
}

// UpdateRole changes an existing member's role on both sides of the mirror.
func (m *Mutator) UpdateRole(ctx context.Context, wsID, userID primitive.ObjectID, role string) error {
	if !models.IsValidWorkspaceRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	var ws models.Workspace
	if err := m.workspaces.FindOne(ctx, bson.M{"_id": wsID}).Decode(&ws); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("workspace")
		}
		return err
	}
	if ws.OwnerID == userID {
		return ErrOwner
	}
	if !ws.HasMember(userID) {
		return apperr.ErrNotAMember
	}

	now := time.Now()
	err := txn.WithFallback(ctx, m.client, func(ctx context.Context) error {
		if _, err := m.workspaces.UpdateOne(ctx,
			bson.M{"_id": wsID, "members.user_id": userID},
			bson.M{"$set": bson.M{"members.$.role": role, "updated_at": now}}); err != nil {
			return err
		}
		_, err := m.users.UpdateOne(ctx,
			bson.M{"_id": userID, "workspaces.workspace_id": wsID},
			bson.M{"$set": bson.M{"workspaces.$.role": role, "updated_at": now}})
		return err
	})
	if err != nil {
		return err
	}
	m.log.Info("member role updated",
		zap.String("workspace_id", wsID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("role", role))
	return nil
}

// RemoveMember revokes membership on both sides of the mirror and unassigns
// the user from every task and subtask under the workspace. Removing someone
// who is not a member is ErrNotAMember.
func (m *Mutator) RemoveMember(ctx context.Context, wsID, userID primitive.ObjectID) error {
	var ws models.Workspace
	if err := m.workspaces.FindOne(ctx, bson.M{"_id": wsID}).Decode(&ws); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("workspace")
		}
		return err
	}
	if ws.OwnerID == userID {
		return ErrOwner
	}
	if !ws.HasMember(userID) {
		return apperr.ErrNotAMember
	}

	now := time.Now()
	err := txn.WithFallback(ctx, m.client, func(ctx context.Context) error {
		if _, err := m.workspaces.UpdateOne(ctx, bson.M{"_id": wsID}, bson.M{
			"$pull": bson.M{"members": bson.M{"user_id": userID}},
			"$set":  bson.M{"updated_at": now},
		}); err != nil {
			return err
		}
		if _, err := m.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
			"$pull": bson.M{"workspaces": bson.M{"workspace_id": wsID}},
			"$set":  bson.M{"updated_at": now},
		}); err != nil {
			return err
		}
		return m.unassignEverywhere(ctx, wsID, userID)
	})
	if err != nil {
		return err
	}
	m.log.Info("member removed",
		zap.String("workspace_id", wsID.Hex()),
		zap.String("user_id", userID.Hex()))
	return nil
}

// unassignEverywhere pulls the user out of the pic arrays of every task and
// subtask under wsID and drops the matching entries from the user's
// assignment mirrors.
func (m *Mutator) unassignEverywhere(ctx context.Context, wsID, userID primitive.ObjectID) error {
	projects := m.db.Collection("projects")
	groups := m.db.Collection("groups")
	tasks := m.db.Collection("tasks")
	subtasks := m.db.Collection("subtasks")

	projectIDs, err := collectIDs(ctx, projects, bson.M{"workspace_id": wsID})
	if err != nil {
		return err
	}
	groupIDs, err := collectIDs(ctx, groups, bson.M{"project_id": bson.M{"$in": projectIDs}})
	if err != nil {
		return err
	}
	taskIDs, err := collectIDs(ctx, tasks, bson.M{"group_id": bson.M{"$in": groupIDs}})
	if err != nil {
		return err
	}
	subtaskIDs, err := collectIDs(ctx, subtasks, bson.M{"task_id": bson.M{"$in": taskIDs}})
	if err != nil {
		return err
	}

	if _, err := tasks.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": taskIDs}},
		bson.M{"$pull": bson.M{"pic": userID}}); err != nil {
		return err
	}
	if _, err := subtasks.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": subtaskIDs}},
		bson.M{"$pull": bson.M{"pic": userID}}); err != nil {
		return err
	}
	_, err = m.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": bson.M{
			"assigned_tasks":    bson.M{"$in": taskIDs},
			"assigned_subtasks": bson.M{"$in": subtaskIDs},
		},
	})
	return err
}

func collectIDs(ctx context.Context, c *mongo.Collection, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}
