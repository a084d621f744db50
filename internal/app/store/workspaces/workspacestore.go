package workspacestore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/normalize"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Store owns the workspaces collection. Cascade deletes reach into the child
// collections, so the store keeps a handle on the whole database.
type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("workspaces")}
}

// Create inserts a workspace owned by ownerID. The owner is not duplicated
// into the member roster; ownership alone grants the admin role.
func (s *Store) Create(ctx context.Context, name string, ownerID primitive.ObjectID) (models.Workspace, error) {
	now := time.Now()
	ws := models.Workspace{
		ID:             primitive.NewObjectID(),
		Name:           normalize.Name(name),
		OwnerID:        ownerID,
		Members:        []models.Member{},
		PendingInvites: []models.Invite{},
		Projects:       []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.c.InsertOne(ctx, ws); err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByID loads a workspace by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Workspace, error) {
	var ws models.Workspace
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("workspace")
		}
		return nil, err
	}
	return &ws, nil
}

// GetByInviteToken finds the workspace holding a pending invite with the
// given token. An unknown token is ErrInvalidToken, not a plain not-found:
// the caller cannot tell a never-issued token from a consumed one.
func (s *Store) GetByInviteToken(ctx context.Context, token string) (*models.Workspace, error) {
	if token == "" {
		return nil, apperr.ErrInvalidToken
	}
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"pending_invites.token": token}).Decode(&ws)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}
	return &ws, nil
}

// ListForUser returns every workspace the user owns or is a member of.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Workspace, error) {
	filter := bson.M{"$or": []bson.M{
		{"owner_id": userID},
		{"members.user_id": userID},
	}}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Workspace
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Workspace{}
	}
	return out, nil
}

// UpdateName renames a workspace.
func (s *Store) UpdateName(ctx context.Context, id primitive.ObjectID, name string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"nama":       normalize.Name(name),
		"updated_at": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("workspace")
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Pending invites                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// PushInvite appends a pending invite. Any earlier invite for the same email
// is removed first, so re-inviting replaces rather than accumulates.
func (s *Store) PushInvite(ctx context.Context, wsID primitive.ObjectID, inv models.Invite) error {
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": wsID}, bson.M{
		"$pull": bson.M{"pending_invites": bson.M{"email": inv.Email}},
	}); err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": wsID}, bson.M{
		"$push": bson.M{"pending_invites": inv},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("workspace")
	}
	return nil
}

// PullInvite removes the pending invite carrying token. Reports whether a
// record was actually removed, which is how acceptance detects that a
// concurrent request already consumed the token.
func (s *Store) PullInvite(ctx context.Context, wsID primitive.ObjectID, token string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": wsID}, bson.M{
		"$pull": bson.M{"pending_invites": bson.M{"token": token}},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Project back-references                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// PushProject appends a project id to the denormalized child list.
func (s *Store) PushProject(ctx context.Context, wsID, projectID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": wsID}, bson.M{
		"$addToSet": bson.M{"projects": projectID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("workspace")
	}
	return nil
}

// PullProject drops a project id from the child list.
func (s *Store) PullProject(ctx context.Context, wsID, projectID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": wsID}, bson.M{
		"$pull": bson.M{"projects": projectID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

/*─────────────────────────────────────────────────────────────────────────────*
| Delete with cascade                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// Delete removes the workspace and everything under it: projects, groups,
// tasks, subtasks, comments, plus the membership and assignment mirrors on
// users. Ordered leaf-first so a failure partway leaves no orphaned parents.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	projects := s.db.Collection("projects")
	groups := s.db.Collection("groups")
	tasks := s.db.Collection("tasks")
	subtasks := s.db.Collection("subtasks")
	comments := s.db.Collection("comments")
	users := s.db.Collection("users")

	projectIDs, err := collectIDs(ctx, projects, bson.M{"workspace_id": id})
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

	if _, err := comments.DeleteMany(ctx, bson.M{"task_id": bson.M{"$in": taskIDs}}); err != nil {
		return err
	}
	if _, err := subtasks.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": subtaskIDs}}); err != nil {
		return err
	}
	if _, err := tasks.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": taskIDs}}); err != nil {
		return err
	}
	if _, err := groups.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": groupIDs}}); err != nil {
		return err
	}
	if _, err := projects.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": projectIDs}}); err != nil {
		return err
	}

	// Scrub user mirrors: membership entries for this workspace and
	// assignments pointing at the deleted leaves.
	if _, err := users.UpdateMany(ctx, bson.M{}, bson.M{
		"$pull": bson.M{
			"workspaces":        bson.M{"workspace_id": id},
			"assigned_tasks":    bson.M{"$in": taskIDs},
			"assigned_subtasks": bson.M{"$in": subtaskIDs},
		},
	}); err != nil {
		return err
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("workspace")
	}
	return nil
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
