package taskstore

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

// Store owns the tasks collection and maintains the parent group's
// denormalized task list plus the assignment mirror on users.
type Store struct {
	c        *mongo.Collection
	groups   *mongo.Collection
	subtasks *mongo.Collection
	comments *mongo.Collection
	users    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("tasks"),
		groups:   db.Collection("groups"),
		subtasks: db.Collection("subtasks"),
		comments: db.Collection("comments"),
		users:    db.Collection("users"),
	}
}

// Create inserts a task and links it into the group's task list.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now()
	t.ID = primitive.NewObjectID()
	t.Name = normalize.Name(t.Name)
	if t.Subtasks == nil {
		t.Subtasks = []primitive.ObjectID{}
	}
	if t.PIC == nil {
		t.PIC = []primitive.ObjectID{}
	}
	if t.PendingPicInvites == nil {
		t.PendingPicInvites = []models.Invite{}
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	_, err := s.groups.UpdateOne(ctx, bson.M{"_id": t.GroupID}, bson.M{
		"$addToSet": bson.M{"tasks": t.ID},
		"$set":      bson.M{"updated_at": now},
	})
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID loads a task by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("task")
		}
		return nil, err
	}
	return &t, nil
}

// GetByPicInviteToken finds the task holding a pending PIC invite with the
// given token. Unknown tokens are ErrInvalidToken.
func (s *Store) GetByPicInviteToken(ctx context.Context, token string) (*models.Task, error) {
	if token == "" {
		return nil, apperr.ErrInvalidToken
	}
	var t models.Task
	err := s.c.FindOne(ctx, bson.M{"pending_pic_invites.token": token}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}
	return &t, nil
}

// ListByGroup returns the group's tasks, oldest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the mutable fields of a task.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"nama":        normalize.Name(name),
		"description": description,
		"updated_at":  time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("task")
	}
	return nil
}

// Move relinks a task under another group: repoints the task's group
// reference, pulls it from the old group's task list and pushes it to the
// new one. The guarded push keeps the mirror duplicate-free if a retry
// lands twice.
func (s *Store) Move(ctx context.Context, taskID, fromGroup, toGroup primitive.ObjectID) error {
	now := time.Now()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{"$set": bson.M{
		"group_id":   toGroup,
		"updated_at": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("task")
	}
	if _, err := s.groups.UpdateOne(ctx, bson.M{"_id": fromGroup}, bson.M{
		"$pull": bson.M{"tasks": taskID},
		"$set":  bson.M{"updated_at": now},
	}); err != nil {
		return err
	}
	_, err = s.groups.UpdateOne(ctx, bson.M{"_id": toGroup}, bson.M{
		"$addToSet": bson.M{"tasks": taskID},
		"$set":      bson.M{"updated_at": now},
	})
	return err
}

// Delete removes the task, its subtasks and comments, unlinks it from the
// group, and scrubs the assignment mirrors on users.
func (s *Store) Delete(ctx context.Context, t *models.Task) error {
	subtaskIDs := t.Subtasks

	if _, err := s.comments.DeleteMany(ctx, bson.M{"task_id": t.ID}); err != nil {
		return err
	}
	if _, err := s.subtasks.DeleteMany(ctx, bson.M{"task_id": t.ID}); err != nil {
		return err
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": t.ID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("task")
	}

	if _, err := s.groups.UpdateOne(ctx, bson.M{"_id": t.GroupID}, bson.M{
		"$pull": bson.M{"tasks": t.ID},
		"$set":  bson.M{"updated_at": time.Now()},
	}); err != nil {
		return err
	}

	_, err = s.users.UpdateMany(ctx, bson.M{}, bson.M{
		"$pull": bson.M{
			"assigned_tasks":    t.ID,
			"assigned_subtasks": bson.M{"$in": subtaskIDs},
		},
	})
	return err
}

/*─────────────────────────────────────────────────────────────────────────────*
| PIC assignment                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// AddPIC assigns userID as a person in charge, keeping both sides of the
// mirror. Idempotent.
func (s *Store) AddPIC(ctx context.Context, taskID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$addToSet": bson.M{"pic": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("task")
	}
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"assigned_tasks": taskID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	return err
}

// RemovePIC unassigns userID from the task, keeping both sides of the mirror.
func (s *Store) RemovePIC(ctx context.Context, taskID, userID primitive.ObjectID) error {
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$pull": bson.M{"pic": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}); err != nil {
		return err
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": bson.M{"assigned_tasks": taskID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

// RemoveAllPICs clears the task's PIC list and scrubs the assignment
// mirror on every affected user in one update per document.
func (s *Store) RemoveAllPICs(ctx context.Context, taskID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$set": bson.M{"pic": []primitive.ObjectID{}, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("task")
	}
	_, err = s.users.UpdateMany(ctx, bson.M{"assigned_tasks": taskID}, bson.M{
		"$pull": bson.M{"assigned_tasks": taskID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

/*─────────────────────────────────────────────────────────────────────────────*
| Pending PIC invites                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// PushPicInvite appends a pending PIC invite, replacing any earlier invite
// for the same email.
func (s *Store) PushPicInvite(ctx context.Context, taskID primitive.ObjectID, inv models.Invite) error {
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$pull": bson.M{"pending_pic_invites": bson.M{"email": inv.Email}},
	}); err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$push": bson.M{"pending_pic_invites": inv},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("task")
	}
	return nil
}

// PullPicInvite removes the pending PIC invite carrying token. Reports
// whether a record was removed.
func (s *Store) PullPicInvite(ctx context.Context, taskID primitive.ObjectID, token string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$pull": bson.M{"pending_pic_invites": bson.M{"token": token}},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
