package subtaskstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/normalize"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Store owns the subtasks collection and maintains the parent task's
// denormalized subtask list plus the assignment mirror on users.
type Store struct {
	c     *mongo.Collection
	tasks *mongo.Collection
	users *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("subtasks"),
		tasks: db.Collection("tasks"),
		users: db.Collection("users"),
	}
}

// Create inserts a subtask at the end of its task's ordering and links it
// into the task's subtask list.
func (s *Store) Create(ctx context.Context, st models.Subtask) (models.Subtask, error) {
	now := time.Now()
	st.ID = primitive.NewObjectID()
	st.Name = normalize.Name(st.Name)
	if st.Status == "" {
		st.Status = "todo"
	}
	if st.PIC == nil {
		st.PIC = []primitive.ObjectID{}
	}
	if st.PendingPicInvites == nil {
		st.PendingPicInvites = []models.Invite{}
	}
	st.CreatedAt = now
	st.UpdatedAt = now

	last, err := s.maxPosition(ctx, st.TaskID)
	if err != nil {
		return models.Subtask{}, err
	}
	st.Position = last + 1

	if _, err := s.c.InsertOne(ctx, st); err != nil {
		return models.Subtask{}, err
	}
	_, err = s.tasks.UpdateOne(ctx, bson.M{"_id": st.TaskID}, bson.M{
		"$addToSet": bson.M{"subtasks": st.ID},
		"$set":      bson.M{"updated_at": now},
	})
	if err != nil {
		return models.Subtask{}, err
	}
	return st, nil
}

func (s *Store) maxPosition(ctx context.Context, taskID primitive.ObjectID) (int, error) {
	opts := options.FindOne().SetSort(bson.M{"position": -1}).SetProjection(bson.M{"position": 1})
	var doc struct {
		Position int `bson:"position"`
	}
	err := s.c.FindOne(ctx, bson.M{"task_id": taskID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Position, nil
}

// GetByID loads a subtask by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Subtask, error) {
	var st models.Subtask
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("subtask")
		}
		return nil, err
	}
	return &st, nil
}

// GetByPicInviteToken finds the subtask holding a pending PIC invite with the
// given token. Unknown tokens are ErrInvalidToken.
func (s *Store) GetByPicInviteToken(ctx context.Context, token string) (*models.Subtask, error) {
	if token == "" {
		return nil, apperr.ErrInvalidToken
	}
	var st models.Subtask
	err := s.c.FindOne(ctx, bson.M{"pending_pic_invites.token": token}).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}
	return &st, nil
}

// ListByTask returns the task's subtasks in board order.
func (s *Store) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Subtask, error) {
	opts := options.Find().SetSort(bson.M{"position": 1})
	cur, err := s.c.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Subtask{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FieldUpdate holds the mutable fields of a subtask. Nil pointers mean
// "leave unchanged".
type FieldUpdate struct {
	Name        *string
	Description *string
	Status      *string
	Priority    *string
	Note        *string
	MeetingDate *time.Time
	StartDate   *time.Time
	DueDate     *time.Time
	FinishDate  *time.Time
}

// Update applies the provided fields to a subtask.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd FieldUpdate) error {
	set := bson.M{"updated_at": time.Now()}
	if upd.Name != nil {
		set["nama"] = normalize.Name(*upd.Name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.Note != nil {
		set["note"] = *upd.Note
	}
	if upd.MeetingDate != nil {
		set["meeting_date"] = *upd.MeetingDate
	}
	if upd.StartDate != nil {
		set["start_date"] = *upd.StartDate
	}
	if upd.DueDate != nil {
		set["due_date"] = *upd.DueDate
	}
	if upd.FinishDate != nil {
		set["finish_date"] = *upd.FinishDate
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("subtask")
	}
	return nil
}

// Reorder rewrites the position of every subtask in the task to match the
// given id order. IDs not belonging to the task are ignored by the filter.
func (s *Store) Reorder(ctx context.Context, taskID primitive.ObjectID, orderedIDs []primitive.ObjectID) error {
	now := time.Now()
	for i, id := range orderedIDs {
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": id, "task_id": taskID},
			bson.M{"$set": bson.M{"position": i + 1, "updated_at": now}})
		if err != nil {
			return err
		}
	}
	return nil
}

// Move relinks a subtask under another task. It joins the destination
// board at the end, after the current last position there.
func (s *Store) Move(ctx context.Context, subtaskID, fromTask, toTask primitive.ObjectID) error {
	last, err := s.maxPosition(ctx, toTask)
	if err != nil {
		return err
	}

	now := time.Now()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": subtaskID}, bson.M{"$set": bson.M{
		"task_id":    toTask,
		"position":   last + 1,
		"updated_at": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("subtask")
	}
	if _, err := s.tasks.UpdateOne(ctx, bson.M{"_id": fromTask}, bson.M{
		"$pull": bson.M{"subtasks": subtaskID},
		"$set":  bson.M{"updated_at": now},
	}); err != nil {
		return err
	}
	_, err = s.tasks.UpdateOne(ctx, bson.M{"_id": toTask}, bson.M{
		"$addToSet": bson.M{"subtasks": subtaskID},
		"$set":      bson.M{"updated_at": now},
	})
	return err
}

// Delete removes the subtask, unlinks it from the task, and scrubs the
// assignment mirror on users.
func (s *Store) Delete(ctx context.Context, st *models.Subtask) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": st.ID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("subtask")
	}

	if _, err := s.tasks.UpdateOne(ctx, bson.M{"_id": st.TaskID}, bson.M{
		"$pull": bson.M{"subtasks": st.ID},
		"$set":  bson.M{"updated_at": time.Now()},
	}); err != nil {
		return err
	}

	_, err = s.users.UpdateMany(ctx, bson.M{}, bson.M{
		"$pull": bson.M{"assigned_subtasks": st.ID},
	})
	return err
}

/*─────────────────────────────────────────────────────────────────────────────*
| PIC assignment and invites                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// AddPIC assigns userID as a person in charge, keeping both sides of the
// mirror. Idempotent.
func (s *Store) AddPIC(ctx context.Context, subtaskID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": subtaskID}, bson.M{
		"$addToSet": bson.M{"pic": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("subtask")
	}
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"assigned_subtasks": subtaskID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	return err
}

// RemovePIC unassigns userID from the subtask, keeping both sides of the
// mirror.
func (s *Store) RemovePIC(ctx context.Context, subtaskID, userID primitive.ObjectID) error {
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": subtaskID}, bson.M{
		"$pull": bson.M{"pic": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}); err != nil {
		return err
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": bson.M{"assigned_subtasks": subtaskID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

// PushPicInvite appends a pending PIC invite, replacing any earlier invite
// for the same email.
func (s *Store) PushPicInvite(ctx context.Context, subtaskID primitive.ObjectID, inv models.Invite) error {
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": subtaskID}, bson.M{
		"$pull": bson.M{"pending_pic_invites": bson.M{"email": inv.Email}},
	}); err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": subtaskID}, bson.M{
		"$push": bson.M{"pending_pic_invites": inv},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("subtask")
	}
	return nil
}

// PullPicInvite removes the pending PIC invite carrying token. Reports
// whether a record was removed.
func (s *Store) PullPicInvite(ctx context.Context, subtaskID primitive.ObjectID, token string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": subtaskID}, bson.M{
		"$pull": bson.M{"pending_pic_invites": bson.M{"token": token}},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
