package commentstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

// Create inserts a comment. The body must already be sanitized by the caller.
func (s *Store) Create(ctx context.Context, cm models.Comment) (models.Comment, error) {
	now := time.Now()
	cm.ID = primitive.NewObjectID()
	cm.CreatedAt = now
	cm.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, cm); err != nil {
		return models.Comment{}, err
	}
	return cm, nil
}

// GetByID loads a comment by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var cm models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cm); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("comment")
		}
		return nil, err
	}
	return &cm, nil
}

// ListByTask returns the task's comments, oldest first.
func (s *Store) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cur, err := s.c.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBody replaces a comment's body, but only when authorID wrote it.
func (s *Store) UpdateBody(ctx context.Context, id, authorID primitive.ObjectID, body string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "author_id": authorID},
		bson.M{"$set": bson.M{"body": body, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("comment")
	}
	return nil
}

// Delete removes a comment when authorID wrote it.
func (s *Store) Delete(ctx context.Context, id, authorID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "author_id": authorID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("comment")
	}
	return nil
}
