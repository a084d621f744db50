package groupstore

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

// Store owns the groups collection and maintains the parent project's
// denormalized group list.
type Store struct {
	c        *mongo.Collection
	projects *mongo.Collection
	tasks    *mongo.Collection
	subtasks *mongo.Collection
	comments *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("groups"),
		projects: db.Collection("projects"),
		tasks:    db.Collection("tasks"),
		subtasks: db.Collection("subtasks"),
		comments: db.Collection("comments"),
	}
}

// Create inserts a group and links it into the project's group list.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now()
	g.ID = primitive.NewObjectID()
	g.Name = normalize.Name(g.Name)
	if g.Tasks == nil {
		g.Tasks = []primitive.ObjectID{}
	}
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	_, err := s.projects.UpdateOne(ctx, bson.M{"_id": g.ProjectID}, bson.M{
		"$addToSet": bson.M{"groups": g.ID},
		"$set":      bson.M{"updated_at": now},
	})
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByID loads a group by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("group")
		}
		return nil, err
	}
	return &g, nil
}

// ListByProject returns the project's groups, oldest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Group, error) {
	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Group{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the mutable fields of a group.
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
		return apperr.NotFound("group")
	}
	return nil
}

// Delete removes the group and its subtree, then unlinks it from the project.
func (s *Store) Delete(ctx context.Context, g *models.Group) error {
	taskIDs, err := collectIDs(ctx, s.tasks, bson.M{"group_id": g.ID})
	if err != nil {
		return err
	}
	subtaskIDs, err := collectIDs(ctx, s.subtasks, bson.M{"task_id": bson.M{"$in": taskIDs}})
	if err != nil {
		return err
	}

	if _, err := s.comments.DeleteMany(ctx, bson.M{"task_id": bson.M{"$in": taskIDs}}); err != nil {
		return err
	}
	if _, err := s.subtasks.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": subtaskIDs}}); err != nil {
		return err
	}
	if _, err := s.tasks.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": taskIDs}}); err != nil {
		return err
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": g.ID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("group")
	}

	_, err = s.projects.UpdateOne(ctx, bson.M{"_id": g.ProjectID}, bson.M{
		"$pull": bson.M{"groups": g.ID},
		"$set":  bson.M{"updated_at": time.Now()},
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
