package projectstore

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

// Store owns the projects collection and maintains the parent workspace's
// denormalized project list on create and delete.
type Store struct {
	c          *mongo.Collection
	workspaces *mongo.Collection
	groups     *mongo.Collection
	tasks      *mongo.Collection
	subtasks   *mongo.Collection
	comments   *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:          db.Collection("projects"),
		workspaces: db.Collection("workspaces"),
		groups:     db.Collection("groups"),
		tasks:      db.Collection("tasks"),
		subtasks:   db.Collection("subtasks"),
		comments:   db.Collection("comments"),
	}
}

// Create inserts a project and links it into the workspace's project list.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	now := time.Now()
	p.ID = primitive.NewObjectID()
	p.Name = normalize.Name(p.Name)
	if p.Groups == nil {
		p.Groups = []primitive.ObjectID{}
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	_, err := s.workspaces.UpdateOne(ctx, bson.M{"_id": p.WorkspaceID}, bson.M{
		"$addToSet": bson.M{"projects": p.ID},
		"$set":      bson.M{"updated_at": now},
	})
	if err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// GetByID loads a project by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("project")
		}
		return nil, err
	}
	return &p, nil
}

// ListByWorkspace returns the workspace's projects, oldest first.
func (s *Store) ListByWorkspace(ctx context.Context, wsID primitive.ObjectID) ([]models.Project, error) {
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": wsID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the mutable fields of a project.
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
		return apperr.NotFound("project")
	}
	return nil
}

// Delete removes the project and its whole subtree, then unlinks it from the
// workspace. Leaf-first so a failure cannot orphan children of a removed
// parent.
func (s *Store) Delete(ctx context.Context, p *models.Project) error {
	groupIDs, err := collectIDs(ctx, s.groups, bson.M{"project_id": p.ID})
	if err != nil {
		return err
	}
	taskIDs, err := collectIDs(ctx, s.tasks, bson.M{"group_id": bson.M{"$in": groupIDs}})
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
	if _, err := s.groups.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": groupIDs}}); err != nil {
		return err
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": p.ID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("project")
	}

	_, err = s.workspaces.UpdateOne(ctx, bson.M{"_id": p.WorkspaceID}, bson.M{
		"$pull": bson.M{"projects": p.ID},
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
