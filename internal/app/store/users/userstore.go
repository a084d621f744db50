package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/normalize"
	"github.com/wirastama/manpro/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// ErrDuplicateEmail is returned when the unique email index rejects an insert.
var ErrDuplicateEmail = errors.New("email sudah terdaftar")

// Create inserts a new user after normalizing the email. The caller supplies
// the password hash; this store never sees plaintext passwords.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Username = normalize.Name(u.Username)
	if u.Workspaces == nil {
		u.Workspaces = []models.UserWorkspace{}
	}
	if u.AssignedTasks == nil {
		u.AssignedTasks = []primitive.ObjectID{}
	}
	if u.AssignedSubtasks == nil {
		u.AssignedSubtasks = []primitive.ObjectID{}
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads the users whose ids appear in ids. Missing ids are skipped,
// not errors; callers listing members tolerate stale references.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile replaces the mutable profile fields.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{
		"username":   normalize.Name(upd.Username),
		"no_hp":      upd.Phone,
		"posisi":     upd.Position,
		"departemen": upd.Department,
		"divisi":     upd.Division,
		"updated_at": time.Now(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

// ProfileUpdate holds the fields a user may change about themselves.
type ProfileUpdate struct {
	Username   string
	Phone      string
	Position   string
	Department string
	Division   string
}

// AddAssignedTask records that the user is a person-in-charge of taskID.
// Idempotent via $addToSet.
func (s *Store) AddAssignedTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"assigned_tasks": taskID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	return err
}

// RemoveAssignedTask drops taskID from the user's assignment mirror.
func (s *Store) RemoveAssignedTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": bson.M{"assigned_tasks": taskID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

// AddAssignedSubtask records that the user is a person-in-charge of subtaskID.
func (s *Store) AddAssignedSubtask(ctx context.Context, userID, subtaskID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"assigned_subtasks": subtaskID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	return err
}

// RemoveAssignedSubtask drops subtaskID from the user's assignment mirror.
func (s *Store) RemoveAssignedSubtask(ctx context.Context, userID, subtaskID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": bson.M{"assigned_subtasks": subtaskID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

// PromoteSystemAdmin sets the bypass flag on the user with the given email.
// Returns the matched count so startup can log whether anything happened.
func (s *Store) PromoteSystemAdmin(ctx context.Context, email string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{"is_system_admin": true, "updated_at": time.Now()}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}
