// internal/app/store/admins/adminstore.go
package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("admin not found")
	ErrDuplicateEmail = errors.New("an admin with this email already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admins")}
}

func (s *Store) Create(ctx context.Context, a models.Admin) (models.Admin, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Name = normalize.Name(a.Name)
	a.Email = normalize.Email(a.Email)
	if a.Status == "" {
		a.Status = "active"
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Admin{}, ErrDuplicateEmail
		}
		return models.Admin{}, err
	}
	return a, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Admin{}, ErrNotFound
		}
		return models.Admin{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Admin, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.Admin, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// List returns every admin sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Admin, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	rows := []models.Admin{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Patch carries optional admin updates; nil fields are left alone.
type Patch struct {
	Name         *string
	Email        *string
	SuperAdmin   *bool
	Status       *string
	PasswordHash *string
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Admin, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = normalize.Name(*p.Name)
	}
	if p.Email != nil {
		set["email"] = normalize.Email(*p.Email)
	}
	if p.SuperAdmin != nil {
		set["super_admin"] = *p.SuperAdmin
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.PasswordHash != nil {
		set["password_hash"] = *p.PasswordHash
	}
	var a models.Admin
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Admin{}, ErrNotFound
		}
		if wafflemongo.IsDup(err) {
			return models.Admin{}, ErrDuplicateEmail
		}
		return models.Admin{}, err
	}
	return a, nil
}

func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.Update(ctx, id, Patch{PasswordHash: &hash})
	return err
}

// Delete removes an admin by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountSuperAdmins returns the number of active superadmins.
func (s *Store) CountSuperAdmins(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"super_admin": true, "status": "active"})
}
