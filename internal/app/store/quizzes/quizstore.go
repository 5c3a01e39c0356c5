// internal/app/store/quizzes/quizstore.go
package quizstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("quiz not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("quizzes")}
}

func (s *Store) Create(ctx context.Context, q models.Quiz) (models.Quiz, error) {
	now := time.Now().UTC()
	q.ID = primitive.NewObjectID()
	q.CreatedAt = now
	q.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, q); err != nil {
		return models.Quiz{}, err
	}
	return q, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Quiz, error) {
	var q models.Quiz
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Quiz{}, ErrNotFound
		}
		return models.Quiz{}, err
	}
	return q, nil
}

// GetByIDs loads quizzes keyed by ID.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Quiz, error) {
	out := make(map[primitive.ObjectID]models.Quiz, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, q := range rows {
		out[q.ID] = q
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Quiz, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Quiz{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns quizzes newest first. activeOnly restricts to active quizzes.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.Quiz, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	return s.find(ctx, filter)
}

// Replace overwrites the editable fields of q.
func (s *Store) Replace(ctx context.Context, q models.Quiz) (models.Quiz, error) {
	set := bson.M{
		"title":            q.Title,
		"description":      q.Description,
		"topic":            q.Topic,
		"duration_minutes": q.DurationMinutes,
		"questions":        q.Questions,
		"active":           q.Active,
		"updated_at":       time.Now().UTC(),
	}
	unset := bson.M{}
	if q.StartsAt != nil {
		set["starts_at"] = q.StartsAt.UTC()
	} else {
		unset["starts_at"] = ""
	}
	if q.EndsAt != nil {
		set["ends_at"] = q.EndsAt.UTC()
	} else {
		unset["ends_at"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	var out models.Quiz
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": q.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Quiz{}, ErrNotFound
		}
		return models.Quiz{}, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeactivateEnded switches off active quizzes whose end time is at or before now.
func (s *Store) DeactivateEnded(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"active": true, "ends_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"active": false, "updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
