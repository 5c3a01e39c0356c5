// internal/app/store/problems/problemstore.go
package problemstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound      = errors.New("problem not found")
	ErrDuplicateSlug = errors.New("a problem with this slug already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("problems")}
}

func prepare(p *models.Problem) {
	p.Title = normalize.Name(p.Title)
	if p.Slug == "" {
		p.Slug = p.Title
	}
	p.Slug = normalize.Slug(p.Slug)
	p.Tags = normalize.Tags(p.Tags)
	if p.Samples == nil {
		p.Samples = []models.TestCase{}
	}
	if p.Tests == nil {
		p.Tests = []models.TestCase{}
	}
}

func (s *Store) Create(ctx context.Context, p models.Problem) (models.Problem, error) {
	prepare(&p)
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Problem{}, ErrDuplicateSlug
		}
		return models.Problem{}, err
	}
	return p, nil
}

// Upsert inserts p or replaces the problem with the same slug, keeping its ID
// and creation time. It reports whether a new document was created.
func (s *Store) Upsert(ctx context.Context, p models.Problem) (models.Problem, bool, error) {
	prepare(&p)
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"slug": p.Slug},
		bson.M{
			"$set": bson.M{
				"title":      p.Title,
				"difficulty": p.Difficulty,
				"statement":  p.Statement,
				"tags":       p.Tags,
				"samples":    p.Samples,
				"tests":      p.Tests,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return models.Problem{}, false, err
	}
	out, err := s.GetBySlug(ctx, p.Slug)
	return out, res.UpsertedCount == 1, err
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Problem, error) {
	var p models.Problem
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Problem{}, ErrNotFound
		}
		return models.Problem{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Problem, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Problem, error) {
	return s.findOne(ctx, bson.M{"slug": normalize.Slug(slug)})
}

// ListFilter narrows List.
type ListFilter struct {
	Difficulty string
	Tag        string
}

// List returns a page of problems without their hidden tests.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.Problem, error) {
	filter := bson.M{}
	if f.Difficulty != "" {
		filter["difficulty"] = f.Difficulty
	}
	if f.Tag != "" {
		filter["tags"] = bson.M{"$in": normalize.Tags([]string{f.Tag})}
	}
	opts := p.FindOptions(bson.D{{Key: "created_at", Value: -1}}).SetProjection(bson.M{"tests": 0})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Problem
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Replace overwrites the editable fields of p, including its slug.
func (s *Store) Replace(ctx context.Context, p models.Problem) (models.Problem, error) {
	prepare(&p)
	var out models.Problem
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{
			"title":      p.Title,
			"slug":       p.Slug,
			"difficulty": p.Difficulty,
			"statement":  p.Statement,
			"tags":       p.Tags,
			"samples":    p.Samples,
			"tests":      p.Tests,
			"updated_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return models.Problem{}, ErrNotFound
		case wafflemongo.IsDup(err):
			return models.Problem{}, ErrDuplicateSlug
		}
		return models.Problem{}, err
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

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
