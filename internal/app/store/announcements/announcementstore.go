// internal/app/store/announcements/announcementstore.go
package announcementstore

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

var ErrNotFound = errors.New("announcement not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

func (s *Store) Create(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	var a models.Announcement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Announcement{}, ErrNotFound
		}
		return models.Announcement{}, err
	}
	return a, nil
}

// List returns announcements pinned first, newest first. With visibleAt set
// only active items whose window contains that instant are returned.
func (s *Store) List(ctx context.Context, visibleAt *time.Time) ([]models.Announcement, error) {
	filter := bson.M{}
	if visibleAt != nil {
		t := *visibleAt
		filter = bson.M{
			"active": true,
			"$and": bson.A{
				bson.M{"$or": bson.A{bson.M{"starts_at": bson.M{"$exists": false}}, bson.M{"starts_at": bson.M{"$lte": t}}}},
				bson.M{"$or": bson.A{bson.M{"ends_at": bson.M{"$exists": false}}, bson.M{"ends_at": bson.M{"$gt": t}}}},
			},
		}
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "pinned", Value: -1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Announcement{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Replace overwrites the editable fields of an announcement.
func (s *Store) Replace(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	set := bson.M{
		"title":      a.Title,
		"content":    a.Content,
		"type":       a.Type,
		"pinned":     a.Pinned,
		"active":     a.Active,
		"updated_at": time.Now().UTC(),
	}
	unset := bson.M{}
	if a.StartsAt != nil {
		set["starts_at"] = a.StartsAt.UTC()
	} else {
		unset["starts_at"] = ""
	}
	if a.EndsAt != nil {
		set["ends_at"] = a.EndsAt.UTC()
	} else {
		unset["ends_at"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	var out models.Announcement
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": a.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Announcement{}, ErrNotFound
		}
		return models.Announcement{}, err
	}
	return out, nil
}

// Toggle flips the active flag and returns the updated announcement.
func (s *Store) Toggle(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"active": bson.M{"$not": "$active"}, "updated_at": time.Now().UTC()}}},
	}
	var out models.Announcement
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Announcement{}, ErrNotFound
		}
		return models.Announcement{}, err
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
