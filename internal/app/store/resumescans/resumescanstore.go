// internal/app/store/resumescans/resumescanstore.go
package resumescanstore

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

var ErrNotFound = errors.New("resume scan not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("resume_scans")}
}

func (s *Store) Create(ctx context.Context, scan models.ResumeScan) (models.ResumeScan, error) {
	scan.ID = primitive.NewObjectID()
	scan.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, scan); err != nil {
		return models.ResumeScan{}, err
	}
	return scan, nil
}

// ListByStudent returns a student's scans, newest first.
func (s *Store) ListByStudent(ctx context.Context, studentID primitive.ObjectID, limit int64) ([]models.ResumeScan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.ResumeScan{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the student's most recent scan.
func (s *Store) Latest(ctx context.Context, studentID primitive.ObjectID) (models.ResumeScan, error) {
	rows, err := s.ListByStudent(ctx, studentID, 1)
	if err != nil {
		return models.ResumeScan{}, err
	}
	if len(rows) == 0 {
		return models.ResumeScan{}, ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) DeleteByStudent(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
