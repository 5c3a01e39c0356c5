// internal/app/store/submissions/submissionstore.go
package submissionstore

import (
	"context"
	"time"

	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("submissions")}
}

func (s *Store) Create(ctx context.Context, sub models.Submission) (models.Submission, error) {
	sub.ID = primitive.NewObjectID()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, sub); err != nil {
		return models.Submission{}, err
	}
	return sub, nil
}

func (s *Store) list(ctx context.Context, filter bson.M, limit int64) ([]models.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Submission{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStudent returns a student's submissions, newest first, optionally for one problem.
func (s *Store) ListByStudent(ctx context.Context, studentID primitive.ObjectID, problemID *primitive.ObjectID, limit int64) ([]models.Submission, error) {
	filter := bson.M{"student_id": studentID}
	if problemID != nil {
		filter["problem_id"] = *problemID
	}
	return s.list(ctx, filter, limit)
}

// ListByProblem returns every submission for a problem, newest first.
func (s *Store) ListByProblem(ctx context.Context, problemID primitive.ObjectID, limit int64) ([]models.Submission, error) {
	return s.list(ctx, bson.M{"problem_id": problemID}, limit)
}

// SolvedCount is the number of distinct problems a student has an accepted submission for.
func (s *Store) SolvedCount(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	ids, err := s.c.Distinct(ctx, "problem_id", bson.M{"student_id": studentID, "verdict": models.VerdictAccepted})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (s *Store) DeleteByStudent(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteByProblem(ctx context.Context, problemID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"problem_id": problemID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
