// internal/app/store/communications/communicationstore.go
package communicationstore

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
	return &Store{c: db.Collection("communication_evals")}
}

func (s *Store) Create(ctx context.Context, e models.CommunicationEval) (models.CommunicationEval, error) {
	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.CommunicationEval{}, err
	}
	return e, nil
}

// ListByStudent returns a student's evaluations, newest first.
func (s *Store) ListByStudent(ctx context.Context, studentID primitive.ObjectID, limit int64) ([]models.CommunicationEval, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.CommunicationEval{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteByStudent(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
