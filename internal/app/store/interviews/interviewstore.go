// internal/app/store/interviews/interviewstore.go
package interviewstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("interview session not found")
	ErrFinished = errors.New("interview session already finished")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("interview_sessions")}
}

func (s *Store) Create(ctx context.Context, sess models.InterviewSession) (models.InterviewSession, error) {
	sess.ID = primitive.NewObjectID()
	sess.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return models.InterviewSession{}, err
	}
	return sess, nil
}

// GetOwned loads a session that belongs to studentID.
func (s *Store) GetOwned(ctx context.Context, id, studentID primitive.ObjectID) (models.InterviewSession, error) {
	var out models.InterviewSession
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "student_id": studentID}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.InterviewSession{}, ErrNotFound
		}
		return models.InterviewSession{}, err
	}
	return out, nil
}

func (s *Store) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]models.InterviewSession, error) {
	cur, err := s.c.Find(ctx, bson.M{"student_id": studentID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.InterviewSession{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAnswer stores the answer and feedback for question index of an unfinished session.
func (s *Store) SaveAnswer(ctx context.Context, id primitive.ObjectID, index int, answer string, fb models.AnswerFeedback) (models.InterviewSession, error) {
	prefix := fmt.Sprintf("questions.%d.", index)
	var out models.InterviewSession
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "finished": false},
		bson.M{"$set": bson.M{
			prefix + "answer":      answer,
			prefix + "feedback":    fb,
			prefix + "answered_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.InterviewSession{}, ErrFinished
	}
	return out, err
}

// Finish closes the session and records the mean score of its answered
// questions. The score is taken from the closed document, so an answer saved
// just before the close is counted. Sessions with no answers get no score.
func (s *Store) Finish(ctx context.Context, id primitive.ObjectID) (models.InterviewSession, error) {
	var out models.InterviewSession
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "finished": false},
		bson.M{"$set": bson.M{"finished": true, "finished_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.InterviewSession{}, ErrFinished
	}
	if err != nil {
		return models.InterviewSession{}, err
	}

	overall := OverallScore(out.Questions)
	if overall == nil {
		return out, nil
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"overall_score": *overall}}); err != nil {
		return models.InterviewSession{}, err
	}
	out.OverallScore = overall
	return out, nil
}

// OverallScore averages answered scores to two decimals; nil when none were answered.
func OverallScore(qs []models.InterviewQuestion) *float64 {
	var sum float64
	n := 0
	for _, q := range qs {
		if q.Feedback != nil {
			sum += q.Feedback.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	v := math.Round(sum/float64(n)*100) / 100
	return &v
}

func (s *Store) DeleteByStudent(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
