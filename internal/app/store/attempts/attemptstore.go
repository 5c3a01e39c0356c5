// internal/app/store/attempts/attemptstore.go
package attemptstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/placementhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound         = errors.New("attempt not found")
	ErrAlreadyAttempted = errors.New("quiz already attempted")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attempts")}
}

// Start inserts a fresh attempt. A student has at most one attempt per quiz;
// a second Start returns ErrAlreadyAttempted.
func (s *Store) Start(ctx context.Context, quizID, studentID primitive.ObjectID, total int) (models.Attempt, error) {
	a := models.Attempt{
		ID:        primitive.NewObjectID(),
		QuizID:    quizID,
		StudentID: studentID,
		StartedAt:  time.Now().UTC(),
		Total:      total,
		ProctorLog: []models.ProctorEntry{},
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Attempt{}, ErrAlreadyAttempted
		}
		return models.Attempt{}, err
	}
	return a, nil
}

// withLog gives unflagged attempts an empty proctoring log instead of nil.
func withLog(a models.Attempt) models.Attempt {
	if a.ProctorLog == nil {
		a.ProctorLog = []models.ProctorEntry{}
	}
	return a
}

func withLogs(as []models.Attempt) []models.Attempt {
	for i := range as {
		as[i] = withLog(as[i])
	}
	return as
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Attempt, error) {
	var a models.Attempt
	if err := s.c.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Attempt{}, ErrNotFound
		}
		return models.Attempt{}, err
	}
	return withLog(a), nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Attempt, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByQuizStudent(ctx context.Context, quizID, studentID primitive.ObjectID) (models.Attempt, error) {
	return s.findOne(ctx, bson.M{"quiz_id": quizID, "student_id": studentID})
}

// Result is the graded outcome written by Submit.
type Result struct {
	Answers     []int
	Score       int
	Total       int
	Percentage  float64
	Late        bool
	SubmittedAt time.Time
}

// Submit records the graded answers once. A second call returns ErrAlreadySubmitted.
func (s *Store) Submit(ctx context.Context, id primitive.ObjectID, r Result) (models.Attempt, error) {
	var out models.Attempt
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "submitted_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			"answers":      r.Answers,
			"score":        r.Score,
			"total":        r.Total,
			"percentage":   r.Percentage,
			"late":         r.Late,
			"submitted_at": r.SubmittedAt.UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err == nil {
		return withLog(out), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Attempt{}, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return models.Attempt{}, gerr
	}
	return models.Attempt{}, ErrAlreadySubmitted
}

// AppendProctor adds a flagged snapshot to an open attempt's log and marks it
// flagged. A submitted attempt is left alone and ErrAlreadySubmitted returned.
func (s *Store) AppendProctor(ctx context.Context, id primitive.ObjectID, e models.ProctorEntry) (models.Attempt, error) {
	var out models.Attempt
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "submitted_at": bson.M{"$exists": false}},
		bson.M{
			"$push": bson.M{"proctor_log": e},
			"$set":  bson.M{"flagged": true},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err == nil {
		return withLog(out), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Attempt{}, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return models.Attempt{}, gerr
	}
	return models.Attempt{}, ErrAlreadySubmitted
}

// ListByStudent returns a student's attempts, newest first.
func (s *Store) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]models.Attempt, error) {
	cur, err := s.c.Find(ctx, bson.M{"student_id": studentID},
		options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Attempt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return withLogs(out), nil
}

// Leaderboard returns submitted attempts for a quiz ranked by percentage
// (highest first), then by time taken (fastest first).
func (s *Store) Leaderboard(ctx context.Context, quizID primitive.ObjectID) ([]models.Attempt, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"quiz_id": quizID, "submitted_at": bson.M{"$exists": true}}}},
		{{Key: "$addFields", Value: bson.M{"taken_ms": bson.M{"$subtract": bson.A{"$submitted_at", "$started_at"}}}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "percentage", Value: -1},
			{Key: "taken_ms", Value: 1},
			{Key: "_id", Value: 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Attempt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return withLogs(out), nil
}

// Summary is the count and mean percentage of submitted attempts.
type Summary struct {
	Count   int64   `bson:"count" json:"count"`
	Average float64 `bson:"average" json:"average"`
}

// Summarize aggregates submitted attempts; a nil studentID covers everyone.
func (s *Store) Summarize(ctx context.Context, studentID *primitive.ObjectID) (Summary, error) {
	match := bson.M{"submitted_at": bson.M{"$exists": true}}
	if studentID != nil {
		match["student_id"] = *studentID
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "count": bson.M{"$sum": 1}, "average": bson.M{"$avg": "$percentage"}}}},
	})
	if err != nil {
		return Summary{}, err
	}
	defer cur.Close(ctx)
	var out Summary
	if cur.Next(ctx) {
		if err := cur.Decode(&out); err != nil {
			return Summary{}, err
		}
	}
	return out, cur.Err()
}

func (s *Store) DeleteByStudent(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteByQuiz(ctx context.Context, quizID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"quiz_id": quizID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
