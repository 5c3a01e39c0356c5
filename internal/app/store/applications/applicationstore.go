// internal/app/store/applications/applicationstore.go
package applicationstore

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
	ErrNotFound       = errors.New("application not found")
	ErrAlreadyApplied = errors.New("already applied to this company")
	ErrBadStatus      = errors.New("invalid application status")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

// ValidStatus reports whether s is one of models.ApplicationStatuses.
func ValidStatus(s string) bool {
	for _, v := range models.ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Create records a new application in the "applied" state.
// The unique (company_id, student_id) index turns a second attempt into ErrAlreadyApplied.
func (s *Store) Create(ctx context.Context, companyID, studentID primitive.ObjectID) (models.Application, error) {
	now := time.Now().UTC()
	a := models.Application{
		ID:        primitive.NewObjectID(),
		CompanyID: companyID,
		StudentID: studentID,
		Status:    models.AppApplied,
		AppliedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Application{}, ErrAlreadyApplied
		}
		return models.Application{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Application, error) {
	var a models.Application
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Application{}, ErrNotFound
		}
		return models.Application{}, err
	}
	return a, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Application, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Application{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStudent returns a student's applications, newest first.
func (s *Store) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]models.Application, error) {
	return s.find(ctx, bson.M{"student_id": studentID}, bson.D{{Key: "applied_at", Value: -1}})
}

// ListByCompany returns a company's applications in arrival order,
// optionally restricted to one status.
func (s *Store) ListByCompany(ctx context.Context, companyID primitive.ObjectID, status string) ([]models.Application, error) {
	filter := bson.M{"company_id": companyID}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter, bson.D{{Key: "applied_at", Value: 1}, {Key: "_id", Value: 1}})
}

// UpdateStatus moves an application to status and returns the updated
// document along with the status it had before.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status, note string) (models.Application, string, error) {
	if !ValidStatus(status) {
		return models.Application{}, "", ErrBadStatus
	}
	var before models.Application
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "note": note, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Application{}, "", ErrNotFound
		}
		return models.Application{}, "", err
	}
	prev := before.Status
	after := before
	after.Status = status
	after.Note = note
	return after, prev, nil
}

// CountByStatus groups applications by status. Every known status is present
// in the result, zero when absent. A nil studentID counts all students.
func (s *Store) CountByStatus(ctx context.Context, studentID *primitive.ObjectID) (map[string]int64, error) {
	out := make(map[string]int64, len(models.ApplicationStatuses))
	for _, st := range models.ApplicationStatuses {
		out[st] = 0
	}
	pipeline := mongo.Pipeline{}
	if studentID != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"student_id": *studentID}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}})

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}

// AppliedCompanyIDs returns the set of companies a student has applied to.
func (s *Store) AppliedCompanyIDs(ctx context.Context, studentID primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	rows, err := s.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]string, len(rows))
	for _, a := range rows {
		out[a.CompanyID] = a.Status
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

func (s *Store) DeleteByCompany(ctx context.Context, companyID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"company_id": companyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
