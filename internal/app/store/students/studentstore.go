// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

var (
	ErrNotFound        = errors.New("student not found")
	ErrDuplicateEmail  = errors.New("a student with this email already exists")
	ErrDuplicateRollNo = errors.New("a student with this roll number already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

// dupError maps a duplicate-key error to the index that caused it.
func dupError(err error) error {
	if strings.Contains(err.Error(), "roll_no") {
		return ErrDuplicateRollNo
	}
	return ErrDuplicateEmail
}

// Create inserts a new active student. Email, name, roll number and branch
// are normalised first.
func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.Name = normalize.Name(st.Name)
	st.NameCI = text.Fold(st.Name)
	st.Email = normalize.Email(st.Email)
	st.RollNo = normalize.RollNo(st.RollNo)
	st.Branch = normalize.Branch(st.Branch)
	st.Skills = normalize.Skills(st.Skills)
	if st.Status == "" {
		st.Status = StatusActive
	}
	st.CreatedAt = now
	st.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Student{}, dupError(err)
		}
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, filter).Decode(&st); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Student{}, ErrNotFound
		}
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (models.Student, error) {
	return s.findOne(ctx, bson.M{"google_id": googleID})
}

// GetByIDs loads students keyed by ID.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Student, error) {
	out := make(map[primitive.ObjectID]models.Student, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []models.Student
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, st := range rows {
		out[st.ID] = st
	}
	return out, nil
}

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	Search string
	Branch string
	Year   int
	Placed *bool
	Status string
}

func (f ListFilter) bson() bson.M {
	filter := bson.M{}
	if q := strings.TrimSpace(f.Search); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(q)), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name_ci": re},
			bson.M{"email": primitive.Regex{Pattern: regexp.QuoteMeta(strings.ToLower(q)), Options: "i"}},
			bson.M{"roll_no": primitive.Regex{Pattern: regexp.QuoteMeta(strings.ToUpper(q)), Options: "i"}},
		}
	}
	if f.Branch != "" {
		filter["branch"] = normalize.Branch(f.Branch)
	}
	if f.Year > 0 {
		filter["year"] = f.Year
	}
	if f.Placed != nil {
		filter["placed"] = *f.Placed
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

// List returns one page (plus one look-ahead row) sorted by name.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.Student, error) {
	cur, err := s.c.Find(ctx, f.bson(), p.FindOptions(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []models.Student
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Patch carries optional field updates; nil fields are left alone.
type Patch struct {
	Name   *string
	Email  *string
	RollNo *string
	Branch *string
	Year   *int
	CGPA   *float64
	Phone  *string
	Skills []string
}

func (p Patch) set() bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		n := normalize.Name(*p.Name)
		set["name"] = n
		set["name_ci"] = text.Fold(n)
	}
	if p.Email != nil {
		set["email"] = normalize.Email(*p.Email)
	}
	if p.RollNo != nil {
		set["roll_no"] = normalize.RollNo(*p.RollNo)
	}
	if p.Branch != nil {
		set["branch"] = normalize.Branch(*p.Branch)
	}
	if p.Year != nil {
		set["year"] = *p.Year
	}
	if p.CGPA != nil {
		set["cgpa"] = *p.CGPA
	}
	if p.Phone != nil {
		set["phone"] = strings.TrimSpace(*p.Phone)
	}
	if p.Skills != nil {
		set["skills"] = normalize.Skills(p.Skills)
	}
	return set
}

// Update applies p and returns the updated student.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Student, error) {
	return s.updateReturning(ctx, id, bson.M{"$set": p.set()})
}

func (s *Store) updateReturning(ctx context.Context, id primitive.ObjectID, update bson.M) (models.Student, error) {
	var st models.Student
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Student{}, ErrNotFound
		}
		if wafflemongo.IsDup(err) {
			return models.Student{}, dupError(err)
		}
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	return s.updateOne(ctx, id, bson.M{"status": status})
}

func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateOne(ctx, id, bson.M{"password_hash": hash})
}

func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	return s.updateOne(ctx, id, bson.M{"google_id": googleID})
}

// SetPlaced marks the student placed at companyID.
func (s *Store) SetPlaced(ctx context.Context, id, companyID primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{"placed": true, "placed_company_id": companyID})
}

// ClearPlacedIf unmarks the student when they were placed at companyID.
func (s *Store) ClearPlacedIf(ctx context.Context, id, companyID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "placed_company_id": companyID},
		bson.M{"$set": bson.M{"placed": false, "updated_at": time.Now().UTC()}, "$unset": bson.M{"placed_company_id": ""}})
	return err
}

// swapFile stores a new url/key pair and returns the key it replaced.
func (s *Store) swapFile(ctx context.Context, id primitive.ObjectID, urlField, keyField, url, key string) (string, error) {
	var before models.Student
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{urlField: url, keyField: key, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", err
	}
	if keyField == "resume_key" {
		return before.ResumeKey, nil
	}
	return before.ProfileImageKey, nil
}

// SetResume records a new resume upload and returns the previous storage key.
func (s *Store) SetResume(ctx context.Context, id primitive.ObjectID, url, key string) (string, error) {
	return s.swapFile(ctx, id, "resume_url", "resume_key", url, key)
}

// SetResumeText stores the text extracted from the current resume for ATS scans.
func (s *Store) SetResumeText(ctx context.Context, id primitive.ObjectID, text string) error {
	return s.updateOne(ctx, id, bson.M{"resume_text": text})
}

// SetProfileImage records a new profile image and returns the previous storage key.
func (s *Store) SetProfileImage(ctx context.Context, id primitive.ObjectID, url, key string) (string, error) {
	return s.swapFile(ctx, id, "profile_image_url", "profile_image_key", url, key)
}

// Delete removes a student by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of students matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
