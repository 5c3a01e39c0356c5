// internal/app/store/companies/companystore.go
package companystore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("company not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("companies")}
}

func (s *Store) Create(ctx context.Context, c models.Company) (models.Company, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.Branches = normalize.Branches(c.Branches)
	if c.Status == "" {
		c.Status = models.CompanyOpen
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Company{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Company, error) {
	var c models.Company
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Company{}, ErrNotFound
		}
		return models.Company{}, err
	}
	return c, nil
}

// GetByIDs loads companies keyed by ID.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Company, error) {
	out := make(map[primitive.ObjectID]models.Company, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []models.Company
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	Status string
	Search string
}

// List returns one page (plus look-ahead) ordered by deadline, soonest first.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.Company, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		filter["$or"] = bson.A{
			bson.M{"name_ci": primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(q)), Options: "i"}},
			bson.M{"role": primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}},
		}
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "deadline", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []models.Company
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Upcoming returns open companies whose deadline has not passed, soonest first.
func (s *Store) Upcoming(ctx context.Context, now time.Time, limit int64) ([]models.Company, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"status": models.CompanyOpen, "deadline": bson.M{"$gt": now}},
		options.Find().SetSort(bson.D{{Key: "deadline", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	rows := []models.Company{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Patch carries optional company updates; nil fields are left alone.
type Patch struct {
	Name        *string
	Role        *string
	Description *string
	Location    *string
	PackageLPA  *float64
	MinCGPA     *float64
	Branches    []string
	Deadline    *time.Time
	DriveDate   *time.Time
	Status      *string
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Company, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		n := normalize.Name(*p.Name)
		set["name"] = n
		set["name_ci"] = text.Fold(n)
	}
	if p.Role != nil {
		set["role"] = strings.TrimSpace(*p.Role)
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Location != nil {
		set["location"] = strings.TrimSpace(*p.Location)
	}
	if p.PackageLPA != nil {
		set["package_lpa"] = *p.PackageLPA
	}
	if p.MinCGPA != nil {
		set["min_cgpa"] = *p.MinCGPA
	}
	if p.Branches != nil {
		set["branches"] = normalize.Branches(p.Branches)
	}
	if p.Deadline != nil {
		set["deadline"] = p.Deadline.UTC()
	}
	if p.DriveDate != nil {
		set["drive_date"] = p.DriveDate.UTC()
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	var c models.Company
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Company{}, ErrNotFound
		}
		return models.Company{}, err
	}
	return c, nil
}

// SetLogo records a new logo and returns the previous storage key.
func (s *Store) SetLogo(ctx context.Context, id primitive.ObjectID, url, key string) (string, error) {
	var before models.Company
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"logo_url": url, "logo_key": key, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", err
	}
	return before.LogoKey, nil
}

// Delete removes a company by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CloseExpired closes every open company whose deadline is at or before now.
func (s *Store) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.CompanyOpen, "deadline": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"status": models.CompanyClosed, "updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Count returns the number of companies matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
