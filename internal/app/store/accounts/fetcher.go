// Package accountstore resolves session users against the students and
// admins collections.
package accountstore

import (
	"context"
	"errors"

	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher.
type Fetcher struct {
	students *mongo.Collection
	admins   *mongo.Collection
}

// NewFetcher creates a Fetcher over db.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{
		students: db.Collection("students"),
		admins:   db.Collection("admins"),
	}
}

type account struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"name"`
	Email      string             `bson:"email"`
	Status     string             `bson:"status"`
	SuperAdmin bool               `bson:"super_admin"`
}

// FetchUser loads the account for role/id. Unknown, malformed and disabled
// accounts yield auth.ErrUserNotFound.
func (f *Fetcher) FetchUser(ctx context.Context, role, id string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, auth.ErrUserNotFound
	}

	var coll *mongo.Collection
	switch role {
	case auth.RoleStudent:
		coll = f.students
	case auth.RoleAdmin:
		coll = f.admins
	default:
		return nil, auth.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var a account
	proj := options.FindOne().SetProjection(bson.M{"name": 1, "email": 1, "status": 1, "super_admin": 1})
	if err := coll.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	if a.Status == "disabled" {
		return nil, auth.ErrUserNotFound
	}

	return &auth.SessionUser{
		ID:         a.ID.Hex(),
		Name:       a.Name,
		Email:      a.Email,
		Role:       role,
		SuperAdmin: role == auth.RoleAdmin && a.SuperAdmin,
	}, nil
}
