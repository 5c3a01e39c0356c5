// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrInvalid is returned by Consume for unknown, used or expired states.
var ErrInvalid = errors.New("oauth state invalid or expired")

// State is a one-time OAuth2 state token plus the PKCE verifier issued with it.
type State struct {
	State     string    `bson:"state"`
	Verifier  string    `bson:"verifier"`
	ReturnURL string    `bson:"return_url,omitempty"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save stores a state token valid for ttl.
func (s *Store) Save(ctx context.Context, state, verifier, returnURL string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.c.InsertOne(ctx, State{
		State:     state,
		Verifier:  verifier,
		ReturnURL: returnURL,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	return err
}

// Consume deletes and returns an unexpired state. Each state is usable once.
func (s *Store) Consume(ctx context.Context, state string) (State, error) {
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return State{}, ErrInvalid
	}
	if err != nil {
		return State{}, err
	}
	return st, nil
}

// CleanupExpired removes expired state tokens ahead of the TTL monitor.
func (s *Store) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
