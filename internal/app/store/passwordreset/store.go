// internal/app/store/passwordreset/store.go
package passwordreset

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultExpiry is how long a reset code is valid.
	DefaultExpiry = 15 * time.Minute
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxVerifyAttempts is the number of wrong codes allowed before the reset is void.
	MaxVerifyAttempts = 5
	// MaxRequests is the number of codes that may be requested per RequestWindow.
	MaxRequests = 3
	// RequestWindow bounds MaxRequests.
	RequestWindow = 15 * time.Minute
)

var (
	ErrNotFound        = errors.New("reset code not found or expired")
	ErrInvalidCode     = errors.New("invalid reset code")
	ErrTooManyAttempts = errors.New("too many reset attempts")
	ErrTooManyRequests = errors.New("too many reset requests")
)

// Reset is a pending password reset for one account.
type Reset struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Role         string             `bson:"role"`
	Email        string             `bson:"email"`
	UserID       primitive.ObjectID `bson:"user_id"`
	CodeHash     string             `bson:"code_hash"`
	ExpiresAt    time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt    time.Time          `bson:"created_at"`
	Attempts     int                `bson:"attempts"`
	RequestCount int                `bson:"request_count"`
	WindowStart  time.Time          `bson:"window_start"`
}

type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store. If expiry is 0 or negative, DefaultExpiry is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("password_resets"), expiry: expiry}
}

// Expiry returns how long codes stay valid.
func (s *Store) Expiry() time.Duration { return s.expiry }

func key(role, email string) bson.M {
	return bson.M{"role": role, "email": normalize.Email(email)}
}

// Create issues a new 6-digit code for (role, email), replacing any previous one,
// and returns the plain code to be emailed.
func (s *Store) Create(ctx context.Context, role, email string, userID primitive.ObjectID) (string, error) {
	now := time.Now().UTC()

	var existing Reset
	err := s.c.FindOne(ctx, key(role, email)).Decode(&existing)
	found := err == nil
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}

	count, windowStart := 1, now
	if found && now.Before(existing.WindowStart.Add(RequestWindow)) {
		if existing.RequestCount >= MaxRequests {
			return "", ErrTooManyRequests
		}
		count, windowStart = existing.RequestCount+1, existing.WindowStart
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	if _, err := s.c.DeleteMany(ctx, key(role, email)); err != nil {
		return "", err
	}
	r := Reset{
		ID:           primitive.NewObjectID(),
		Role:         role,
		Email:        normalize.Email(email),
		UserID:       userID,
		CodeHash:     string(hash),
		ExpiresAt:    now.Add(s.expiry),
		CreatedAt:    now,
		RequestCount: count,
		WindowStart:  windowStart,
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return "", fmt.Errorf("insert reset: %w", err)
	}
	return code, nil
}

// Verify checks code for (role, email). On success the record is consumed and
// returned. Every call counts as an attempt.
func (s *Store) Verify(ctx context.Context, role, email, code string) (*Reset, error) {
	filter := key(role, email)
	filter["expires_at"] = bson.M{"$gt": time.Now().UTC()}

	var r Reset
	if err := s.c.FindOne(ctx, filter).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if r.Attempts >= MaxVerifyAttempts {
		return nil, ErrTooManyAttempts
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": r.ID}, bson.M{"$inc": bson.M{"attempts": 1}}); err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(r.CodeHash), []byte(code)); err != nil {
		return nil, ErrInvalidCode
	}
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": r.ID}); err != nil {
		return nil, err
	}
	return &r, nil
}

// PurgeExpired removes expired codes; the TTL index does the same lazily.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
