package passwordreset_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dalemusser/placementhub/internal/app/store/passwordreset"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var sixDigits = regexp.MustCompile(`^[1-9][0-9]{5}$`)

func TestCreateAndVerify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := passwordreset.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if s.Expiry() != passwordreset.DefaultExpiry {
		t.Errorf("Expiry = %v", s.Expiry())
	}
	uid := primitive.NewObjectID()
	code, err := s.Create(ctx, "student", "Asha@College.edu", uid)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !sixDigits.MatchString(code) {
		t.Errorf("code %q is not six digits", code)
	}

	if _, err := s.Verify(ctx, "admin", "asha@college.edu", code); !errors.Is(err, passwordreset.ErrNotFound) {
		t.Errorf("role must scope codes, got %v", err)
	}
	if _, err := s.Verify(ctx, "student", "asha@college.edu", "000000"); !errors.Is(err, passwordreset.ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}
	r, err := s.Verify(ctx, "student", " ASHA@college.edu", code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if r.UserID != uid {
		t.Errorf("UserID = %v", r.UserID)
	}
	if _, err := s.Verify(ctx, "student", "asha@college.edu", code); !errors.Is(err, passwordreset.ErrNotFound) {
		t.Errorf("code should be single use, got %v", err)
	}
}

func TestVerify_TooManyAttempts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := passwordreset.New(db, time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, _ := s.Create(ctx, "admin", "root@college.edu", primitive.NewObjectID())
	for i := 0; i < passwordreset.MaxVerifyAttempts; i++ {
		_, _ = s.Verify(ctx, "admin", "root@college.edu", "bad")
	}
	if _, err := s.Verify(ctx, "admin", "root@college.edu", code); !errors.Is(err, passwordreset.ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestCreate_RequestLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := passwordreset.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	for i := 0; i < passwordreset.MaxRequests; i++ {
		if _, err := s.Create(ctx, "student", "a@b.c", uid); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := s.Create(ctx, "student", "a@b.c", uid); !errors.Is(err, passwordreset.ErrTooManyRequests) {
		t.Errorf("expected ErrTooManyRequests, got %v", err)
	}
	n, _ := db.Collection("password_resets").CountDocuments(ctx, bson.M{})
	if n != 1 {
		t.Errorf("expected a single live code, found %d", n)
	}
}

func TestPurgeExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := passwordreset.New(db, time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.Create(ctx, "student", "x@y.z", primitive.NewObjectID()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	n, err := s.PurgeExpired(ctx, time.Now().Add(time.Second))
	if err != nil || n != 1 {
		t.Errorf("PurgeExpired = %d, %v", n, err)
	}
}
