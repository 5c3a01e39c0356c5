package loginstore_test

import (
	"net/http/httptest"
	"testing"

	loginstore "github.com/dalemusser/placementhub/internal/app/store/logins"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateFrom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("User-Agent", "test-agent")

	if err := store.CreateFrom(ctx, r, userID, "student", loginstore.ProviderPassword); err != nil {
		t.Fatalf("CreateFrom failed: %v", err)
	}

	recs, err := store.ListByUser(ctx, userID, 5)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.IP != "203.0.113.7" {
		t.Errorf("IP: got %q, want %q", rec.IP, "203.0.113.7")
	}
	if rec.UserAgent != "test-agent" || rec.Role != "student" || rec.Provider != loginstore.ProviderPassword {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestStore_DeleteByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	r := httptest.NewRequest("POST", "/", nil)
	for i := 0; i < 3; i++ {
		if err := store.CreateFrom(ctx, r, userID, "admin", loginstore.ProviderPassword); err != nil {
			t.Fatalf("CreateFrom: %v", err)
		}
	}
	if err := store.DeleteByUser(ctx, userID); err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	if recs, _ := store.ListByUser(ctx, userID, 0); len(recs) != 0 {
		t.Errorf("got %d records after delete", len(recs))
	}
}
