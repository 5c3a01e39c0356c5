package oauthstate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/placementhub/internal/app/store/oauthstate"
	"github.com/dalemusser/placementhub/internal/testutil"
)

func TestStore_SaveConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "state-1", "verifier-1", "/dashboard", 10*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	st, err := store.Consume(ctx, "state-1")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if st.Verifier != "verifier-1" || st.ReturnURL != "/dashboard" {
		t.Errorf("unexpected state %+v", st)
	}

	if _, err := store.Consume(ctx, "state-1"); !errors.Is(err, oauthstate.ErrInvalid) {
		t.Errorf("state should be single use, got %v", err)
	}
}

func TestStore_Consume_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Consume(ctx, "nope"); !errors.Is(err, oauthstate.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestStore_ExpiredAndCleanup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "old", "v", "", -time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, "fresh", "v", "", time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Consume(ctx, "old"); !errors.Is(err, oauthstate.ErrInvalid) {
		t.Errorf("expired state accepted: %v", err)
	}

	n, err := store.CleanupExpired(ctx, time.Now())
	if err != nil || n != 1 {
		t.Errorf("CleanupExpired = %d, %v", n, err)
	}
	if _, err := store.Consume(ctx, "fresh"); err != nil {
		t.Errorf("fresh state lost: %v", err)
	}
}
