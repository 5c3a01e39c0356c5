package companystore_test

import (
	"errors"
	"testing"
	"time"

	companystore "github.com/dalemusser/placementhub/internal/app/store/companies"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCompanyStore_CreateListUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := companystore.New(db)

	now := time.Now().UTC()
	soon, err := s.Create(ctx, models.Company{Name: "Acme", Role: "SDE", Deadline: now.Add(time.Hour), Branches: []string{"cse", "CSE ", "it"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if soon.Status != models.CompanyOpen || len(soon.Branches) != 2 {
		t.Errorf("unexpected company %+v", soon)
	}
	if _, err := s.Create(ctx, models.Company{Name: "Globex", Role: "Analyst", Deadline: now.Add(48 * time.Hour)}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := s.List(ctx, companystore.ListFilter{}, paging.Params{Page: 1, Limit: 10})
	if err != nil || len(rows) != 2 || rows[0].Name != "Acme" {
		t.Fatalf("List: %v %+v", err, rows)
	}
	rows, _ = s.List(ctx, companystore.ListFilter{Search: "analyst"}, paging.Params{Page: 1, Limit: 10})
	if len(rows) != 1 || rows[0].Name != "Globex" {
		t.Errorf("search by role: %+v", rows)
	}

	closed := models.CompanyClosed
	upd, err := s.Update(ctx, soon.ID, companystore.Patch{Status: &closed})
	if err != nil || upd.Status != models.CompanyClosed {
		t.Fatalf("Update: %+v %v", upd, err)
	}
	if _, err := s.Update(ctx, primitive.NewObjectID(), companystore.Patch{}); !errors.Is(err, companystore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	up, _ := s.Upcoming(ctx, now, 5)
	if len(up) != 1 || up[0].Name != "Globex" {
		t.Errorf("Upcoming: %+v", up)
	}
}

func TestCloseExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := companystore.New(db)

	now := time.Now().UTC()
	past, _ := s.Create(ctx, models.Company{Name: "Old", Role: "SDE", Deadline: now.Add(-time.Minute)})
	future, _ := s.Create(ctx, models.Company{Name: "New", Role: "SDE", Deadline: now.Add(time.Hour)})

	n, err := s.CloseExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("CloseExpired = %d, %v", n, err)
	}
	got, _ := s.GetByID(ctx, past.ID)
	if got.Status != models.CompanyClosed {
		t.Errorf("expired company still %q", got.Status)
	}
	got, _ = s.GetByID(ctx, future.ID)
	if got.Status != models.CompanyOpen {
		t.Errorf("future company changed to %q", got.Status)
	}
	if c, _ := s.Count(ctx, bson.M{"status": models.CompanyOpen}); c != 1 {
		t.Errorf("open count = %d", c)
	}
}
