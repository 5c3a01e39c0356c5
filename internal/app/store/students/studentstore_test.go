package studentstore_test

import (
	"errors"
	"testing"

	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/indexes"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) *studentstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return studentstore.New(db)
}

func student(name, email, roll string) models.Student {
	return models.Student{Name: name, Email: email, PasswordHash: "x", RollNo: roll, Branch: "cse", Year: 4, CGPA: 8.1}
}

func TestCreate_NormalisesAndRejectsDuplicates(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := s.Create(ctx, student("  Asha   Rao ", " Asha@College.EDU ", "21 cs 001"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Name != "Asha Rao" || got.Email != "asha@college.edu" || got.RollNo != "21CS001" || got.Branch != "CSE" {
		t.Errorf("not normalised: %+v", got)
	}
	if got.Status != studentstore.StatusActive {
		t.Errorf("status = %q", got.Status)
	}

	if _, err := s.Create(ctx, student("Other", "ASHA@college.edu", "21CS002")); !errors.Is(err, studentstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
	if _, err := s.Create(ctx, student("Other", "other@college.edu", "21cs001")); !errors.Is(err, studentstore.ErrDuplicateRollNo) {
		t.Errorf("expected ErrDuplicateRollNo, got %v", err)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.GetByEmail(ctx, "nobody@x.com"); !errors.Is(err, studentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_FiltersAndPages(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i, n := range []string{"Charu", "Bala", "Anil"} {
		st := student(n, n+"@x.com", "R"+string(rune('1'+i)))
		if i == 2 {
			st.Branch = "ece"
		}
		if _, err := s.Create(ctx, st); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	rows, err := s.List(ctx, studentstore.ListFilter{}, paging.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	page := paging.Trim(rows, paging.Params{Page: 1, Limit: 2})
	if len(page.Items) != 2 || !page.HasNext || page.Items[0].Name != "Anil" {
		t.Errorf("unexpected page: %+v", page)
	}

	rows, _ = s.List(ctx, studentstore.ListFilter{Branch: "CSE"}, paging.Params{Page: 1, Limit: 10})
	if len(rows) != 2 {
		t.Errorf("branch filter: got %d rows", len(rows))
	}
	rows, _ = s.List(ctx, studentstore.ListFilter{Search: "bal"}, paging.Params{Page: 1, Limit: 10})
	if len(rows) != 1 || rows[0].Name != "Bala" {
		t.Errorf("search: %+v", rows)
	}
}

func TestUpdateAndPlacement(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st, err := s.Create(ctx, student("Dev", "dev@x.com", "R9"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cgpa := 9.2
	upd, err := s.Update(ctx, st.ID, studentstore.Patch{CGPA: &cgpa, Skills: []string{"Go", "go", " SQL "}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.CGPA != 9.2 || len(upd.Skills) != 2 {
		t.Errorf("update not applied: %+v", upd)
	}

	company := primitive.NewObjectID()
	if err := s.SetPlaced(ctx, st.ID, company); err != nil {
		t.Fatalf("SetPlaced: %v", err)
	}
	got, _ := s.GetByID(ctx, st.ID)
	if !got.Placed || got.PlacedCompanyID == nil || *got.PlacedCompanyID != company {
		t.Errorf("placement not recorded: %+v", got)
	}
	if err := s.ClearPlacedIf(ctx, st.ID, company); err != nil {
		t.Fatalf("ClearPlacedIf: %v", err)
	}
	got, _ = s.GetByID(ctx, st.ID)
	if got.Placed || got.PlacedCompanyID != nil {
		t.Errorf("placement not cleared: %+v", got)
	}

	old, err := s.SetResume(ctx, st.ID, "/files/a.pdf", "resumes/a.pdf")
	if err != nil || old != "" {
		t.Fatalf("SetResume first: %q %v", old, err)
	}
	old, _ = s.SetResume(ctx, st.ID, "/files/b.pdf", "resumes/b.pdf")
	if old != "resumes/a.pdf" {
		t.Errorf("expected previous key, got %q", old)
	}

	if err := s.SetStatus(ctx, primitive.NewObjectID(), studentstore.StatusDisabled); !errors.Is(err, studentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
