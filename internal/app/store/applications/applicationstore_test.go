package applicationstore_test

import (
	"errors"
	"testing"

	applicationstore "github.com/dalemusser/placementhub/internal/app/store/applications"
	"github.com/dalemusser/placementhub/internal/app/system/indexes"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestApplicationLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	s := applicationstore.New(db)

	company, student, other := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	a, err := s.Create(ctx, company, student)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != models.AppApplied {
		t.Errorf("status = %q", a.Status)
	}
	if _, err := s.Create(ctx, company, student); !errors.Is(err, applicationstore.ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
	if _, err := s.Create(ctx, company, other); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	upd, prev, err := s.UpdateStatus(ctx, a.ID, models.AppSelected, "offer sent")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if prev != models.AppApplied || upd.Status != models.AppSelected || upd.Note != "offer sent" {
		t.Errorf("UpdateStatus = %+v, prev %q", upd, prev)
	}
	if _, _, err := s.UpdateStatus(ctx, a.ID, "hired", ""); !errors.Is(err, applicationstore.ErrBadStatus) {
		t.Errorf("expected ErrBadStatus, got %v", err)
	}

	counts, err := s.CountByStatus(ctx, nil)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[models.AppApplied] != 1 || counts[models.AppSelected] != 1 || counts[models.AppRejected] != 0 {
		t.Errorf("counts = %v", counts)
	}
	mine, _ := s.CountByStatus(ctx, &student)
	if mine[models.AppSelected] != 1 || mine[models.AppApplied] != 0 {
		t.Errorf("student counts = %v", mine)
	}

	rows, _ := s.ListByCompany(ctx, company, models.AppApplied)
	if len(rows) != 1 || rows[0].StudentID != other {
		t.Errorf("ListByCompany(applied) = %+v", rows)
	}

	if n, _ := s.DeleteByCompany(ctx, company); n != 2 {
		t.Errorf("DeleteByCompany = %d", n)
	}
}
