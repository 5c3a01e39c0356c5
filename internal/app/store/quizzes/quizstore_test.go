package quizstore_test

import (
	"errors"
	"testing"
	"time"

	quizstore "github.com/dalemusser/placementhub/internal/app/store/quizzes"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestQuizStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := quizstore.New(db)

	now := time.Now().UTC()
	ended := now.Add(-time.Minute)
	ans := 0
	q, err := s.Create(ctx, models.Quiz{
		Title: "Aptitude 1", DurationMinutes: 10, Active: true, EndsAt: &ended,
		Questions: []models.Question{{Text: "1+1", Options: []string{"2", "3"}, Answer: &ans}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, models.Quiz{Title: "Draft", DurationMinutes: 5}); err != nil {
		t.Fatalf("Create draft: %v", err)
	}

	active, _ := s.List(ctx, true)
	if len(active) != 1 {
		t.Fatalf("active = %d", len(active))
	}

	n, err := s.DeactivateEnded(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeactivateEnded = %d, %v", n, err)
	}
	got, _ := s.GetByID(ctx, q.ID)
	if got.Active {
		t.Error("ended quiz still active")
	}
	if *got.Questions[0].Answer != 0 {
		t.Error("answer not persisted")
	}

	got.Title = "Aptitude I"
	got.EndsAt = nil
	got.Active = true
	upd, err := s.Replace(ctx, got)
	if err != nil || upd.Title != "Aptitude I" || upd.EndsAt != nil || !upd.Active {
		t.Fatalf("Replace: %+v %v", upd, err)
	}

	if _, err := s.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, quizstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
