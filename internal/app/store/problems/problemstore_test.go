package problemstore_test

import (
	"errors"
	"testing"

	problemstore "github.com/dalemusser/placementhub/internal/app/store/problems"
	"github.com/dalemusser/placementhub/internal/app/system/indexes"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
)

func TestProblemStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	s := problemstore.New(db)

	p, err := s.Create(ctx, models.Problem{
		Title: "Two  Sum", Difficulty: models.DifficultyEasy, Tags: []string{"Array", "array", "Hash"},
		Samples: []models.TestCase{{Input: "1 2", Output: "3"}},
		Tests:   []models.TestCase{{Input: "5 5", Output: "10"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Slug != "two-sum" || len(p.Tags) != 2 {
		t.Errorf("not normalised: %+v", p)
	}
	if _, err := s.Create(ctx, models.Problem{Title: "Two Sum", Difficulty: models.DifficultyEasy}); !errors.Is(err, problemstore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}

	rows, err := s.List(ctx, problemstore.ListFilter{Tag: "HASH"}, paging.Params{Page: 1, Limit: 10})
	if err != nil || len(rows) != 1 {
		t.Fatalf("List: %v %+v", err, rows)
	}
	if len(rows[0].Tests) != 0 {
		t.Error("List leaked hidden tests")
	}

	up, created, err := s.Upsert(ctx, models.Problem{Title: "Two Sum", Slug: "two-sum", Difficulty: models.DifficultyMedium})
	if err != nil || created {
		t.Fatalf("Upsert existing: created=%v err=%v", created, err)
	}
	if up.ID != p.ID || up.Difficulty != models.DifficultyMedium {
		t.Errorf("Upsert did not update in place: %+v", up)
	}
	_, created, err = s.Upsert(ctx, models.Problem{Title: "Reverse List", Difficulty: models.DifficultyHard})
	if err != nil || !created {
		t.Fatalf("Upsert new: created=%v err=%v", created, err)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Errorf("Count = %d", n)
	}
}
