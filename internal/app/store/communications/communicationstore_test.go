package communicationstore_test

import (
	"testing"

	communicationstore "github.com/dalemusser/placementhub/internal/app/store/communications"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListAndDeleteByStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := communicationstore.New(db)

	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	for _, topic := range []string{"first", "second", "third"} {
		if _, err := s.Create(ctx, models.CommunicationEval{StudentID: me, Topic: topic}); err != nil {
			t.Fatalf("Create %s: %v", topic, err)
		}
	}
	if _, err := s.Create(ctx, models.CommunicationEval{StudentID: other, Topic: "theirs"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.ListByStudent(ctx, me, 2)
	if err != nil {
		t.Fatalf("ListByStudent: %v", err)
	}
	if len(got) != 2 || got[0].Topic != "third" || got[1].Topic != "second" {
		t.Errorf("ListByStudent = %+v, want third, second", got)
	}

	n, err := s.DeleteByStudent(ctx, me)
	if err != nil || n != 3 {
		t.Fatalf("DeleteByStudent = %d, %v", n, err)
	}
	got, _ = s.ListByStudent(ctx, me, 0)
	if len(got) != 0 {
		t.Errorf("expected no evaluations after delete, got %d", len(got))
	}
	theirs, _ := s.ListByStudent(ctx, other, 0)
	if len(theirs) != 1 {
		t.Errorf("other student's evaluations = %d, want 1", len(theirs))
	}
}
