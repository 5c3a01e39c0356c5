package interviewstore_test

import (
	"errors"
	"testing"

	interviewstore "github.com/dalemusser/placementhub/internal/app/store/interviews"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAnswerAndFinish(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := interviewstore.New(db)
	student := primitive.NewObjectID()

	sess, err := s.Create(ctx, models.InterviewSession{
		StudentID: student, Role: "Backend", Level: "fresher",
		Questions: []models.InterviewQuestion{{Question: "What is a goroutine?"}, {Question: "Explain indexes."}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.GetOwned(ctx, sess.ID, primitive.NewObjectID()); !errors.Is(err, interviewstore.ErrNotFound) {
		t.Errorf("other student's session visible: %v", err)
	}

	got, err := s.SaveAnswer(ctx, sess.ID, 1, "B-trees", models.AnswerFeedback{Score: 7})
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if got.Questions[1].Feedback == nil || got.Questions[1].Feedback.Score != 7 || got.Questions[0].Answer != "" {
		t.Errorf("SaveAnswer = %+v", got.Questions)
	}

	done, err := s.Finish(ctx, sess.ID)
	if err != nil || !done.Finished || done.OverallScore == nil || *done.OverallScore != 7 {
		t.Fatalf("Finish = %+v, %v", done, err)
	}
	if _, err := s.SaveAnswer(ctx, sess.ID, 0, "late", models.AnswerFeedback{}); !errors.Is(err, interviewstore.ErrFinished) {
		t.Errorf("expected ErrFinished, got %v", err)
	}
	if _, err := s.Finish(ctx, sess.ID); !errors.Is(err, interviewstore.ErrFinished) {
		t.Errorf("expected ErrFinished on second finish, got %v", err)
	}
}

func TestFinish_CountsAnswersSavedAfterRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := interviewstore.New(db)
	student := primitive.NewObjectID()

	sess, err := s.Create(ctx, models.InterviewSession{
		StudentID: student, Role: "Data Analyst", Level: "fresher",
		Questions: []models.InterviewQuestion{{Question: "Explain a JOIN."}, {Question: "What is a p-value?"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.SaveAnswer(ctx, sess.ID, 0, "rows matched on a key", models.AnswerFeedback{Score: 6}); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}

	// A stale copy read before the second answer lands.
	stale, err := s.GetOwned(ctx, sess.ID, student)
	if err != nil {
		t.Fatalf("GetOwned: %v", err)
	}
	if _, err := s.SaveAnswer(ctx, sess.ID, 1, "chance of the result under H0", models.AnswerFeedback{Score: 9}); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if got := interviewstore.OverallScore(stale.Questions); got == nil || *got != 6 {
		t.Fatalf("stale score = %v, want 6", got)
	}

	done, err := s.Finish(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if done.OverallScore == nil || *done.OverallScore != 7.5 {
		t.Fatalf("overall = %v, want 7.5", done.OverallScore)
	}
	stored, err := s.GetOwned(ctx, sess.ID, student)
	if err != nil {
		t.Fatalf("GetOwned: %v", err)
	}
	if stored.OverallScore == nil || *stored.OverallScore != 7.5 {
		t.Errorf("stored overall = %v, want 7.5", stored.OverallScore)
	}
}

func TestOverallScore(t *testing.T) {
	fb := func(v float64) *models.AnswerFeedback { return &models.AnswerFeedback{Score: v} }
	tests := []struct {
		name string
		qs   []models.InterviewQuestion
		want *float64
	}{
		{"none answered", []models.InterviewQuestion{{Question: "a"}, {Question: "b"}}, nil},
		{"one answered", []models.InterviewQuestion{{Feedback: fb(8)}, {Question: "b"}}, ptr(8)},
		{"rounded to two places", []models.InterviewQuestion{{Feedback: fb(7)}, {Feedback: fb(8)}, {Feedback: fb(8)}}, ptr(7.67)},
		{"zero score counts", []models.InterviewQuestion{{Feedback: fb(0)}, {Feedback: fb(10)}}, ptr(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interviewstore.OverallScore(tt.qs)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("OverallScore = %v, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("OverallScore = %v, want %v", got, *tt.want)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }
