package attemptstore_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	attemptstore "github.com/dalemusser/placementhub/internal/app/store/attempts"
	"github.com/dalemusser/placementhub/internal/app/system/indexes"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) *attemptstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return attemptstore.New(db)
}

func TestStartSubmitOnce(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	quiz, student := primitive.NewObjectID(), primitive.NewObjectID()
	a, err := s.Start(ctx, quiz, student, 4)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Start(ctx, quiz, student, 4); !errors.Is(err, attemptstore.ErrAlreadyAttempted) {
		t.Fatalf("expected ErrAlreadyAttempted, got %v", err)
	}

	res := attemptstore.Result{Answers: []int{1, 0, 2, 3}, Score: 3, Total: 4, Percentage: 75, SubmittedAt: time.Now()}
	got, err := s.Submit(ctx, a.ID, res)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !got.Submitted() || got.Score != 3 {
		t.Errorf("Submit = %+v", got)
	}
	if _, err := s.Submit(ctx, a.ID, res); !errors.Is(err, attemptstore.ErrAlreadySubmitted) {
		t.Errorf("expected ErrAlreadySubmitted, got %v", err)
	}
	if _, err := s.Submit(ctx, primitive.NewObjectID(), res); !errors.Is(err, attemptstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendProctor(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := s.Start(ctx, primitive.NewObjectID(), primitive.NewObjectID(), 1)
	got, err := s.AppendProctor(ctx, a.ID, models.ProctorEntry{ImageURL: "/files/x.png", Reason: "second face", At: time.Now().UTC()})
	if err != nil {
		t.Fatalf("AppendProctor: %v", err)
	}
	if !got.Flagged || len(got.ProctorLog) != 1 || got.ProctorLog[0].Reason != "second face" {
		t.Errorf("AppendProctor = %+v", got)
	}
	if _, err := s.AppendProctor(ctx, primitive.NewObjectID(), models.ProctorEntry{}); !errors.Is(err, attemptstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendProctor_AfterSubmit(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := s.Start(ctx, primitive.NewObjectID(), primitive.NewObjectID(), 1)
	if _, err := s.Submit(ctx, a.ID, attemptstore.Result{Answers: []int{0}, Total: 1, SubmittedAt: time.Now()}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err := s.AppendProctor(ctx, a.ID, models.ProctorEntry{ImageURL: "/files/late.png", Reason: "phone visible", At: time.Now().UTC()})
	if !errors.Is(err, attemptstore.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	got, err := s.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Flagged || len(got.ProctorLog) != 0 {
		t.Errorf("submitted attempt was flagged: %+v", got)
	}
}

func TestUnflaggedAttemptHasEmptyLog(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := primitive.NewObjectID()
	a, err := s.Start(ctx, primitive.NewObjectID(), student, 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	got, err := s.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	b, _ := json.Marshal(got)
	if !strings.Contains(string(b), `"proctor_log":[]`) {
		t.Errorf("json = %s, want an empty proctor_log list", b)
	}

	list, err := s.ListByStudent(ctx, student)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByStudent = %d, %v", len(list), err)
	}
	if list[0].ProctorLog == nil {
		t.Error("listed attempt has a nil proctor log")
	}
}

func TestLeaderboardAndSummary(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	quiz := primitive.NewObjectID()
	submit := func(pct float64, took time.Duration) primitive.ObjectID {
		t.Helper()
		student := primitive.NewObjectID()
		a, err := s.Start(ctx, quiz, student, 2)
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		if _, err := s.Submit(ctx, a.ID, attemptstore.Result{Percentage: pct, Total: 2, SubmittedAt: a.StartedAt.Add(took)}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		return student
	}
	slow := submit(100, 5*time.Minute)
	fast := submit(100, time.Minute)
	low := submit(50, 30*time.Second)
	// unsubmitted attempts are not ranked
	if _, err := s.Start(ctx, quiz, primitive.NewObjectID(), 2); err != nil {
		t.Fatalf("Start: %v", err)
	}

	board, err := s.Leaderboard(ctx, quiz)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("board len = %d", len(board))
	}
	if board[0].StudentID != fast || board[1].StudentID != slow || board[2].StudentID != low {
		t.Errorf("unexpected order: %v %v %v", board[0].StudentID, board[1].StudentID, board[2].StudentID)
	}

	sum, err := s.Summarize(ctx, nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Count != 3 || sum.Average < 83.3 || sum.Average > 83.4 {
		t.Errorf("summary = %+v", sum)
	}
	mine, _ := s.Summarize(ctx, &low)
	if mine.Count != 1 || mine.Average != 50 {
		t.Errorf("student summary = %+v", mine)
	}
}
