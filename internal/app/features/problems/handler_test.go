package problems_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/placementhub/internal/app/features/problems"
	"github.com/dalemusser/placementhub/internal/app/system/coderunner"
	"github.com/dalemusser/placementhub/internal/app/system/indexes"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// fakeRunner judges by echoing: the "program" output is its code, so a case
// passes when the code equals the expected output.
type fakeRunner struct {
	err   error
	cases [][]models.TestCase
}

func (f *fakeRunner) Run(_ context.Context, req coderunner.RunRequest) (coderunner.Result, error) {
	if f.err != nil {
		return coderunner.Result{}, f.err
	}
	return coderunner.Result{Stdout: req.Code + req.Stdin}, nil
}

func (f *fakeRunner) Judge(_ context.Context, _, code string, cases []models.TestCase) (coderunner.Verdict, error) {
	f.cases = append(f.cases, cases)
	if f.err != nil {
		return coderunner.Verdict{}, f.err
	}
	v := coderunner.Verdict{Total: len(cases)}
	for _, tc := range cases {
		if !coderunner.OutputMatches(code, tc.Output) {
			v.Verdict = models.VerdictWrongAnswer
			return v, nil
		}
		v.Passed++
	}
	v.Verdict = models.VerdictAccepted
	return v, nil
}

func (f *fakeRunner) Languages() map[string]coderunner.Language {
	return map[string]coderunner.Language{
		"python": {ID: "python", Name: "Python 3"},
		"c":      {ID: "c", Name: "C"},
	}
}

func setup(t *testing.T) (*mongo.Database, *problems.Handler, *fakeRunner) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	fr := &fakeRunner{}
	return db, problems.NewHandler(db, fr, nil, zap.NewNop()), fr
}

func TestCreate_SlugAndValidation(t *testing.T) {
	_, h, _ := setup(t)
	admin := testutil.AdminUser()
	body := map[string]any{
		"title": "Two Sum", "statement": "Add them.", "difficulty": "Medium",
		"tags":    []string{"Arrays", "arrays", "Hashing"},
		"samples": []models.TestCase{{Input: "1 2", Output: "3"}},
	}

	rec := httptest.NewRecorder()
	h.ServeCreate(rec, testutil.JSONRequest(t, http.MethodPost, "/api/problems", body, admin))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	p := testutil.DecodeJSON[models.Problem](t, rec)
	if p.Slug != "two-sum" || p.Difficulty != models.DifficultyMedium || len(p.Tags) != 2 {
		t.Errorf("problem = %+v", p)
	}

	rec = httptest.NewRecorder()
	h.ServeCreate(rec, testutil.JSONRequest(t, http.MethodPost, "/api/problems", body, admin))
	testutil.AssertStatus(t, rec, http.StatusConflict)

	for name, b := range map[string]map[string]any{
		"no title":       {"statement": "s", "samples": []models.TestCase{{Output: "1"}}},
		"no statement":   {"title": "t", "samples": []models.TestCase{{Output: "1"}}},
		"bad difficulty": {"title": "t", "statement": "s", "difficulty": "insane", "samples": []models.TestCase{{Output: "1"}}},
		"no cases":       {"title": "t", "statement": "s"},
	} {
		rec := httptest.NewRecorder()
		h.ServeCreate(rec, testutil.JSONRequest(t, http.MethodPost, "/api/problems", b, admin))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", name, rec.Code)
		}
	}
}

func TestGet_HidesTestsFromStudents(t *testing.T) {
	db, h, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProblem(ctx, "Sum", "sum",
		[]models.TestCase{{Input: "1 2", Output: "3"}},
		[]models.TestCase{{Input: "40 2", Output: "SECRET-42"}})

	get := func(key string, user *http.Request) string {
		rec := httptest.NewRecorder()
		h.ServeGet(rec, testutil.WithChiURLParam(user, "id", key))
		testutil.AssertStatus(t, rec, http.StatusOK)
		return rec.Body.String()
	}

	student := testutil.JSONRequest(t, http.MethodGet, "/", nil, testutil.StudentUser(primitive.NewObjectID()))
	if body := get(p.ID.Hex(), student); strings.Contains(body, "SECRET-42") {
		t.Errorf("student sees hidden tests: %s", body)
	}
	if body := get("sum", student); !strings.Contains(body, `"slug":"sum"`) {
		t.Errorf("slug lookup = %s", body)
	}
	admin := testutil.JSONRequest(t, http.MethodGet, "/", nil, testutil.AdminUser())
	if body := get(p.ID.Hex(), admin); !strings.Contains(body, "SECRET-42") {
		t.Errorf("admin missing hidden tests: %s", body)
	}

	rec := httptest.NewRecorder()
	h.ServeList(rec, testutil.JSONRequest(t, http.MethodGet, "/api/problems?difficulty=easy", nil, testutil.StudentUser(primitive.NewObjectID())))
	testutil.AssertStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "SECRET-42") || !strings.Contains(rec.Body.String(), `"slug":"sum"`) {
		t.Errorf("list = %s", rec.Body.String())
	}
}

func TestSubmit_StoresVerdict(t *testing.T) {
	db, h, fr := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProblem(ctx, "Echo", "echo",
		[]models.TestCase{{Input: "", Output: "hi"}},
		[]models.TestCase{{Input: "", Output: "hi\n"}})
	student := primitive.NewObjectID()

	submit := func(code string) models.Submission {
		rec := httptest.NewRecorder()
		req := testutil.JSONRequest(t, http.MethodPost, "/", map[string]string{"language": "python", "code": code}, testutil.StudentUser(student))
		h.ServeSubmit(rec, testutil.WithChiURLParam(req, "id", p.ID.Hex()))
		testutil.AssertStatus(t, rec, http.StatusCreated)
		return testutil.DecodeJSON[models.Submission](t, rec)
	}

	if got := submit("bye"); got.Verdict != models.VerdictWrongAnswer || got.Passed != 0 || got.Total != 2 {
		t.Errorf("wrong answer submission = %+v", got)
	}
	if got := submit("hi"); got.Verdict != models.VerdictAccepted || got.Passed != 2 {
		t.Errorf("accepted submission = %+v", got)
	}
	if len(fr.cases) != 2 || fr.cases[0][0].Output != "hi" || fr.cases[0][1].Output != "hi\n" {
		t.Errorf("judge saw cases %+v, want samples then tests", fr.cases)
	}

	rec := httptest.NewRecorder()
	h.ServeMySubmissions(rec, testutil.JSONRequest(t, http.MethodGet, "/api/me/submissions?problem_id="+p.ID.Hex(), nil, testutil.StudentUser(student)))
	testutil.AssertStatus(t, rec, http.StatusOK)
	mine := testutil.DecodeJSON[struct {
		Items []models.Submission `json:"items"`
	}](t, rec)
	if len(mine.Items) != 2 || mine.Items[0].Verdict != models.VerdictAccepted {
		t.Errorf("my submissions = %+v", mine.Items)
	}

	rec = httptest.NewRecorder()
	h.ServeDelete(rec, testutil.WithChiURLParam(
		testutil.JSONRequest(t, http.MethodDelete, "/", nil, testutil.AdminUser()), "id", p.ID.Hex()))
	testutil.AssertStatus(t, rec, http.StatusNoContent)
	n, err := db.Collection("submissions").CountDocuments(ctx, bson.M{"problem_id": p.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("submissions left = %d", n)
	}
}

func TestRun_Errors(t *testing.T) {
	_, h, fr := setup(t)
	user := testutil.StudentUser(primitive.NewObjectID())

	run := func(body map[string]string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeRun(rec, testutil.JSONRequest(t, http.MethodPost, "/api/run", body, user))
		return rec
	}

	rec := run(map[string]string{"language": "python", "code": "x", "stdin": "y"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	if got := testutil.DecodeJSON[coderunner.Result](t, rec); got.Stdout != "xy" {
		t.Errorf("stdout = %q", got.Stdout)
	}

	testutil.AssertStatus(t, run(map[string]string{"language": "python"}), http.StatusBadRequest)

	fr.err = coderunner.ErrUnsupportedLanguage
	testutil.AssertStatus(t, run(map[string]string{"language": "cobol", "code": "x"}), http.StatusBadRequest)

	fr.err = coderunner.ErrBusy
	rec = run(map[string]string{"language": "python", "code": "x"})
	testutil.AssertStatus(t, rec, http.StatusServiceUnavailable)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("busy response should carry Retry-After")
	}

	rec = httptest.NewRecorder()
	h.ServeLanguages(rec, testutil.JSONRequest(t, http.MethodGet, "/api/run/languages", nil, user))
	testutil.AssertStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"id":"c"`) {
		t.Errorf("languages = %s", rec.Body.String())
	}
}
