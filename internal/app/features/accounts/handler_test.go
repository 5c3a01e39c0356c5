package accounts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/accounts"
	"github.com/dalemusser/placementhub/internal/app/store/passwordreset"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/indexes"
	"github.com/dalemusser/placementhub/internal/app/system/mailer"
	"github.com/dalemusser/placementhub/internal/app/system/ratelimit"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (m *captureMailer) Send(_ context.Context, e mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

func (m *captureMailer) last() (mailer.Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mailer.Email{}, false
	}
	return m.sent[len(m.sent)-1], true
}

func newHandler(t *testing.T, db *mongo.Database) (*accounts.Handler, *captureMailer) {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(strings.Repeat("k", 32), "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	limiter := ratelimit.NewLoginLimiter()
	t.Cleanup(limiter.Stop)

	m := &captureMailer{}
	h := accounts.NewHandler(db, sm, m, nil, limiter, "Placement Cell", "https://placements.example.edu", logger)
	return h, m
}

func hasSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge >= 0 && c.Value != "" {
			return true
		}
	}
	return false
}

func TestRegister_CreatesStudentAndSignsIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	h, _ := newHandler(t, db)

	body := map[string]any{
		"name": "Asha Rao", "email": "Asha@College.EDU", "password": "s3cretpass",
		"roll_no": "cs21-001", "branch": "cse", "year": 3, "cgpa": 8.4,
	}
	rec := httptest.NewRecorder()
	h.ServeRegister(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/register", body, nil))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked in response: %s", rec.Body.String())
	}
	got := testutil.DecodeJSON[map[string]any](t, rec)
	if got["email"] != "asha@college.edu" {
		t.Errorf("email = %v, want folded", got["email"])
	}
	if !hasSessionCookie(rec) {
		t.Error("expected a session cookie")
	}

	// Same email again conflicts.
	body["roll_no"] = "CS21-002"
	rec = httptest.NewRecorder()
	h.ServeRegister(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/register", body, nil))
	testutil.AssertStatus(t, rec, http.StatusConflict)
}

func TestRegister_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := newHandler(t, db)

	base := func() map[string]any {
		return map[string]any{
			"name": "Ravi", "email": "ravi@college.edu", "password": "longenough",
			"roll_no": "ME-7", "branch": "ME", "year": 2,
		}
	}
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"short password", func(b map[string]any) { b["password"] = "short" }},
		{"bad email", func(b map[string]any) { b["email"] = "not-an-email" }},
		{"display name email", func(b map[string]any) { b["email"] = "Ravi K <ravi@college.edu>" }},
		{"missing roll", func(b map[string]any) { b["roll_no"] = "  " }},
		{"missing branch", func(b map[string]any) { b["branch"] = "" }},
		{"year out of range", func(b map[string]any) { b["year"] = 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base()
			tt.mutate(b)
			rec := httptest.NewRecorder()
			h.ServeRegister(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/register", b, nil))
			testutil.AssertStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	st := fx.CreateStudent(ctx, "Meera", "meera@college.edu", "EC-1", "ECE", 7.5)
	fx.CreateAdmin(ctx, "Cell Admin", "cell@college.edu", false)

	h, _ := newHandler(t, db)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"student ok", map[string]string{"email": "MEERA@college.edu", "password": testutil.TestPassword}, http.StatusOK},
		{"admin ok", map[string]string{"email": "cell@college.edu", "password": testutil.TestPassword, "role": "admin"}, http.StatusOK},
		{"wrong password", map[string]string{"email": "meera@college.edu", "password": "nope-nope"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "ghost@college.edu", "password": testutil.TestPassword}, http.StatusUnauthorized},
		{"student as admin", map[string]string{"email": "meera@college.edu", "password": testutil.TestPassword, "role": "admin"}, http.StatusUnauthorized},
		{"bad role", map[string]string{"email": "meera@college.edu", "password": testutil.TestPassword, "role": "root"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeLogin(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/login", tt.body, nil))
			testutil.AssertStatus(t, rec, tt.want)
		})
	}

	n, err := db.Collection("login_records").CountDocuments(ctx, bson.M{"user_id": st.ID})
	if err != nil {
		t.Fatalf("count logins: %v", err)
	}
	if n != 1 {
		t.Errorf("login records for student = %d, want 1", n)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	st := fx.CreateStudent(ctx, "Off", "off@college.edu", "X-1", "CSE", 6)
	if _, err := db.Collection("students").UpdateByID(ctx, st.ID, bson.M{"$set": bson.M{"status": "disabled"}}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	h, _ := newHandler(t, db)
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "off@college.edu", "password": testutil.TestPassword}, nil))
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}

func TestLogin_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := newHandler(t, db)
	h.Limiter = ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	t.Cleanup(h.Limiter.Stop)

	body := map[string]string{"email": "who@college.edu", "password": "whatever1"}
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeLogin(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/login", body, nil))
		testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	}
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/login", body, nil))
	testutil.AssertStatus(t, rec, http.StatusTooManyRequests)
}

func TestMeAndChangePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	st := fx.CreateStudent(ctx, "Kiran", "kiran@college.edu", "CE-4", "CIVIL", 8)
	user := testutil.StudentUser(st.ID)

	h, _ := newHandler(t, db)

	rec := httptest.NewRecorder()
	h.ServeMe(rec, testutil.JSONRequest(t, http.MethodGet, "/api/auth/me", nil, user))
	testutil.AssertStatus(t, rec, http.StatusOK)
	me := testutil.DecodeJSON[map[string]map[string]any](t, rec)
	if me["profile"]["roll_no"] != "CE-4" {
		t.Errorf("profile roll_no = %v", me["profile"]["roll_no"])
	}

	rec = httptest.NewRecorder()
	h.ServeChangePassword(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/password",
		map[string]string{"current": "wrong-one", "new": "brand-new-pass"}, user))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	h.ServeChangePassword(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/password",
		map[string]string{"current": testutil.TestPassword, "new": "brand-new-pass"}, user))
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	rec = httptest.NewRecorder()
	h.ServeLogin(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "kiran@college.edu", "password": "brand-new-pass"}, nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestForgotAndReset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	fx.CreateStudent(ctx, "Nila", "nila@college.edu", "IT-9", "IT", 9)

	h, m := newHandler(t, db)

	// Unknown accounts get the same answer and no email.
	rec := httptest.NewRecorder()
	h.ServeForgot(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/forgot",
		map[string]string{"email": "ghost@college.edu"}, nil))
	testutil.AssertStatus(t, rec, http.StatusAccepted)
	if _, ok := m.last(); ok {
		t.Fatal("no email expected for unknown account")
	}

	rec = httptest.NewRecorder()
	h.ServeForgot(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/forgot",
		map[string]string{"email": "nila@college.edu"}, nil))
	testutil.AssertStatus(t, rec, http.StatusAccepted)

	mail, ok := m.last()
	if !ok {
		t.Fatal("expected a reset email")
	}
	if mail.To != "nila@college.edu" {
		t.Errorf("To = %q", mail.To)
	}
	code := extractCode(mail.TextBody)
	if len(code) != 6 {
		t.Fatalf("could not find code in %q", mail.TextBody)
	}

	rec = httptest.NewRecorder()
	h.ServeReset(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/reset",
		map[string]string{"email": "nila@college.edu", "code": "000000", "password": "fresh-password"}, nil))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	h.ServeReset(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/reset",
		map[string]string{"email": "nila@college.edu", "code": code, "password": "fresh-password"}, nil))
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	// The code is single-use.
	rec = httptest.NewRecorder()
	h.ServeReset(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/reset",
		map[string]string{"email": "nila@college.edu", "code": code, "password": "another-password"}, nil))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	h.ServeLogin(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "nila@college.edu", "password": "fresh-password"}, nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestForgot_RequestLimitStillAccepted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateStudent(ctx, "Lim", "lim@college.edu", "L-1", "CSE", 7)

	h, m := newHandler(t, db)
	for i := 0; i < passwordreset.MaxRequests+1; i++ {
		rec := httptest.NewRecorder()
		h.ServeForgot(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/forgot",
			map[string]string{"email": "lim@college.edu"}, nil))
		testutil.AssertStatus(t, rec, http.StatusAccepted)
	}
	if len(m.sent) != passwordreset.MaxRequests {
		t.Errorf("emails sent = %d, want %d", len(m.sent), passwordreset.MaxRequests)
	}
}

func extractCode(body string) string {
	const marker = "reset code is: "
	i := strings.Index(body, marker)
	if i < 0 || len(body) < i+len(marker)+6 {
		return ""
	}
	return body[i+len(marker) : i+len(marker)+6]
}
