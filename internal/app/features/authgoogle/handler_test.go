package authgoogle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/authgoogle"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type fakeGoogle struct {
	srv      *httptest.Server
	profile  map[string]any
	verifier string
}

// newFakeGoogle serves a token endpoint and a userinfo endpoint.
func newFakeGoogle(t *testing.T, profile map[string]any) *fakeGoogle {
	t.Helper()
	fg := &fakeGoogle{profile: profile}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		fg.verifier = r.Form.Get("code_verifier")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok", "token_type": "Bearer", "expires_in": 3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fg.profile)
	})
	fg.srv = httptest.NewServer(mux)
	t.Cleanup(fg.srv.Close)
	return fg
}

func newTestHandler(t *testing.T, db *mongo.Database, fg *fakeGoogle) *authgoogle.Handler {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(strings.Repeat("s", 32), "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	h := authgoogle.NewHandler(db, sm, nil, "test-client-id", "test-client-secret",
		"http://api.local", "http://spa.local", logger)
	if fg != nil {
		h.Endpoint = oauth2.Endpoint{
			AuthURL:   fg.srv.URL + "/auth",
			TokenURL:  fg.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}
		h.UserInfoURL = fg.srv.URL + "/userinfo"
	}
	return h
}

// startFlow runs ServeLogin and returns the state Google would echo back.
func startFlow(t *testing.T, h *authgoogle.Handler, returnTo string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/login?return="+url.QueryEscape(returnTo), nil))
	testutil.AssertStatus(t, rec, http.StatusTemporaryRedirect)

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	q := loc.Query()
	if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		t.Fatalf("missing PKCE challenge in %s", loc)
	}
	return q.Get("state")
}

func callback(h *authgoogle.Handler, state string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet,
		"/api/auth/google/callback?code=abc&state="+url.QueryEscape(state), nil))
	return rec
}

func TestIsConfigured(t *testing.T) {
	h := &authgoogle.Handler{ClientID: "id", ClientSecret: "secret"}
	if !h.IsConfigured() {
		t.Error("expected configured")
	}
	h.ClientSecret = ""
	if h.IsConfigured() {
		t.Error("expected not configured without secret")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h := &authgoogle.Handler{Log: zap.NewNop(), FrontendURL: "http://spa.local"}
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil))

	testutil.AssertStatus(t, rec, http.StatusSeeOther)
	if got := rec.Header().Get("Location"); got != "http://spa.local/login?error=google_not_configured" {
		t.Errorf("Location = %q", got)
	}
}

func TestCallback_CreatesStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fg := newFakeGoogle(t, map[string]any{
		"id": "g-123", "email": "New.Student@College.edu", "verified_email": true, "name": "New Student",
	})
	h := newTestHandler(t, db, fg)

	state := startFlow(t, h, "/quizzes")
	rec := callback(h, state)
	testutil.AssertStatus(t, rec, http.StatusSeeOther)
	if got := rec.Header().Get("Location"); !strings.HasPrefix(got, "http://spa.local/") || strings.Contains(got, "error=") {
		t.Errorf("Location = %q", got)
	}
	if fg.verifier == "" {
		t.Error("token exchange did not send a PKCE verifier")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	var doc bson.M
	if err := db.Collection("students").FindOne(ctx, bson.M{"email": "new.student@college.edu"}).Decode(&doc); err != nil {
		t.Fatalf("student not created: %v", err)
	}
	if doc["google_id"] != "g-123" {
		t.Errorf("google_id = %v", doc["google_id"])
	}
	if doc["password_hash"] == "" {
		t.Error("expected an unusable password hash")
	}

	// The state is single use.
	rec = callback(h, state)
	if !strings.Contains(rec.Header().Get("Location"), "error=invalid_state") {
		t.Errorf("reused state: Location = %q", rec.Header().Get("Location"))
	}
}

func TestCallback_LinksExistingStudentByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := testutil.NewFixtures(t, db).CreateStudent(ctx, "Existing", "existing@college.edu", "CS-1", "CSE", 8)

	fg := newFakeGoogle(t, map[string]any{
		"id": "g-777", "email": "existing@college.edu", "verified_email": true, "name": "Existing",
	})
	h := newTestHandler(t, db, fg)

	rec := callback(h, startFlow(t, h, ""))
	testutil.AssertStatus(t, rec, http.StatusSeeOther)
	if got := rec.Header().Get("Location"); strings.Contains(got, "error=") {
		t.Errorf("Location = %q", got)
	}

	n, err := db.Collection("students").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("students = %d, want 1", n)
	}
	var doc bson.M
	if err := db.Collection("students").FindOne(ctx, bson.M{"_id": st.ID}).Decode(&doc); err != nil {
		t.Fatalf("find: %v", err)
	}
	if doc["google_id"] != "g-777" {
		t.Errorf("google_id = %v, want linked", doc["google_id"])
	}
}

func TestCallback_RejectsDisabledAndUnverified(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := testutil.NewFixtures(t, db).CreateStudent(ctx, "Gone", "gone@college.edu", "CS-2", "CSE", 8)
	if _, err := db.Collection("students").UpdateByID(ctx, st.ID, bson.M{"$set": bson.M{"status": "disabled"}}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	fg := newFakeGoogle(t, map[string]any{"id": "g-1", "email": "gone@college.edu", "verified_email": true})
	h := newTestHandler(t, db, fg)
	rec := callback(h, startFlow(t, h, ""))
	if got := rec.Header().Get("Location"); got != "http://spa.local/login?error=account_disabled" {
		t.Errorf("disabled: Location = %q", got)
	}

	fg.profile = map[string]any{"id": "g-2", "email": "fresh@college.edu", "verified_email": false}
	rec = callback(h, startFlow(t, h, ""))
	if got := rec.Header().Get("Location"); got != "http://spa.local/login?error=email_unverified" {
		t.Errorf("unverified: Location = %q", got)
	}
}

func TestCallback_GoogleError(t *testing.T) {
	h := &authgoogle.Handler{Log: zap.NewNop(), FrontendURL: "http://spa.local"}
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?error=access_denied", nil))

	if got := rec.Header().Get("Location"); got != "http://spa.local/login?error=google_denied" {
		t.Errorf("Location = %q", got)
	}
}
