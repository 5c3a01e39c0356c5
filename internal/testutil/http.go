package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUser returns a session user with the admin role.
func AdminUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Role:  auth.RoleAdmin,
	}
}

// SuperAdminUser returns an admin session user with the superadmin flag.
func SuperAdminUser() *auth.SessionUser {
	u := AdminUser()
	u.SuperAdmin = true
	u.Email = "super@test.com"
	return u
}

// StudentUser returns a session user for the given student id.
func StudentUser(id primitive.ObjectID) *auth.SessionUser {
	return &auth.SessionUser{
		ID:    id.Hex(),
		Name:  "Test Student",
		Email: "student@test.com",
		Role:  auth.RoleStudent,
	}
}

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// JSONRequest builds a request with body marshalled as JSON. A nil user
// leaves the request anonymous.
func JSONRequest(t *testing.T, method, target string, body any, user *auth.SessionUser) *http.Request {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req = auth.WithTestUser(req, user)
	}
	return req
}

// MultipartRequest builds a multipart/form-data request with one file part
// and optional text fields.
func MultipartRequest(t *testing.T, target, field, filename string, data []byte, fields map[string]string, user *auth.SessionUser) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if user != nil {
		req = auth.WithTestUser(req, user)
	}
	return req
}

// DecodeJSON decodes a recorder body into T, failing the test on error.
func DecodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// AssertStatus checks the response status code and prints the body on mismatch.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
