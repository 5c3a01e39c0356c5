package ats_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/placementhub/internal/app/features/ats"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type disabledLLM struct{}

func (disabledLLM) Complete(context.Context, llm.Request) (string, error) {
	return "", llm.ErrNotConfigured
}

func TestScan_ProfileResumeAndHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	st := fx.CreateStudent(ctx, "Dev", "dev@c.edu", "CS-9", "CSE", 8)
	co := fx.CreateCompany(ctx, "Acme", 6)
	_, err := db.Collection("companies").UpdateByID(ctx, co.ID,
		bson.M{"$set": bson.M{"description": "<p>Python and <b>Django</b> developers</p>"}})
	require.NoError(t, err)

	h := ats.NewHandler(db, disabledLLM{}, nil, zap.NewNop())
	user := testutil.StudentUser(st.ID)

	scan := func(fields map[string]string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeScan(rec, testutil.MultipartRequest(t, "/api/ats/scan", "", "", nil, fields, user))
		return rec
	}

	// No resume on file yet.
	testutil.AssertStatus(t, scan(map[string]string{"job_description": "Python developer"}), http.StatusBadRequest)

	_, err = db.Collection("students").UpdateByID(ctx, st.ID,
		bson.M{"$set": bson.M{"resume_text": "Python, Flask and SQL projects", "resume_url": "/uploads/resumes/x.pdf"}})
	require.NoError(t, err)

	testutil.AssertStatus(t, scan(map[string]string{}), http.StatusBadRequest)
	testutil.AssertStatus(t, scan(map[string]string{"company_id": "nope"}), http.StatusBadRequest)
	testutil.AssertStatus(t, scan(map[string]string{"company_id": primitive.NewObjectID().Hex()}), http.StatusNotFound)

	rec := scan(map[string]string{"company_id": co.ID.Hex()})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	got := testutil.DecodeJSON[models.ResumeScan](t, rec)
	assert.Equal(t, models.ScanSourceFallback, got.Result.Source)
	assert.Contains(t, got.Result.MatchedKeywords, "python")
	assert.Contains(t, got.Result.MissingKeywords, "django")
	assert.NotContains(t, got.JobDescription, "<p>")
	assert.Equal(t, "/uploads/resumes/x.pdf", got.ResumeURL)
	require.NotNil(t, got.CompanyID)

	rec = httptest.NewRecorder()
	h.ServeHistory(rec, testutil.JSONRequest(t, http.MethodGet, "/api/ats/scans", nil, user))
	testutil.AssertStatus(t, rec, http.StatusOK)
	hist := testutil.DecodeJSON[struct {
		Items []models.ResumeScan `json:"items"`
	}](t, rec)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, got.ID, hist.Items[0].ID)
}

func TestScan_RejectsNonPDF(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := ats.NewHandler(db, disabledLLM{}, nil, zap.NewNop())
	rec := httptest.NewRecorder()
	req := testutil.MultipartRequest(t, "/api/ats/scan", "resume", "cv.txt", []byte("plain text resume"),
		map[string]string{"job_description": "Go"}, testutil.StudentUser(primitive.NewObjectID()))
	h.ServeScan(rec, req)
	testutil.AssertStatus(t, rec, http.StatusUnsupportedMediaType)
}
