// internal/app/features/ats/handler.go
package ats

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	companystore "github.com/dalemusser/placementhub/internal/app/store/companies"
	resumescanstore "github.com/dalemusser/placementhub/internal/app/store/resumescans"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/aicache"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
	"github.com/dalemusser/placementhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"github.com/dalemusser/placementhub/internal/app/system/pdftext"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxJobDescription bounds the job description sent to the model.
const MaxJobDescription = 8000

// Handler serves resume scans.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	Scanner *Scanner

	Scans     *resumescanstore.Store
	Students  *studentstore.Store
	Companies *companystore.Store
}

func NewHandler(db *mongo.Database, client llm.Client, cache *aicache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Log:       logger,
		Scanner:   &Scanner{LLM: client, Cache: cache, Log: logger},
		Scans:     resumescanstore.New(db),
		Students:  studentstore.New(db),
		Companies: companystore.New(db),
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, companystore.ErrNotFound):
		apiresp.NotFound(w, "company not found")
	case errors.Is(err, studentstore.ErrNotFound):
		apiresp.NotFound(w, "student not found")
	default:
		h.Log.Error("ats store error", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
	}
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/ats/scan                                                           |
| multipart: resume (pdf, optional), job_description, company_id (optional)    |
| Without an uploaded resume the profile resume is used. Without a job         |
| description the company's role and description are used.                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeScan(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	if err := shared.ParseMultipart(w, r); err != nil {
		shared.WriteUploadError(w, err)
		return
	}
	jd := strings.TrimSpace(r.FormValue("job_description"))
	companyID, ok := shared.ParseObjectID(r.FormValue("company_id"))
	if !ok {
		apiresp.BadRequest(w, "invalid company_id")
		return
	}
	up, upErr := shared.FormUpload(r, "resume", filestore.PDFTypes)
	if upErr != nil && !errors.Is(upErr, shared.ErrNoFile) {
		shared.WriteUploadError(w, upErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.AI())
	defer cancel()

	if jd == "" && companyID != nil {
		c, err := h.Companies.GetByID(ctx, *companyID)
		if !h.writeStoreError(w, r, err) {
			return
		}
		jd = strings.TrimSpace(c.Role + "\n" + htmlsanitize.PlainText(c.Description))
	}
	if jd == "" {
		apiresp.BadRequest(w, "job_description or company_id is required")
		return
	}
	if rs := []rune(jd); len(rs) > MaxJobDescription {
		jd = string(rs[:MaxJobDescription])
	}

	var resume, resumeURL string
	if upErr == nil {
		text, err := pdftext.Extract(up.Data)
		if err != nil {
			apiresp.BadRequest(w, "could not read text from the resume PDF")
			return
		}
		resume = text
	} else {
		st, err := h.Students.GetByID(ctx, u.ObjectID())
		if !h.writeStoreError(w, r, err) {
			return
		}
		resume, resumeURL = st.ResumeText, st.ResumeURL
	}
	if strings.TrimSpace(resume) == "" {
		apiresp.BadRequest(w, "upload a resume PDF or add a text-based resume to your profile")
		return
	}

	res, err := h.Scanner.Scan(ctx, resume, jd)
	if err != nil {
		apiresp.Error(w, http.StatusServiceUnavailable, "scan did not finish in time")
		return
	}

	scan, err := h.Scans.Create(ctx, models.ResumeScan{
		StudentID:      u.ObjectID(),
		CompanyID:      companyID,
		JobDescription: jd,
		ResumeURL:      resumeURL,
		Result:         res,
	})
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.Log.Info("resume scanned",
		zap.String("student_id", u.ID),
		zap.Int("score", res.Score),
		zap.String("source", res.Source))
	apiresp.Created(w, scan)
}

// GET /api/ats/scans
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	scans, err := h.Scans.ListByStudent(ctx, u.ObjectID(), 50)
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, map[string]any{"items": scans})
}
