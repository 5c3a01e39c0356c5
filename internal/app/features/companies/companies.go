// internal/app/features/companies/companies.go
package companies

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	companystore "github.com/dalemusser/placementhub/internal/app/store/companies"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
	"github.com/dalemusser/placementhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/app/system/txn"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// companyView adds the caller's eligibility and application state for students.
type companyView struct {
	models.Company
	Eligible          *bool    `json:"eligible,omitempty"`
	Reasons           []string `json:"reasons,omitempty"`
	ApplicationStatus string   `json:"application_status,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/companies?status=&q=&page=&limit=                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	p := paging.Parse(r)
	f := companystore.ListFilter{Status: query.Get(r, "status"), Search: query.Get(r, "q")}
	if f.Status != "" && f.Status != models.CompanyOpen && f.Status != models.CompanyClosed {
		apiresp.BadRequest(w, "status must be open or closed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Companies.List(ctx, f, p)
	if !h.writeStoreError(w, r, err) {
		return
	}
	page := paging.Trim(rows, p)

	views := make([]companyView, len(page.Items))
	for i, c := range page.Items {
		views[i] = companyView{Company: c}
	}
	if u.IsStudent() {
		if !h.annotate(ctx, w, r, u, views) {
			return
		}
	}

	apiresp.OK(w, paging.Page[companyView]{
		Items:   views,
		Page:    page.Page,
		Limit:   page.Limit,
		HasNext: page.HasNext,
		HasPrev: page.HasPrev,
	})
}

// annotate fills eligibility and application status for the signed-in student.
func (h *Handler) annotate(ctx context.Context, w http.ResponseWriter, r *http.Request, u *auth.SessionUser, views []companyView) bool {
	st, err := h.Students.GetByID(ctx, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return false
	}
	applied, err := h.Applications.AppliedCompanyIDs(ctx, st.ID)
	if !h.writeStoreError(w, r, err) {
		return false
	}
	now := time.Now().UTC()
	for i := range views {
		reasons := views[i].IneligibleReasons(st, now)
		ok := len(reasons) == 0
		views[i].Eligible = &ok
		views[i].Reasons = reasons
		views[i].ApplicationStatus = applied[views[i].ID]
	}
	return true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/companies/{id}                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid company id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Companies.GetByID(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return
	}
	views := []companyView{{Company: c}}
	if u.IsStudent() {
		if !h.annotate(ctx, w, r, u, views) {
			return
		}
	}
	apiresp.OK(w, views[0])
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/companies                                                          |
| PUT  /api/companies/{id}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

type companyRequest struct {
	Name        *string    `json:"name"`
	Role        *string    `json:"role"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	PackageLPA  *float64   `json:"package_lpa"`
	MinCGPA     *float64   `json:"min_cgpa"`
	Branches    []string   `json:"branches"`
	Deadline    *time.Time `json:"deadline"`
	DriveDate   *time.Time `json:"drive_date"`
	Status      *string    `json:"status"`
}

func (req companyRequest) validate(creating bool) string {
	if creating {
		switch {
		case req.Name == nil || normalize.Name(*req.Name) == "":
			return "name is required"
		case req.Role == nil || strings.TrimSpace(*req.Role) == "":
			return "role is required"
		case req.Deadline == nil || req.Deadline.IsZero():
			return "deadline is required"
		}
	}
	if req.Name != nil && normalize.Name(*req.Name) == "" {
		return "name cannot be empty"
	}
	if req.MinCGPA != nil && (*req.MinCGPA < 0 || *req.MinCGPA > 10) {
		return "min_cgpa must be between 0 and 10"
	}
	if req.PackageLPA != nil && *req.PackageLPA < 0 {
		return "package_lpa cannot be negative"
	}
	if req.Status != nil && *req.Status != models.CompanyOpen && *req.Status != models.CompanyClosed {
		return "status must be open or closed"
	}
	return ""
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	var req companyRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	if msg := req.validate(true); msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Companies.Create(ctx, models.Company{
		Name:        *req.Name,
		Role:        strings.TrimSpace(*req.Role),
		Description: htmlsanitize.Sanitize(deref(req.Description)),
		Location:    strings.TrimSpace(deref(req.Location)),
		PackageLPA:  deref(req.PackageLPA),
		MinCGPA:     deref(req.MinCGPA),
		Branches:    req.Branches,
		Deadline:    req.Deadline.UTC(),
		DriveDate:   req.DriveDate,
		Status:      deref(req.Status),
	})
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventCompanyCreated, &c.ID, map[string]string{"name": c.Name})
	apiresp.Created(w, c)
}

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid company id")
		return
	}

	var req companyRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	if msg := req.validate(false); msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}
	patch := companystore.Patch{
		Name:       req.Name,
		Role:       req.Role,
		Location:   req.Location,
		PackageLPA: req.PackageLPA,
		MinCGPA:    req.MinCGPA,
		Branches:   req.Branches,
		Deadline:   req.Deadline,
		DriveDate:  req.DriveDate,
		Status:     req.Status,
	}
	if req.Description != nil {
		clean := htmlsanitize.Sanitize(*req.Description)
		patch.Description = &clean
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Companies.Update(ctx, id, patch)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventCompanyUpdated, &id, map[string]string{"name": c.Name})
	apiresp.OK(w, c)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /api/companies/{id}                                                   |
| Also removes the company's applications and logo.                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid company id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	c, err := h.Companies.GetByID(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return
	}
	if err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Applications.DeleteByCompany(ctx, id); err != nil {
			return err
		}
		_, err := h.Companies.Delete(ctx, id)
		return err
	}); err != nil {
		h.Log.Error("delete company failed", zap.Error(err), zap.String("company_id", id.Hex()))
		apiresp.Internal(w)
		return
	}
	if c.LogoKey != "" && h.Files != nil {
		if err := h.Files.Delete(ctx, c.LogoKey); err != nil {
			h.Log.Warn("delete logo failed", zap.Error(err), zap.String("key", c.LogoKey))
		}
	}

	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventCompanyDeleted, &id, map[string]string{"name": c.Name})
	apiresp.NoContent(w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/companies/{id}/logo   (multipart "logo": png/jpeg/webp ≤ 5 MB)     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUploadLogo(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid company id")
		return
	}
	if h.Files == nil {
		apiresp.Error(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}
	if err := shared.ParseMultipart(w, r); err != nil {
		shared.WriteUploadError(w, err)
		return
	}
	up, err := shared.FormUpload(r, "logo", filestore.ImageTypes)
	if err != nil {
		shared.WriteUploadError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	key := filestore.NewKey("logos", up.Ext)
	url, err := h.Files.Put(ctx, key, up.ContentType, up.Data)
	if err != nil {
		h.Log.Error("store logo failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	oldKey, err := h.Companies.SetLogo(ctx, id, url, key)
	if err != nil {
		_ = h.Files.Delete(ctx, key)
		h.writeStoreError(w, r, err)
		return
	}
	if oldKey != "" && oldKey != key {
		if err := h.Files.Delete(ctx, oldKey); err != nil {
			h.Log.Warn("delete replaced logo failed", zap.Error(err), zap.String("key", oldKey))
		}
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventCompanyUpdated, &id, map[string]string{"logo": url})
	apiresp.OK(w, map[string]string{"url": url})
}
