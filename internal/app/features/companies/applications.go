// internal/app/features/companies/applications.go
package companies

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/mailer"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/app/system/txn"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/companies/{id}/apply                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeApply(w http.ResponseWriter, r *http.Request) {
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
	st, err := h.Students.GetByID(ctx, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return
	}
	if reasons := c.IneligibleReasons(st, time.Now().UTC()); len(reasons) > 0 {
		apiresp.JSON(w, http.StatusForbidden, map[string]any{
			"error":   "not eligible: " + strings.Join(reasons, "; "),
			"reasons": reasons,
		})
		return
	}

	app, err := h.Applications.Create(ctx, c.ID, st.ID)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.Log.Info("application submitted",
		zap.String("company_id", c.ID.Hex()),
		zap.String("student_id", st.ID.Hex()))
	apiresp.Created(w, app)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/me/applications                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

type myApplication struct {
	models.Application
	CompanyName string  `json:"company_name"`
	Role        string  `json:"role"`
	PackageLPA  float64 `json:"package_lpa"`
	LogoURL     string  `json:"logo_url,omitempty"`
}

func (h *Handler) ServeMyApplications(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	apps, err := h.Applications.ListByStudent(ctx, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return
	}
	ids := make([]primitive.ObjectID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.CompanyID)
	}
	byID, err := h.Companies.GetByIDs(ctx, ids)
	if !h.writeStoreError(w, r, err) {
		return
	}

	out := make([]myApplication, 0, len(apps))
	for _, a := range apps {
		c := byID[a.CompanyID]
		out = append(out, myApplication{
			Application: a,
			CompanyName: c.Name,
			Role:        c.Role,
			PackageLPA:  c.PackageLPA,
			LogoURL:     c.LogoURL,
		})
	}
	apiresp.OK(w, map[string]any{"items": out})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/companies/{id}/applications?status=                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type applicantView struct {
	models.Application
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	RollNo string  `json:"roll_no"`
	Branch string  `json:"branch"`
	CGPA   float64 `json:"cgpa"`
	Resume string  `json:"resume_url,omitempty"`
}

func (h *Handler) ServeCompanyApplications(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid company id")
		return
	}
	status := query.Get(r, "status")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Companies.GetByID(ctx, id); !h.writeStoreError(w, r, err) {
		return
	}
	apps, err := h.Applications.ListByCompany(ctx, id, status)
	if !h.writeStoreError(w, r, err) {
		return
	}
	ids := make([]primitive.ObjectID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.StudentID)
	}
	byID, err := h.Students.GetByIDs(ctx, ids)
	if !h.writeStoreError(w, r, err) {
		return
	}

	out := make([]applicantView, 0, len(apps))
	for _, a := range apps {
		st := byID[a.StudentID]
		out = append(out, applicantView{
			Application: a,
			Name:        st.Name,
			Email:       st.Email,
			RollNo:      st.RollNo,
			Branch:      st.Branch,
			CGPA:        st.CGPA,
			Resume:      st.ResumeURL,
		})
	}
	apiresp.OK(w, map[string]any{"items": out})
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/applications/{id}   {status, note}                                  |
| "selected" marks the student placed at the company; moving an application   |
| away from "selected" clears that placement.                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *Handler) ServeUpdateApplication(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid application id")
		return
	}

	var req statusRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.Note = strings.TrimSpace(req.Note)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		app  models.Application
		prev string
	)
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		app, prev, err = h.Applications.UpdateStatus(ctx, id, req.Status, req.Note)
		if err != nil {
			return err
		}
		switch {
		case app.Status == models.AppSelected:
			return h.Students.SetPlaced(ctx, app.StudentID, app.CompanyID)
		case prev == models.AppSelected:
			return h.Students.ClearPlacedIf(ctx, app.StudentID, app.CompanyID)
		}
		return nil
	})
	if !h.writeStoreError(w, r, err) {
		return
	}

	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventApplicationUpdated, &app.StudentID, map[string]string{
		"application_id": app.ID.Hex(),
		"from":           prev,
		"to":             app.Status,
	})
	if prev != app.Status {
		h.notifyStatus(ctx, app)
	}
	apiresp.OK(w, app)
}

// notifyStatus emails the student about a status change. Failures are logged.
func (h *Handler) notifyStatus(ctx context.Context, app models.Application) {
	if h.Mailer == nil {
		return
	}
	st, err := h.Students.GetByID(ctx, app.StudentID)
	if err != nil {
		h.Log.Warn("status email: load student failed", zap.Error(err))
		return
	}
	c, err := h.Companies.GetByID(ctx, app.CompanyID)
	if err != nil {
		h.Log.Warn("status email: load company failed", zap.Error(err))
		return
	}
	link := ""
	if h.BaseURL != "" {
		link = h.BaseURL + "/applications"
	}
	msg := mailer.BuildApplicationStatusEmail(mailer.StatusEmailData{
		SiteName: h.SiteName,
		Name:     st.Name,
		Company:  c.Name,
		Role:     c.Role,
		Status:   app.Status,
		Link:     link,
	})
	msg.To = st.Email
	if err := h.Mailer.Send(ctx, msg); err != nil {
		h.Log.Warn("send status email failed", zap.Error(err), zap.String("student_id", st.ID.Hex()))
	}
}
