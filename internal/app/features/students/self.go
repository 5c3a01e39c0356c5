// internal/app/features/students/self.go
package students

import (
	"context"
	"net/http"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
	"github.com/dalemusser/placementhub/internal/app/system/pdftext"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/me/profile                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMyProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Students.GetByID(ctx, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, st)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/me/profile                                                          |
| Students may edit contact and academic fields, not identity fields.          |
*─────────────────────────────────────────────────────────────────────────────*/

type profileRequest struct {
	Phone  *string  `json:"phone"`
	Skills []string `json:"skills"`
	CGPA   *float64 `json:"cgpa"`
	Year   *int     `json:"year"`
	Branch *string  `json:"branch"`
}

func (h *Handler) ServeUpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req profileRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	if msg := validateAcademics(req.Year, req.CGPA); msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}
	if req.Branch != nil && *req.Branch == "" {
		apiresp.BadRequest(w, "branch cannot be empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Students.Update(ctx, u.ObjectID(), studentstore.Patch{
		Phone:  req.Phone,
		Skills: req.Skills,
		CGPA:   req.CGPA,
		Year:   req.Year,
		Branch: req.Branch,
	})
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, st)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/me/profile/image   (multipart "image": png/jpeg/webp ≤ 5 MB)       |
| POST /api/me/resume          (multipart "resume": pdf ≤ 5 MB)                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "image", "profiles", filestore.ImageTypes,
		func(ctx context.Context, id primitive.ObjectID, url, key string, _ shared.Upload) (string, error) {
			return h.Students.SetProfileImage(ctx, id, url, key)
		})
}

// ServeUploadResume also keeps the resume's extracted text for ATS scans.
// A PDF with no extractable text is still accepted.
func (h *Handler) ServeUploadResume(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "resume", "resumes", filestore.PDFTypes,
		func(ctx context.Context, id primitive.ObjectID, url, key string, up shared.Upload) (string, error) {
			old, err := h.Students.SetResume(ctx, id, url, key)
			if err != nil {
				return "", err
			}
			text, err := pdftext.Extract(up.Data)
			if err != nil {
				h.Log.Warn("resume text extraction failed", zap.Error(err), zap.String("student_id", id.Hex()))
			}
			if err := h.Students.SetResumeText(ctx, id, text); err != nil {
				h.Log.Warn("save resume text failed", zap.Error(err), zap.String("student_id", id.Hex()))
			}
			return old, nil
		})
}

type setFileFunc func(ctx context.Context, id primitive.ObjectID, url, key string, up shared.Upload) (string, error)

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, field, folder string, allowed map[string]string, set setFileFunc) {
	u, _ := auth.CurrentUser(r)
	if h.Files == nil {
		apiresp.Error(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}
	if err := shared.ParseMultipart(w, r); err != nil {
		shared.WriteUploadError(w, err)
		return
	}
	up, err := shared.FormUpload(r, field, allowed)
	if err != nil {
		shared.WriteUploadError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	key := filestore.NewKey(folder, up.Ext)
	url, err := h.Files.Put(ctx, key, up.ContentType, up.Data)
	if err != nil {
		h.Log.Error("store upload failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}

	oldKey, err := set(ctx, u.ObjectID(), url, key, up)
	if err != nil {
		if derr := h.Files.Delete(ctx, key); derr != nil {
			h.Log.Warn("cleanup upload failed", zap.Error(derr), zap.String("key", key))
		}
		h.writeStoreError(w, r, err)
		return
	}
	if oldKey != "" && oldKey != key {
		if err := h.Files.Delete(ctx, oldKey); err != nil {
			h.Log.Warn("delete replaced file failed", zap.Error(err), zap.String("key", oldKey))
		}
	}

	apiresp.OK(w, map[string]string{"url": url})
}
