// internal/app/features/quizzes/proctor.go
package quizzes

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.uber.org/zap"
)

type proctorVerdict struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason"`
}

// review asks the vision model whether a snapshot looks like a violation.
func (h *Handler) review(ctx context.Context, img shared.Upload) (proctorVerdict, error) {
	prompt, err := llm.Render(llm.PromptProctor, nil)
	if err != nil {
		return proctorVerdict{}, err
	}
	raw, err := h.LLM.Complete(ctx, llm.Request{
		System: llm.SystemJSON,
		Prompt: prompt,
		Images: []llm.Image{{MIME: img.ContentType, Data: img.Data}},
		JSON:   true,
	})
	if err != nil {
		return proctorVerdict{}, err
	}
	v, err := llm.DecodeJSON[proctorVerdict](raw)
	if err != nil {
		return proctorVerdict{}, err
	}
	v.Reason = strings.TrimSpace(v.Reason)
	if v.Flagged && v.Reason == "" {
		v.Reason = "possible violation"
	}
	return v, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/attempts/{id}/snapshot   multipart "image"                         |
| Flagged snapshots are stored and appended to the proctoring log. When the   |
| model is unavailable the snapshot is accepted unchecked.                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSnapshot(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	if err := shared.ParseMultipart(w, r); err != nil {
		shared.WriteUploadError(w, err)
		return
	}
	img, err := shared.FormUpload(r, "image", filestore.ImageTypes)
	if err != nil {
		shared.WriteUploadError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.AI())
	defer cancel()

	a, ok := h.ownAttempt(ctx, w, r, u)
	if !ok {
		return
	}
	if a.Submitted() {
		apiresp.Conflict(w, "attempt already submitted")
		return
	}

	v, err := h.review(ctx, img)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			h.Log.Warn("proctor review failed", zap.Error(err), zap.String("attempt_id", a.ID.Hex()))
		}
		apiresp.OK(w, map[string]any{"checked": false, "flagged": false})
		return
	}
	if !v.Flagged {
		apiresp.OK(w, map[string]any{"checked": true, "flagged": false})
		return
	}

	key := filestore.NewKey("proctor", img.Ext)
	url, err := h.Files.Put(ctx, key, img.ContentType, img.Data)
	if err != nil {
		h.Log.Error("store proctor snapshot", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	updated, err := h.Attempts.AppendProctor(ctx, a.ID, models.ProctorEntry{
		ImageURL: url,
		Reason:   v.Reason,
		At:       time.Now().UTC(),
	})
	if !h.writeStoreError(w, r, err) {
		if derr := h.Files.Delete(context.WithoutCancel(ctx), key); derr != nil {
			h.Log.Warn("remove orphaned snapshot", zap.Error(derr), zap.String("key", key))
		}
		return
	}
	h.Log.Info("proctor flag",
		zap.String("attempt_id", a.ID.Hex()),
		zap.String("reason", v.Reason))
	apiresp.OK(w, map[string]any{
		"checked": true,
		"flagged": true,
		"reason":  v.Reason,
		"flags":   len(updated.ProctorLog),
	})
}
