// internal/app/features/shared/llmerr.go
package shared

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"go.uber.org/zap"
)

// WriteLLMError maps a failed model call: 503 when AI is not configured or
// timed out, 502 for provider failures and unusable answers.
func WriteLLMError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		apiresp.Error(w, http.StatusServiceUnavailable, "AI features are not configured")
	case errors.Is(err, context.DeadlineExceeded):
		apiresp.Error(w, http.StatusServiceUnavailable, "AI service timed out, try again")
	default:
		log.Warn("llm call failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Error(w, http.StatusBadGateway, "AI service returned an unusable answer, try again")
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
