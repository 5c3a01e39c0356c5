// Package shared holds small request helpers used by several /api features.
package shared

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectIDParam parses the chi URL parameter name as an ObjectID.
func ObjectIDParam(r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// ParseObjectID parses an optional hex id from a form or query value.
// An empty string yields (nil, true).
func ParseObjectID(s string) (*primitive.ObjectID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// ParseBool reads "true"/"false"/"1"/"0"; anything else is nil.
func ParseBool(s string) *bool {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		v = true
	case "false", "0", "no":
		v = false
	default:
		return nil
	}
	return &v
}
