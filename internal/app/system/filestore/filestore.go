// Package filestore saves uploaded images and resumes to local disk, S3 or
// Cloudinary and hands back a public URL.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend names accepted by New.
const (
	TypeLocal      = "local"
	TypeS3         = "s3"
	TypeCloudinary = "cloudinary"
)

// ErrInvalidKey is returned for keys that escape the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// Store persists objects by key.
type Store interface {
	// Put stores data under key and returns the URL clients should use.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Config selects and configures a backend.
type Config struct {
	Type string

	LocalPath string
	LocalURL  string

	S3Region    string
	S3Bucket    string
	S3Prefix    string
	S3PublicURL string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
}

// New builds the backend named by cfg.Type.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", TypeLocal:
		return NewLocal(cfg.LocalPath, cfg.LocalURL)
	case TypeS3:
		return NewS3(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix, cfg.S3PublicURL)
	case TypeCloudinary:
		return NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// NewKey builds a unique key of the form folder/YYYY/MM/uuid.ext.
func NewKey(folder, ext string) string {
	now := time.Now().UTC()
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return path.Join(strings.Trim(folder, "/"), fmt.Sprintf("%04d/%02d", now.Year(), now.Month()), name)
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, `\`, "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return k, nil
}

// Upload kinds accepted by DetectType.
var (
	ImageTypes = map[string]string{"image/png": "png", "image/jpeg": "jpg", "image/webp": "webp"}
	PDFTypes   = map[string]string{"application/pdf": "pdf"}
)

// DetectType sniffs data and returns its content type and extension when it
// is one of allowed.
func DetectType(data []byte, allowed map[string]string) (contentType, ext string, ok bool) {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ext, ok = allowed[ct]
	return ct, ext, ok
}
