// internal/app/features/shared/upload.go
package shared

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
)

// MaxUploadBytes caps profile images, resumes, logos and snapshots.
const MaxUploadBytes = 5 << 20

var (
	ErrNoFile      = errors.New("no file uploaded")
	ErrFileTooBig  = fmt.Errorf("file exceeds %d MB", MaxUploadBytes>>20)
	ErrUnsupported = errors.New("unsupported file type")
)

// Upload is a sniffed multipart file.
type Upload struct {
	Data        []byte
	ContentType string
	Ext         string
	Filename    string
}

// ParseMultipart bounds the request body and parses the form. Call it once
// before FormUpload or r.FormValue.
func ParseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return ErrFileTooBig
		}
		return fmt.Errorf("invalid multipart form: %w", err)
	}
	return nil
}

// FormUpload reads the file in field and checks its sniffed type against
// allowed (see filestore.ImageTypes, filestore.PDFTypes).
func FormUpload(r *http.Request, field string, allowed map[string]string) (Upload, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return Upload{}, ErrNoFile
		}
		return Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return Upload{}, err
	}
	if len(data) == 0 {
		return Upload{}, ErrNoFile
	}
	if len(data) > MaxUploadBytes {
		return Upload{}, ErrFileTooBig
	}
	ct, ext, ok := filestore.DetectType(data, allowed)
	if !ok {
		return Upload{}, ErrUnsupported
	}
	return Upload{Data: data, ContentType: ct, Ext: ext, Filename: hdr.Filename}, nil
}

// WriteUploadError maps upload errors to 400/413/415.
func WriteUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrFileTooBig):
		apiresp.Error(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrUnsupported):
		apiresp.Error(w, http.StatusUnsupportedMediaType, err.Error())
	default:
		apiresp.BadRequest(w, err.Error())
	}
}
