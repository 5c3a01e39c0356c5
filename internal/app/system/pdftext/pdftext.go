// Package pdftext pulls plain text out of uploaded PDF resumes.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxChars caps extracted text so prompts stay a sane size.
const MaxChars = 20000

var (
	// ErrNotPDF is returned when the data does not start with a PDF header.
	ErrNotPDF = errors.New("not a PDF document")
	// ErrNoText is returned for PDFs with no extractable text (scans, images).
	ErrNoText = errors.New("no text found in PDF")
)

var spaceRun = regexp.MustCompile(`[ \t\f\v]+`)
var blankLines = regexp.MustCompile(`\n{3,}`)

// IsPDF reports whether data looks like a PDF file.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-"))
}

// Extract returns the document's text with whitespace collapsed, truncated
// to MaxChars. The parser panics on some malformed files; that is reported
// as an error.
func Extract(data []byte) (text string, err error) {
	if !IsPDF(data) {
		return "", ErrNotPDF
	}
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", p)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	text = Clean(string(raw))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Clean collapses whitespace runs and trims to MaxChars runes.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > MaxChars {
		s = string(r[:MaxChars])
	}
	return s
}
