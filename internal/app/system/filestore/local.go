package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores files under a directory served at a URL prefix.
type Local struct {
	root      string
	urlPrefix string
}

// NewLocal creates root if needed.
func NewLocal(root, urlPrefix string) (*Local, error) {
	if root == "" {
		root = "./uploads"
	}
	if urlPrefix == "" {
		urlPrefix = "/files"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root returns the directory files are written to.
func (l *Local) Root() string { return l.root }

// URLPrefix returns the path prefix files are served under.
func (l *Local) URLPrefix() string { return l.urlPrefix }

func (l *Local) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	full := filepath.Join(l.root, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return l.urlPrefix + "/" + k, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(l.root, filepath.FromSlash(k)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
