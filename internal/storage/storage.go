// Package storage keeps uploaded avatar files.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store saves an object under name and returns where clients can fetch it.
// Locations starting with "/" are relative to the service's own origin.
type Store interface {
	Save(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// LocalStore writes files into a directory served under URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &LocalStore{Dir: dir, URLPrefix: "/uploads"}, nil
}

func (s *LocalStore) Save(ctx context.Context, name, _ string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid object name %q", name)
	}

	path := filepath.Join(s.Dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file failed: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload file failed: %w", err)
	}
	return strings.TrimRight(s.URLPrefix, "/") + "/" + name, nil
}
