// Package storage persists uploaded media on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is where fiber serves UploadDir.
const URLPrefix = "/uploads"

// ErrInvalidKey is returned for keys that would escape the upload directory.
var ErrInvalidKey = errors.New("invalid storage key")

// LocalStore writes objects below a root directory and addresses them by
// slash-separated keys.
type LocalStore struct {
	root string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the directory served at URLPrefix.
func (s *LocalStore) Root() string { return s.root }

// NewKey returns a fresh directory-style key prefix for one upload.
func NewKey() string {
	return uuid.NewString()
}

// Put writes data at key and returns its public URL.
func (s *LocalStore) Put(_ context.Context, key string, data []byte) (string, error) {
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return "", err
	}
	return URL(key), nil
}

// Delete removes key; missing objects are ignored.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// URL maps a key to the path it is served under.
func URL(key string) string {
	return URLPrefix + "/" + strings.TrimPrefix(key, "/")
}

// KeyFromURL reverses URL. ok is false for addresses this store does not serve.
func KeyFromURL(url string) (key string, ok bool) {
	key, ok = strings.CutPrefix(url, URLPrefix+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
