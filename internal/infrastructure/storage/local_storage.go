package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/unimerch/backend/internal/domain/media"
	"github.com/unimerch/backend/internal/domain/shared"
)

// Ensure LocalObjectStorage implements media.ObjectStorage
var _ media.ObjectStorage = (*LocalObjectStorage)(nil)

// LocalObjectStorage keeps uploads on a filesystem. Production uses a
// directory on disk; tests pass an in-memory afero filesystem.
type LocalObjectStorage struct {
	fs      afero.Fs
	baseURL string
}

// NewLocalObjectStorage stores objects under dir on the OS filesystem
func NewLocalObjectStorage(dir, publicBaseURL string) (*LocalObjectStorage, error) {
	if dir == "" {
		return nil, errors.New("local storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return NewLocalObjectStorageFs(afero.NewBasePathFs(afero.NewOsFs(), dir), publicBaseURL), nil
}

// NewLocalObjectStorageFs stores objects on fs
func NewLocalObjectStorageFs(fs afero.Fs, publicBaseURL string) *LocalObjectStorage {
	return &LocalObjectStorage{fs: fs, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Upload writes body to key, creating parent directories
func (s *LocalObjectStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	if err := afero.WriteReader(s.fs, name, body); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

// Delete removes key. A missing object is not an error.
func (s *LocalObjectStorage) Delete(ctx context.Context, key string) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Open streams key from the filesystem
func (s *LocalObjectStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	name, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, shared.NotFound("File")
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// URL returns the public download route for key; it never expires
func (s *LocalObjectStorage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if _, err := cleanKey(key); err != nil {
		return "", err
	}
	return s.baseURL + "/api/upload/images/" + path.Base(key), nil
}

// cleanKey rejects keys that would escape the storage root
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", shared.NewDomainError("INVALID_KEY", "Invalid storage key")
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}
