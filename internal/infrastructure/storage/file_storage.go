// Package storage keeps attachments and generated documents on the local
// filesystem under object keys of the form {DocType}/{Category}/{displayId}/{filename}.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
)

// ErrInvalidKey is returned for keys that are absolute, empty or climb out of the root
var ErrInvalidKey = errors.New("invalid object key")

// LocalFileStorage implements port.FileStorage on a directory tree
type LocalFileStorage struct {
	root   string
	logger *zap.Logger
}

// NewLocalFileStorage creates a store rooted at baseDir
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		root:   filepath.Clean(baseDir),
		logger: logger,
	}
}

var _ port.FileStorage = (*LocalFileStorage)(nil)

// Put writes to a temporary sibling and renames it into place, so readers
// never observe a partly written approval sheet.
func (s *LocalFileStorage) Put(ctx context.Context, key string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		s.logger.Error("Failed to store object", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("store object: %w", err)
	}

	s.logger.Debug("Object stored", zap.String("key", key), zap.Int("size", len(content)))
	return nil
}

func (s *LocalFileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, port.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return content, nil
}

func (s *LocalFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *LocalFileStorage) Delete(ctx context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// resolve maps a key onto the filesystem, refusing anything outside the root
func (s *LocalFileStorage) resolve(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
