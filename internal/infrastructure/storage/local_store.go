package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

// LocalStore writes files under root/<subdir>/<name>. Existing files are never
// overwritten.
type LocalStore struct {
	root string
}

var _ ports.FileStore = (*LocalStore)(nil)

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: filepath.Clean(root)}
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(ctx context.Context, subdir string, name string, content io.Reader) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if content == nil {
		return errors.New("content is required")
	}

	dir, path, err := s.resolve(subdir, name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create upload directory: %v", errs.ErrStorage, err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create upload file: %v", errs.ErrStorage, err)
	}

	if _, err := io.Copy(file, content); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("%w: write upload file: %v", errs.ErrStorage, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("%w: close upload file: %v", errs.ErrStorage, err)
	}
	return nil
}

func (s *LocalStore) Exists(ctx context.Context, subdir string, name string) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}

	_, path, err := s.resolve(subdir, name)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, errs.Wrap(err, "stat upload file")
	}
	return info.Mode().IsRegular(), nil
}

func (s *LocalStore) resolve(subdir string, name string) (string, string, error) {
	if err := checkSegment(subdir, "subdir"); err != nil {
		return "", "", err
	}
	if err := checkSegment(name, "file name"); err != nil {
		return "", "", err
	}
	dir := filepath.Join(s.root, subdir)
	return dir, filepath.Join(dir, name), nil
}

// checkSegment keeps every path component inside the store root.
func checkSegment(value string, field string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%w: %s is required", errs.ErrStorage, field)
	}
	if trimmed != value || trimmed == "." || trimmed == ".." || strings.ContainsAny(trimmed, `/\`) {
		return fmt.Errorf("%w: invalid %s %q", errs.ErrStorage, field, value)
	}
	return nil
}
