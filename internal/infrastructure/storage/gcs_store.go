package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

// GCSStore writes uploads as objects <prefix>/<subdir>/<name> in one bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

var _ ports.FileStore = (*GCSStore)(nil)

type GCSConfig struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
}

func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if credentials := strings.TrimSpace(cfg.CredentialsFile); credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "create gcs client")
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
	}, nil
}

func (s *GCSStore) Save(ctx context.Context, subdir string, name string, content io.Reader) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if content == nil {
		return errors.New("content is required")
	}

	object, err := s.objectName(subdir, name)
	if err != nil {
		return err
	}

	// DoesNotExist keeps the never-overwrite rule of the local store.
	writer := s.client.Bucket(s.bucket).Object(object).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = mime.TypeByExtension(filepath.Ext(name))

	if _, err := io.Copy(writer, content); err != nil {
		_ = writer.Close()
		return fmt.Errorf("%w: write gcs object: %v", errs.ErrStorage, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%w: close gcs object: %v", errs.ErrStorage, err)
	}
	return nil
}

func (s *GCSStore) Exists(ctx context.Context, subdir string, name string) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}

	object, err := s.objectName(subdir, name)
	if err != nil {
		return false, err
	}

	if _, err := s.client.Bucket(s.bucket).Object(object).Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return false, nil
		}
		return false, errs.Wrap(err, "read gcs object attrs")
	}
	return true, nil
}

func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *GCSStore) objectName(subdir string, name string) (string, error) {
	if err := checkSegment(subdir, "subdir"); err != nil {
		return "", err
	}
	if err := checkSegment(name, "file name"); err != nil {
		return "", err
	}
	if s.prefix == "" {
		return path.Join(subdir, name), nil
	}
	return path.Join(s.prefix, subdir, name), nil
}
