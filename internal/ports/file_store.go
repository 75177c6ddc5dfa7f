package ports

import (
	"context"
	"io"
)

// FileStore persists uploaded files under <subdir>/<name>.
type FileStore interface {
	Save(ctx context.Context, subdir string, name string, content io.Reader) error
	Exists(ctx context.Context, subdir string, name string) (bool, error)
}
