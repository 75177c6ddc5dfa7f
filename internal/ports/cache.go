package ports

import (
	"context"
	"time"
)

// Cache stores the rendered public feed and publication lists. A zero ttl
// keeps the entry until it is deleted. Entries are strings so the SQLite
// app_kv table can hold them.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
