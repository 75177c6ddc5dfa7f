package ports

import "context"

// SequenceRepository hands out per-year counters. NextValue must run inside
// the transaction that consumes the value.
type SequenceRepository interface {
	NextValue(ctx context.Context, name string, year int) (int64, error)
}
