package ports

import (
	"context"
	"time"
)

type ActivityEntry struct {
	ID         uint64
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Details    string
	CreatedAt  time.Time
}

type ActivityRepository interface {
	AppendActivity(ctx context.Context, entry ActivityEntry) error
	ListActivity(ctx context.Context, entityType string, entityID string) ([]ActivityEntry, error)
}
