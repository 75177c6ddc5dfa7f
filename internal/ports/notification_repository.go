package ports

import (
	"context"
	"time"
)

type Notification struct {
	ID         uint64
	UserID     string
	Type       string
	Title      string
	Message    string
	RelatedID  string
	ReadStatus bool
	CreatedAt  time.Time
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, row Notification) error
	// ListNotifications is ordered by created_at desc, then id desc.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID string, notificationID uint64) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
