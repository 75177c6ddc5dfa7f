package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Service struct {
	repo ports.NotificationRepository
}

func NewService(repo ports.NotificationRepository) *Service {
	return &Service{repo: repo}
}

type Item struct {
	ID         uint64    `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	RelatedID  string    `json:"related_id,omitempty"`
	ReadStatus bool      `json:"read_status"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Service) begin(ctx context.Context, actor access.Actor) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("notification repository is required")
	}
	if actor.IsAnonymous() {
		return errs.Wrap(errs.ErrUnauthenticated, "read notifications")
	}
	return nil
}

// List returns the actor's own notifications, newest first.
func (s *Service) List(ctx context.Context, actor access.Actor, unreadOnly bool, limit int) ([]Item, error) {
	if err := s.begin(ctx, actor); err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	rows, err := s.repo.ListNotifications(ctx, actor.UserID, unreadOnly, limit)
	if err != nil {
		return nil, errs.Wrap(err, "list notifications")
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{
			ID:         row.ID,
			Type:       row.Type,
			Title:      row.Title,
			Message:    row.Message,
			RelatedID:  row.RelatedID,
			ReadStatus: row.ReadStatus,
			CreatedAt:  row.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, actor access.Actor) (int64, error) {
	if err := s.begin(ctx, actor); err != nil {
		return 0, err
	}
	count, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, errs.Wrap(err, "count unread notifications")
	}
	return count, nil
}

// MarkRead reports NotFound for ids that do not belong to the actor.
func (s *Service) MarkRead(ctx context.Context, actor access.Actor, notificationID uint64) error {
	if err := s.begin(ctx, actor); err != nil {
		return err
	}
	if notificationID == 0 {
		return errs.Validationf("notification id is required")
	}

	updated, err := s.repo.MarkRead(ctx, actor.UserID, notificationID)
	if err != nil {
		return errs.Wrap(err, "mark notification read")
	}
	if !updated {
		return errs.Wrapf(ports.ErrNotificationNotFound, "notification %d", notificationID)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, actor access.Actor) (int64, error) {
	if err := s.begin(ctx, actor); err != nil {
		return 0, err
	}

	count, err := s.repo.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return 0, errs.Wrap(err, "mark all notifications read")
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.notifications")),
		"notifications marked read",
		slog.String("user_id", actor.UserID),
		slog.Int64("count", count),
	)
	return count, nil
}
