package repository

import (
	"context"

	"gorm.io/gorm"

	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	"roadportal/internal/ports"
)

type NotificationRepository struct {
	baseRepository
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{baseRepository{db: db}}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, row ports.Notification) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	record := model.Notification{
		UserID:     row.UserID,
		Type:       row.Type,
		Title:      row.Title,
		Message:    row.Message,
		RelatedID:  row.RelatedID,
		ReadStatus: row.ReadStatus,
		CreatedAt:  row.CreatedAt.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		return errs.Wrap(err, "insert notification")
	}
	return nil
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]ports.Notification, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_status = ?", false)
	}
	query = query.Order("created_at desc").Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query notifications")
	}

	items := make([]ports.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Notification{
			ID:         row.ID,
			UserID:     row.UserID,
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

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Notification{}).
		Where("user_id = ? AND read_status = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count unread notifications")
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID string, notificationID uint64) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read_status", true)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "mark notification read")
	}
	return result.RowsAffected == 1, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	result := db.Model(&model.Notification{}).
		Where("user_id = ? AND read_status = ?", userID, false).
		Update("read_status", true)
	if result.Error != nil {
		return 0, errs.Wrap(result.Error, "mark all notifications read")
	}
	return result.RowsAffected, nil
}
