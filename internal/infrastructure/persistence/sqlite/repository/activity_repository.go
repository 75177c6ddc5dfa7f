package repository

import (
	"context"

	"gorm.io/gorm"

	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	"roadportal/internal/ports"
)

type ActivityRepository struct {
	baseRepository
}

var _ ports.ActivityRepository = (*ActivityRepository)(nil)

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{baseRepository{db: db}}
}

func (r *ActivityRepository) AppendActivity(ctx context.Context, entry ports.ActivityEntry) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	record := model.ActivityLog{
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		CreatedAt:  entry.CreatedAt.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		return errs.Wrap(err, "insert activity log")
	}
	return nil
}

func (r *ActivityRepository) ListActivity(ctx context.Context, entityType string, entityID string) ([]ports.ActivityEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ActivityLog
	if err := db.
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query activity log")
	}

	items := make([]ports.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ActivityEntry{
			ID:         row.ID,
			UserID:     row.UserID,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Details:    row.Details,
			CreatedAt:  row.CreatedAt,
		})
	}
	return items, nil
}
