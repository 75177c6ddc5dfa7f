package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	"roadportal/internal/ports"
)

type SequenceRepository struct {
	baseRepository
}

var _ ports.SequenceRepository = (*SequenceRepository)(nil)

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{baseRepository{db: db}}
}

// NextValue increments (name, year) and returns the new value, starting at 1.
func (r *SequenceRepository) NextValue(ctx context.Context, name string, year int) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return 0, errors.New("sequence name is required")
	}

	row := model.IDSequence{Name: trimmed, Year: year, Value: 1}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value": gorm.Expr("id_sequences.value + 1"),
		}),
	}).Create(&row).Error; err != nil {
		return 0, errs.Wrap(err, "upsert id sequence")
	}

	var current model.IDSequence
	if err := db.Where("name = ? AND year = ?", trimmed, year).Take(&current).Error; err != nil {
		return 0, errs.Wrap(err, "query id sequence")
	}
	return current.Value, nil
}
