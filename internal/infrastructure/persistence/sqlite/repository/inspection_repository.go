package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"roadportal/internal/domain/inspection"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	"roadportal/internal/ports"
)

type InspectionRepository struct {
	baseRepository
}

var _ ports.InspectionRepository = (*InspectionRepository)(nil)

func NewInspectionRepository(db *gorm.DB) *InspectionRepository {
	return &InspectionRepository{baseRepository{db: db}}
}

var inspectionColumns = listColumns{
	search:   []string{"location", "findings", "barangay"},
	status:   "status",
	severity: "severity",
	created:  "created_at",
	id:       "inspection_id",
}

func (r *InspectionRepository) CreateInspection(ctx context.Context, row ports.Inspection) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	record := model.Inspection{
		InspectionID:      row.InspectionID,
		DamageReportID:    row.DamageReportID,
		Location:          row.Location,
		Barangay:          row.Barangay,
		InspectorID:       row.InspectorID,
		Findings:          row.Findings,
		Severity:          string(row.Severity),
		RecommendedAction: row.RecommendedAction,
		Status:            string(row.Status),
		ReviewNotes:       row.ReviewNotes,
		ReviewedBy:        row.ReviewedBy,
		ScheduledDate:     utcPtr(row.ScheduledDate),
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return errs.Wrapf(ports.ErrDuplicateKey, "insert inspection %s", row.InspectionID)
		}
		return errs.Wrap(err, "insert inspection")
	}
	return nil
}

func (r *InspectionRepository) GetInspection(ctx context.Context, inspectionID string) (ports.Inspection, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Inspection{}, err
	}

	var row model.Inspection
	if err := db.Where("inspection_id = ?", inspectionID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Inspection{}, ports.ErrInspectionNotFound
		}
		return ports.Inspection{}, errs.Wrap(err, "query inspection")
	}
	return mapInspection(row), nil
}

func (r *InspectionRepository) ListInspections(ctx context.Context, filter ports.ListFilter) ([]ports.Inspection, int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.Model(&model.Inspection{}).Scopes(filterScope(filter, inspectionColumns)).Count(&total).Error; err != nil {
		return nil, 0, errs.Wrap(err, "count inspections")
	}

	var rows []model.Inspection
	if err := db.Scopes(filterScope(filter, inspectionColumns), orderScope(filter, inspectionColumns)).Find(&rows).Error; err != nil {
		return nil, 0, errs.Wrap(err, "query inspections")
	}

	items := make([]ports.Inspection, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapInspection(row))
	}
	return items, total, nil
}

func (r *InspectionRepository) UpdateInspectionStatus(ctx context.Context, inspectionID string, review ports.InspectionReview) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.Inspection{}).
		Where("inspection_id = ? AND status = ?", inspectionID, string(review.From)).
		Updates(map[string]any{
			"status":       string(review.To),
			"review_notes": review.Notes,
			"reviewed_by":  review.ReviewedBy,
			"updated_at":   review.At.UTC(),
		})
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "update inspection status")
	}
	return result.RowsAffected == 1, nil
}

func (r *InspectionRepository) CreateRepairTask(ctx context.Context, row ports.RepairTask) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	record := model.RepairTask{
		TaskID:         row.TaskID,
		InspectionID:   row.InspectionID,
		DamageReportID: row.DamageReportID,
		Location:       row.Location,
		Priority:       row.Priority,
		Status:         row.Status,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return errs.Wrapf(ports.ErrDuplicateKey, "insert repair task %s", row.TaskID)
		}
		return errs.Wrap(err, "insert repair task")
	}
	return nil
}

func (r *InspectionRepository) ListRepairTasks(ctx context.Context, inspectionID string) ([]ports.RepairTask, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.RepairTask
	if err := db.Where("inspection_id = ?", inspectionID).Order("task_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query repair tasks")
	}

	items := make([]ports.RepairTask, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.RepairTask{
			TaskID:         row.TaskID,
			InspectionID:   row.InspectionID,
			DamageReportID: row.DamageReportID,
			Location:       row.Location,
			Priority:       row.Priority,
			Status:         row.Status,
			CreatedBy:      row.CreatedBy,
			CreatedAt:      row.CreatedAt,
		})
	}
	return items, nil
}

func mapInspection(row model.Inspection) ports.Inspection {
	return ports.Inspection{
		InspectionID:      row.InspectionID,
		DamageReportID:    row.DamageReportID,
		Location:          row.Location,
		Barangay:          row.Barangay,
		InspectorID:       row.InspectorID,
		Findings:          row.Findings,
		Severity:          report.Severity(row.Severity),
		RecommendedAction: row.RecommendedAction,
		Status:            inspection.Status(row.Status),
		ReviewNotes:       row.ReviewNotes,
		ReviewedBy:        row.ReviewedBy,
		ScheduledDate:     row.ScheduledDate,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
