package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"roadportal/internal/domain/gis"
	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	"roadportal/internal/ports"
)

type GISRepository struct {
	baseRepository
}

var _ ports.GISRepository = (*GISRepository)(nil)

func NewGISRepository(db *gorm.DB) *GISRepository {
	return &GISRepository{baseRepository{db: db}}
}

func (r *GISRepository) CreateMarker(ctx context.Context, row ports.GISMarker) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	record := model.GISMarker{
		MarkerID:       row.MarkerID,
		MarkerType:     string(row.MarkerType),
		Title:          row.Title,
		Description:    row.Description,
		Latitude:       row.Latitude,
		Longitude:      row.Longitude,
		Severity:       row.Severity,
		Status:         string(row.Status),
		DamageReportID: row.DamageReportID,
		Image:          row.Image,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return errs.Wrapf(ports.ErrDuplicateKey, "insert gis marker %s", row.MarkerID)
		}
		return errs.Wrap(err, "insert gis marker")
	}
	return nil
}

func (r *GISRepository) GetMarkerByReport(ctx context.Context, reportID string) (ports.GISMarker, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.GISMarker{}, err
	}

	var row model.GISMarker
	if err := db.Where("damage_report_id = ?", reportID).Order("marker_id asc").Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.GISMarker{}, ports.ErrMarkerNotFound
		}
		return ports.GISMarker{}, errs.Wrap(err, "query gis marker by report")
	}
	return mapMarker(row), nil
}

func (r *GISRepository) UpdateReportMarkers(ctx context.Context, reportID string, patch ports.MarkerPatch) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	updates := map[string]any{
		"updated_at": patch.At.UTC(),
	}
	if patch.MarkerType != nil {
		updates["marker_type"] = string(*patch.MarkerType)
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}

	result := db.Model(&model.GISMarker{}).Where("damage_report_id = ?", reportID).Updates(updates)
	if result.Error != nil {
		return 0, errs.Wrap(result.Error, "update report gis markers")
	}
	return result.RowsAffected, nil
}

func (r *GISRepository) ListActiveMarkers(ctx context.Context) ([]ports.GISMarker, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.GISMarker
	if err := db.Where("status = ?", string(gis.MarkerActive)).Order("marker_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query active gis markers")
	}

	items := make([]ports.GISMarker, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapMarker(row))
	}
	return items, nil
}

func (r *GISRepository) CreateZone(ctx context.Context, row ports.ConstructionZone) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	record := model.ConstructionZone{
		ZoneID:      row.ZoneID,
		Name:        row.Name,
		Description: row.Description,
		Geometry:    row.Geometry,
		Status:      string(row.Status),
		StartDate:   utcPtr(row.StartDate),
		EndDate:     utcPtr(row.EndDate),
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return errs.Wrapf(ports.ErrDuplicateKey, "insert construction zone %s", row.ZoneID)
		}
		return errs.Wrap(err, "insert construction zone")
	}
	return nil
}

func (r *GISRepository) ListActiveZones(ctx context.Context) ([]ports.ConstructionZone, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ConstructionZone
	if err := db.Where("status = ?", string(gis.ZoneActive)).Order("zone_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query active construction zones")
	}

	items := make([]ports.ConstructionZone, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ConstructionZone{
			ZoneID:      row.ZoneID,
			Name:        row.Name,
			Description: row.Description,
			Geometry:    row.Geometry,
			Status:      gis.ZoneStatus(row.Status),
			StartDate:   row.StartDate,
			EndDate:     row.EndDate,
			CreatedBy:   row.CreatedBy,
			CreatedAt:   row.CreatedAt,
		})
	}
	return items, nil
}

func mapMarker(row model.GISMarker) ports.GISMarker {
	return ports.GISMarker{
		MarkerID:       row.MarkerID,
		MarkerType:     gis.MarkerType(row.MarkerType),
		Title:          row.Title,
		Description:    row.Description,
		Latitude:       row.Latitude,
		Longitude:      row.Longitude,
		Severity:       row.Severity,
		Status:         gis.MarkerStatus(row.Status),
		DamageReportID: row.DamageReportID,
		Image:          row.Image,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
