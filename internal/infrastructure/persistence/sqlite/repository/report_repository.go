package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	"roadportal/internal/ports"
)

type ReportRepository struct {
	baseRepository
}

var _ ports.ReportRepository = (*ReportRepository)(nil)

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{baseRepository{db: db}}
}

var reportColumns = listColumns{
	search:   []string{"location", "description", "barangay"},
	status:   "status",
	severity: "severity",
	created:  "reported_at",
	id:       "report_id",
}

func (r *ReportRepository) CreateReport(ctx context.Context, row ports.DamageReport) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	images := row.Images
	if images == nil {
		images = []string{}
	}

	record := model.DamageReport{
		ReportID:          row.ReportID,
		ReporterID:        row.ReporterID,
		Location:          row.Location,
		Barangay:          row.Barangay,
		DamageType:        string(row.DamageType),
		Severity:          string(row.Severity),
		Description:       row.Description,
		EstimatedSize:     row.EstimatedSize,
		TrafficImpact:     row.TrafficImpact,
		ContactNumber:     row.ContactNumber,
		Anonymous:         row.Anonymous,
		Images:            datatypes.JSONSlice[string](images),
		Status:            string(row.Status),
		PublicationStatus: string(row.PublicationStatus),
		LGUNotes:          row.LGUNotes,
		AssignedTo:        row.AssignedTo,
		Latitude:          row.Latitude,
		Longitude:         row.Longitude,
		ReportedAt:        row.ReportedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return errs.Wrapf(ports.ErrDuplicateKey, "insert damage report %s", row.ReportID)
		}
		return errs.Wrap(err, "insert damage report")
	}
	return nil
}

func (r *ReportRepository) GetReport(ctx context.Context, reportID string) (ports.DamageReport, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.DamageReport{}, err
	}

	var row model.DamageReport
	if err := db.Where("report_id = ?", reportID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.DamageReport{}, ports.ErrReportNotFound
		}
		return ports.DamageReport{}, errs.Wrap(err, "query damage report")
	}
	return mapReport(row), nil
}

func (r *ReportRepository) ListReports(ctx context.Context, filter ports.ListFilter) ([]ports.DamageReport, int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.Model(&model.DamageReport{}).Scopes(filterScope(filter, reportColumns)).Count(&total).Error; err != nil {
		return nil, 0, errs.Wrap(err, "count damage reports")
	}

	var rows []model.DamageReport
	if err := db.Scopes(filterScope(filter, reportColumns), orderScope(filter, reportColumns)).Find(&rows).Error; err != nil {
		return nil, 0, errs.Wrap(err, "query damage reports")
	}

	items := make([]ports.DamageReport, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapReport(row))
	}
	return items, total, nil
}

func (r *ReportRepository) UpdateReportStatus(ctx context.Context, reportID string, change ports.ReportStatusChange) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	updates := map[string]any{
		"status":     string(change.To),
		"updated_at": change.At.UTC(),
	}
	if change.Notes != "" {
		updates["lgu_notes"] = change.Notes
	}

	result := db.Model(&model.DamageReport{}).
		Where("report_id = ? AND status = ?", reportID, string(change.From)).
		Updates(updates)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "update damage report status")
	}
	return result.RowsAffected == 1, nil
}

func (r *ReportRepository) UpdatePublicationStatus(
	ctx context.Context,
	reportID string,
	from report.PublicationStatus,
	to report.PublicationStatus,
	notes string,
	at time.Time,
) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	updates := map[string]any{
		"publication_status": string(to),
		"updated_at":         at.UTC(),
	}
	// Earlier officer notes are kept; the new note goes on its own line.
	if notes != "" {
		updates["lgu_notes"] = gorm.Expr("CASE WHEN lgu_notes = '' THEN ? ELSE lgu_notes || ? END", notes, "\n"+notes)
	}

	result := db.Model(&model.DamageReport{}).
		Where("report_id = ? AND publication_status = ?", reportID, string(from)).
		Updates(updates)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "update report publication status")
	}
	return result.RowsAffected == 1, nil
}

func (r *ReportRepository) AssignReport(ctx context.Context, reportID string, officerID string, at time.Time) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.DamageReport{}).
		Where("report_id = ?", reportID).
		Updates(map[string]any{
			"assigned_to": officerID,
			"updated_at":  at.UTC(),
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "assign damage report")
	}
	if result.RowsAffected == 0 {
		return ports.ErrReportNotFound
	}
	return nil
}

func mapReport(row model.DamageReport) ports.DamageReport {
	images := []string(row.Images)
	if images == nil {
		images = []string{}
	}
	return ports.DamageReport{
		ReportID:          row.ReportID,
		ReporterID:        row.ReporterID,
		Location:          row.Location,
		Barangay:          row.Barangay,
		DamageType:        report.DamageType(row.DamageType),
		Severity:          report.Severity(row.Severity),
		Description:       row.Description,
		EstimatedSize:     row.EstimatedSize,
		TrafficImpact:     row.TrafficImpact,
		ContactNumber:     row.ContactNumber,
		Anonymous:         row.Anonymous,
		Images:            images,
		Status:            report.Status(row.Status),
		PublicationStatus: report.PublicationStatus(row.PublicationStatus),
		LGUNotes:          row.LGUNotes,
		AssignedTo:        row.AssignedTo,
		Latitude:          row.Latitude,
		Longitude:         row.Longitude,
		ReportedAt:        row.ReportedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
