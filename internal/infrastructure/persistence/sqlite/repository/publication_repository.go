package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"roadportal/internal/domain/publication"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	"roadportal/internal/ports"
)

type PublicationRepository struct {
	baseRepository
}

var _ ports.PublicationRepository = (*PublicationRepository)(nil)

func NewPublicationRepository(db *gorm.DB) *PublicationRepository {
	return &PublicationRepository{baseRepository{db: db}}
}

var publicationColumns = listColumns{
	search:   []string{"road_name", "issue_summary", "issue_type"},
	status:   "approval_status",
	severity: "severity_public",
	created:  "last_updated",
	id:       "publication_id",
}

func (r *PublicationRepository) CreatePublication(ctx context.Context, row ports.Publication) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	record := model.Publication{
		PublicationID:      row.PublicationID,
		DamageReportID:     row.DamageReportID,
		RoadName:           row.RoadName,
		IssueSummary:       row.IssueSummary,
		IssueType:          row.IssueType,
		SeverityPublic:     string(row.SeverityPublic),
		StatusPublic:       string(row.StatusPublic),
		ApprovalStatus:     string(row.ApprovalStatus),
		DateReported:       utcPtr(row.DateReported),
		RepairStartDate:    utcPtr(row.RepairStartDate),
		CompletionDate:     utcPtr(row.CompletionDate),
		RepairDurationDays: row.RepairDurationDays,
		IsPublished:        row.IsPublished,
		Archived:           row.Archived,
		ArchiveReason:      row.ArchiveReason,
		CreatedBy:          row.CreatedBy,
		PublishedBy:        row.PublishedBy,
		PublicationDate:    utcPtr(row.PublicationDate),
		ReviewNotes:        row.ReviewNotes,
		LastUpdated:        row.LastUpdated.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return errs.Wrapf(ports.ErrDuplicateKey, "insert publication %s", row.PublicationID)
		}
		return errs.Wrap(err, "insert publication")
	}
	return nil
}

func (r *PublicationRepository) GetPublication(ctx context.Context, publicationID string) (ports.Publication, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Publication{}, err
	}

	var row model.Publication
	if err := db.Where("publication_id = ?", publicationID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Publication{}, ports.ErrPublicationNotFound
		}
		return ports.Publication{}, errs.Wrap(err, "query publication")
	}
	return mapPublication(row), nil
}

func (r *PublicationRepository) ListPublications(ctx context.Context, filter ports.ListFilter) ([]ports.Publication, int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.Model(&model.Publication{}).Scopes(filterScope(filter, publicationColumns)).Count(&total).Error; err != nil {
		return nil, 0, errs.Wrap(err, "count publications")
	}

	var rows []model.Publication
	if err := db.Scopes(filterScope(filter, publicationColumns), orderScope(filter, publicationColumns)).Find(&rows).Error; err != nil {
		return nil, 0, errs.Wrap(err, "query publications")
	}

	items := make([]ports.Publication, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapPublication(row))
	}
	return items, total, nil
}

func (r *PublicationRepository) ListPublished(ctx context.Context) ([]ports.Publication, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Publication
	if err := db.
		Where("is_published = ? AND archived = ?", true, false).
		Order("publication_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query published publications")
	}

	items := make([]ports.Publication, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapPublication(row))
	}
	return items, nil
}

func (r *PublicationRepository) UpdatePublication(
	ctx context.Context,
	publicationID string,
	expect ports.PublicationExpect,
	patch ports.PublicationPatch,
) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	query := db.Model(&model.Publication{}).Where("publication_id = ?", publicationID)
	if expect.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", string(*expect.ApprovalStatus))
	}
	if expect.IsPublished != nil {
		query = query.Where("is_published = ?", *expect.IsPublished)
	}
	if expect.Archived != nil {
		query = query.Where("archived = ?", *expect.Archived)
	}

	result := query.Updates(publicationUpdates(patch))
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "update publication")
	}
	return result.RowsAffected == 1, nil
}

func (r *PublicationRepository) AppendProgress(ctx context.Context, entry ports.PublicationProgress) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	record := model.PublicationProgress{
		PublicationID: entry.PublicationID,
		Status:        entry.Status,
		Notes:         entry.Notes,
		UpdatedBy:     entry.UpdatedBy,
		CreatedAt:     entry.CreatedAt.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		return errs.Wrap(err, "insert publication progress")
	}
	return nil
}

func (r *PublicationRepository) ListProgress(ctx context.Context, publicationIDs []string) ([]ports.PublicationProgress, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if len(publicationIDs) == 0 {
		return []ports.PublicationProgress{}, nil
	}

	var rows []model.PublicationProgress
	if err := db.
		Where("publication_id IN ?", publicationIDs).
		Order("publication_id asc").
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query publication progress")
	}

	items := make([]ports.PublicationProgress, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.PublicationProgress{
			ID:            row.ID,
			PublicationID: row.PublicationID,
			Status:        row.Status,
			Notes:         row.Notes,
			UpdatedBy:     row.UpdatedBy,
			CreatedAt:     row.CreatedAt,
		})
	}
	return items, nil
}

func publicationUpdates(patch ports.PublicationPatch) map[string]any {
	updates := map[string]any{
		"last_updated": patch.LastUpdated.UTC(),
	}
	if patch.RoadName != nil {
		updates["road_name"] = *patch.RoadName
	}
	if patch.IssueSummary != nil {
		updates["issue_summary"] = *patch.IssueSummary
	}
	if patch.IssueType != nil {
		updates["issue_type"] = *patch.IssueType
	}
	if patch.SeverityPublic != nil {
		updates["severity_public"] = string(*patch.SeverityPublic)
	}
	if patch.StatusPublic != nil {
		updates["status_public"] = string(*patch.StatusPublic)
	}
	if patch.ApprovalStatus != nil {
		updates["approval_status"] = string(*patch.ApprovalStatus)
	}
	if patch.RepairStartDate != nil {
		updates["repair_start_date"] = patch.RepairStartDate.UTC()
	}
	if patch.CompletionDate != nil {
		updates["completion_date"] = patch.CompletionDate.UTC()
	}
	if patch.RepairDurationDays != nil {
		updates["repair_duration_days"] = *patch.RepairDurationDays
	} else if patch.ClearDuration {
		updates["repair_duration_days"] = nil
	}
	if patch.IsPublished != nil {
		updates["is_published"] = *patch.IsPublished
	}
	if patch.Archived != nil {
		updates["archived"] = *patch.Archived
	}
	if patch.ArchiveReason != nil {
		updates["archive_reason"] = *patch.ArchiveReason
	}
	if patch.PublishedBy != nil {
		updates["published_by"] = *patch.PublishedBy
	}
	if patch.PublicationDate != nil {
		updates["publication_date"] = patch.PublicationDate.UTC()
	}
	if patch.ReviewNotes != nil {
		updates["review_notes"] = *patch.ReviewNotes
	}
	return updates
}

func mapPublication(row model.Publication) ports.Publication {
	return ports.Publication{
		PublicationID:      row.PublicationID,
		DamageReportID:     row.DamageReportID,
		RoadName:           row.RoadName,
		IssueSummary:       row.IssueSummary,
		IssueType:          row.IssueType,
		SeverityPublic:     report.Severity(row.SeverityPublic),
		StatusPublic:       publication.PublicStatus(row.StatusPublic),
		ApprovalStatus:     publication.ApprovalStatus(row.ApprovalStatus),
		DateReported:       row.DateReported,
		RepairStartDate:    row.RepairStartDate,
		CompletionDate:     row.CompletionDate,
		RepairDurationDays: row.RepairDurationDays,
		IsPublished:        row.IsPublished,
		Archived:           row.Archived,
		ArchiveReason:      row.ArchiveReason,
		CreatedBy:          row.CreatedBy,
		PublishedBy:        row.PublishedBy,
		PublicationDate:    row.PublicationDate,
		ReviewNotes:        row.ReviewNotes,
		LastUpdated:        row.LastUpdated,
	}
}
