package listing

import (
	"context"
	"errors"
	"time"

	"roadportal/internal/domain/access"
	"roadportal/internal/domain/inspection"
	domainlisting "roadportal/internal/domain/listing"
	"roadportal/internal/domain/publication"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

type InspectionView struct {
	InspectionID      string     `json:"inspection_id"`
	DamageReportID    *string    `json:"damage_report_id,omitempty"`
	Location          string     `json:"location"`
	Barangay          string     `json:"barangay,omitempty"`
	InspectorID       string     `json:"inspector_id"`
	Findings          string     `json:"findings"`
	Severity          string     `json:"severity"`
	RecommendedAction string     `json:"recommended_action,omitempty"`
	Status            string     `json:"status"`
	ReviewNotes       string     `json:"review_notes,omitempty"`
	ReviewedBy        *string    `json:"reviewed_by,omitempty"`
	ScheduledDate     *time.Time `json:"scheduled_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type PublicationView struct {
	PublicationID      string     `json:"publication_id"`
	DamageReportID     *string    `json:"damage_report_id,omitempty"`
	RoadName           string     `json:"road_name"`
	IssueSummary       string     `json:"issue_summary"`
	IssueType          string     `json:"issue_type,omitempty"`
	SeverityPublic     string     `json:"severity_public"`
	StatusPublic       string     `json:"status_public"`
	ApprovalStatus     string     `json:"approval_status"`
	IsPublished        bool       `json:"is_published"`
	Archived           bool       `json:"archived"`
	ArchiveReason      string     `json:"archive_reason,omitempty"`
	RepairStartDate    *time.Time `json:"repair_start_date,omitempty"`
	CompletionDate     *time.Time `json:"completion_date,omitempty"`
	RepairDurationDays *int       `json:"repair_duration_days,omitempty"`
	ReviewNotes        string     `json:"review_notes,omitempty"`
	CreatedBy          string     `json:"created_by"`
	LastUpdated        time.Time  `json:"last_updated"`
}

func (s *Service) ListInspections(ctx context.Context, actor access.Actor, raw domainlisting.RawQuery) (Page[InspectionView], error) {
	logCtx, err := s.begin(ctx, actor, "list inspections")
	if err != nil {
		return Page[InspectionView]{}, err
	}
	if s.inspections == nil {
		return Page[InspectionView]{}, errors.New("inspection repository is required")
	}

	query, err := domainlisting.Normalize(raw, []string{
		string(inspection.StatusPending),
		string(inspection.StatusApproved),
		string(inspection.StatusRejected),
	})
	if err != nil {
		return Page[InspectionView]{}, err
	}
	rows, total, err := s.inspections.ListInspections(logCtx, toFilter(query))
	if err != nil {
		return Page[InspectionView]{}, errs.Wrap(err, "list inspections")
	}

	items := make([]InspectionView, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.inspectionView(row))
	}
	return Page[InspectionView]{Items: items, Total: total, Page: query.Page, PerPage: query.PerPage}, nil
}

// ListPublications filters on approval status.
func (s *Service) ListPublications(ctx context.Context, actor access.Actor, raw domainlisting.RawQuery) (Page[PublicationView], error) {
	logCtx, err := s.begin(ctx, actor, "list publications")
	if err != nil {
		return Page[PublicationView]{}, err
	}
	if s.publications == nil {
		return Page[PublicationView]{}, errors.New("publication repository is required")
	}

	query, err := domainlisting.Normalize(raw, []string{
		string(publication.ApprovalPending),
		string(publication.ApprovalApproved),
		string(publication.ApprovalRejected),
		string(publication.ApprovalNeedsRevision),
	})
	if err != nil {
		return Page[PublicationView]{}, err
	}
	rows, total, err := s.publications.ListPublications(logCtx, toFilter(query))
	if err != nil {
		return Page[PublicationView]{}, errs.Wrap(err, "list publications")
	}

	items := make([]PublicationView, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.publicationView(row))
	}
	return Page[PublicationView]{Items: items, Total: total, Page: query.Page, PerPage: query.PerPage}, nil
}

func (s *Service) inspectionView(row ports.Inspection) InspectionView {
	return InspectionView{
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
		ScheduledDate:     s.localPtr(row.ScheduledDate),
		CreatedAt:         s.local(row.CreatedAt),
	}
}

func (s *Service) publicationView(row ports.Publication) PublicationView {
	return PublicationView{
		PublicationID:      row.PublicationID,
		DamageReportID:     row.DamageReportID,
		RoadName:           row.RoadName,
		IssueSummary:       row.IssueSummary,
		IssueType:          row.IssueType,
		SeverityPublic:     string(row.SeverityPublic),
		StatusPublic:       string(row.StatusPublic),
		ApprovalStatus:     string(row.ApprovalStatus),
		IsPublished:        row.IsPublished,
		Archived:           row.Archived,
		ArchiveReason:      row.ArchiveReason,
		RepairStartDate:    s.localPtr(row.RepairStartDate),
		CompletionDate:     s.localPtr(row.CompletionDate),
		RepairDurationDays: row.RepairDurationDays,
		ReviewNotes:        row.ReviewNotes,
		CreatedBy:          row.CreatedBy,
		LastUpdated:        s.local(row.LastUpdated),
	}
}
