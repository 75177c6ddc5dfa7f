package listing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	"roadportal/internal/domain/identity"
	domainlisting "roadportal/internal/domain/listing"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/export"
	"roadportal/internal/ports"
)

type ReportView struct {
	ReportID          string    `json:"report_id"`
	ReporterID        *string   `json:"reporter_id,omitempty"`
	Location          string    `json:"location"`
	Barangay          string    `json:"barangay"`
	DamageType        string    `json:"damage_type"`
	Severity          string    `json:"severity"`
	Description       string    `json:"description"`
	EstimatedSize     string    `json:"estimated_size,omitempty"`
	TrafficImpact     string    `json:"traffic_impact,omitempty"`
	ContactNumber     string    `json:"contact_number,omitempty"`
	Anonymous         bool      `json:"anonymous"`
	Images            []string  `json:"images"`
	Status            string    `json:"status"`
	PublicationStatus string    `json:"publication_status"`
	LGUNotes          string    `json:"lgu_notes,omitempty"`
	AssignedTo        *string   `json:"assigned_to,omitempty"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	NextStatuses      []string  `json:"next_statuses"`
	ReportedAt        time.Time `json:"reported_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ActivityView struct {
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ReportDetail struct {
	Report   ReportView     `json:"report"`
	Activity []ActivityView `json:"activity"`
}

func (s *Service) ListReports(ctx context.Context, actor access.Actor, raw domainlisting.RawQuery) (Page[ReportView], error) {
	logCtx, err := s.begin(ctx, actor, "list reports")
	if err != nil {
		return Page[ReportView]{}, err
	}
	if s.reports == nil {
		return Page[ReportView]{}, errors.New("report repository is required")
	}

	query, err := domainlisting.Normalize(raw, reportStatuses())
	if err != nil {
		return Page[ReportView]{}, err
	}
	rows, total, err := s.reports.ListReports(logCtx, toFilter(query))
	if err != nil {
		logging.Error(logCtx, "list reports failed", slog.Any("err", errs.Loggable(err)))
		return Page[ReportView]{}, errs.Wrap(err, "list reports")
	}

	items := make([]ReportView, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.reportView(row))
	}
	return Page[ReportView]{Items: items, Total: total, Page: query.Page, PerPage: query.PerPage}, nil
}

// GetReport returns one report with its activity history.
func (s *Service) GetReport(ctx context.Context, actor access.Actor, reportID string) (ReportDetail, error) {
	logCtx, err := s.begin(ctx, actor, "view report")
	if err != nil {
		return ReportDetail{}, err
	}
	if s.reports == nil {
		return ReportDetail{}, errors.New("report repository is required")
	}
	id, err := identity.ParseWithPrefix(reportID, identity.PrefixDamageReport)
	if err != nil {
		return ReportDetail{}, err
	}

	row, err := s.reports.GetReport(logCtx, id.String())
	if err != nil {
		return ReportDetail{}, errs.Wrap(err, "get report")
	}
	detail := ReportDetail{Report: s.reportView(row), Activity: []ActivityView{}}
	if s.activity == nil {
		return detail, nil
	}

	entries, err := s.activity.ListActivity(logCtx, "damage_report", row.ReportID)
	if err != nil {
		return ReportDetail{}, errs.Wrap(err, "list report activity")
	}
	for _, entry := range entries {
		detail.Activity = append(detail.Activity, ActivityView{
			UserID:    entry.UserID,
			Action:    entry.Action,
			Details:   entry.Details,
			CreatedAt: s.local(entry.CreatedAt),
		})
	}
	return detail, nil
}

// ExportReports writes every report matching raw (paging ignored) as an XLSX
// workbook and returns the suggested file name.
func (s *Service) ExportReports(ctx context.Context, actor access.Actor, raw domainlisting.RawQuery, w io.Writer) (string, error) {
	logCtx, err := s.begin(ctx, actor, "export reports")
	if err != nil {
		return "", err
	}
	if s.reports == nil {
		return "", errors.New("report repository is required")
	}
	if w == nil {
		return "", errors.New("writer is required")
	}

	raw.Page, raw.PerPage = "", ""
	query, err := domainlisting.Normalize(raw, reportStatuses())
	if err != nil {
		return "", err
	}
	filter := toFilter(query)
	filter.Offset, filter.Limit = 0, 0

	rows, _, err := s.reports.ListReports(logCtx, filter)
	if err != nil {
		return "", errs.Wrap(err, "list reports for export")
	}
	for i := range rows {
		rows[i].ReportedAt = s.local(rows[i].ReportedAt)
		rows[i].UpdatedAt = s.local(rows[i].UpdatedAt)
	}

	generatedAt := s.local(s.now())
	if err := export.WriteReports(w, "Damage Reports", generatedAt, rows); err != nil {
		logging.Error(logCtx, "export reports failed", slog.Any("err", errs.Loggable(err)))
		return "", errs.Wrap(err, "write report workbook")
	}
	logging.Info(logCtx, "reports exported", slog.Int("rows", len(rows)))
	return export.FileName(generatedAt), nil
}

func (s *Service) reportView(row ports.DamageReport) ReportView {
	images := make([]string, 0, len(row.Images))
	for _, name := range row.Images {
		images = append(images, s.imageBaseURL+"/reports/"+name)
	}
	next := report.NextStatuses(row.Status)
	nextStatuses := make([]string, 0, len(next))
	for _, status := range next {
		nextStatuses = append(nextStatuses, string(status))
	}
	return ReportView{
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
		Images:            images,
		Status:            string(row.Status),
		PublicationStatus: string(row.PublicationStatus),
		LGUNotes:          row.LGUNotes,
		AssignedTo:        row.AssignedTo,
		Latitude:          row.Latitude,
		Longitude:         row.Longitude,
		NextStatuses:      nextStatuses,
		ReportedAt:        s.local(row.ReportedAt),
		UpdatedAt:         s.local(row.UpdatedAt),
	}
}

func reportStatuses() []string {
	statuses := report.Statuses()
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}
