package ports

import (
	"context"
	"time"

	"roadportal/internal/domain/report"
)

type DamageReport struct {
	ReportID          string
	ReporterID        *string
	Location          string
	Barangay          string
	DamageType        report.DamageType
	Severity          report.Severity
	Description       string
	EstimatedSize     string
	TrafficImpact     string
	ContactNumber     string
	Anonymous         bool
	Images            []string
	Status            report.Status
	PublicationStatus report.PublicationStatus
	LGUNotes          string
	AssignedTo        *string
	Latitude          *float64
	Longitude         *float64
	ReportedAt        time.Time
	UpdatedAt         time.Time
}

type ReportStatusChange struct {
	From  report.Status
	To    report.Status
	Notes string
	At    time.Time
}

type ReportReadRepository interface {
	GetReport(ctx context.Context, reportID string) (DamageReport, error)
	ListReports(ctx context.Context, filter ListFilter) ([]DamageReport, int64, error)
}

type ReportRepository interface {
	ReportReadRepository
	CreateReport(ctx context.Context, row DamageReport) error
	// UpdateReportStatus writes only when the stored status equals change.From.
	UpdateReportStatus(ctx context.Context, reportID string, change ReportStatusChange) (bool, error)
	// UpdatePublicationStatus writes only when the stored value equals from.
	UpdatePublicationStatus(ctx context.Context, reportID string, from report.PublicationStatus, to report.PublicationStatus, notes string, at time.Time) (bool, error)
	AssignReport(ctx context.Context, reportID string, officerID string, at time.Time) error
}
