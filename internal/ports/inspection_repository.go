package ports

import (
	"context"
	"time"

	"roadportal/internal/domain/inspection"
	"roadportal/internal/domain/report"
)

type Inspection struct {
	InspectionID      string
	DamageReportID    *string
	Location          string
	Barangay          string
	InspectorID       string
	Findings          string
	Severity          report.Severity
	RecommendedAction string
	Status            inspection.Status
	ReviewNotes       string
	ReviewedBy        *string
	ScheduledDate     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type InspectionReview struct {
	From       inspection.Status
	To         inspection.Status
	Notes      string
	ReviewedBy string
	At         time.Time
}

type RepairTask struct {
	TaskID         string
	InspectionID   string
	DamageReportID *string
	Location       string
	Priority       string
	Status         string
	CreatedBy      string
	CreatedAt      time.Time
}

type InspectionRepository interface {
	CreateInspection(ctx context.Context, row Inspection) error
	GetInspection(ctx context.Context, inspectionID string) (Inspection, error)
	ListInspections(ctx context.Context, filter ListFilter) ([]Inspection, int64, error)
	UpdateInspectionStatus(ctx context.Context, inspectionID string, review InspectionReview) (bool, error)
	CreateRepairTask(ctx context.Context, row RepairTask) error
	ListRepairTasks(ctx context.Context, inspectionID string) ([]RepairTask, error)
}
