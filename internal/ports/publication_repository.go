package ports

import (
	"context"
	"time"

	"roadportal/internal/domain/publication"
	"roadportal/internal/domain/report"
)

type Publication struct {
	PublicationID      string
	DamageReportID     *string
	RoadName           string
	IssueSummary       string
	IssueType          string
	SeverityPublic     report.Severity
	StatusPublic       publication.PublicStatus
	ApprovalStatus     publication.ApprovalStatus
	DateReported       *time.Time
	RepairStartDate    *time.Time
	CompletionDate     *time.Time
	RepairDurationDays *int
	IsPublished        bool
	Archived           bool
	ArchiveReason      string
	CreatedBy          string
	PublishedBy        *string
	PublicationDate    *time.Time
	ReviewNotes        string
	LastUpdated        time.Time
}

type PublicationProgress struct {
	ID            uint64
	PublicationID string
	Status        string
	Notes         string
	UpdatedBy     string
	CreatedAt     time.Time
}

// PublicationExpect guards a conditional update. Nil fields are not checked.
type PublicationExpect struct {
	ApprovalStatus *publication.ApprovalStatus
	IsPublished    *bool
	Archived       *bool
}

// PublicationPatch lists the columns to write. Nil fields are left alone;
// ClearDuration resets repair_duration_days when dates are incomplete.
type PublicationPatch struct {
	RoadName           *string
	IssueSummary       *string
	IssueType          *string
	SeverityPublic     *report.Severity
	StatusPublic       *publication.PublicStatus
	ApprovalStatus     *publication.ApprovalStatus
	RepairStartDate    *time.Time
	CompletionDate     *time.Time
	RepairDurationDays *int
	ClearDuration      bool
	IsPublished        *bool
	Archived           *bool
	ArchiveReason      *string
	PublishedBy        *string
	PublicationDate    *time.Time
	ReviewNotes        *string
	LastUpdated        time.Time
}

type PublicationReadRepository interface {
	GetPublication(ctx context.Context, publicationID string) (Publication, error)
	ListPublications(ctx context.Context, filter ListFilter) ([]Publication, int64, error)
	// ListPublished returns published, non-archived rows ordered by id.
	ListPublished(ctx context.Context) ([]Publication, error)
	ListProgress(ctx context.Context, publicationIDs []string) ([]PublicationProgress, error)
}

type PublicationRepository interface {
	PublicationReadRepository
	CreatePublication(ctx context.Context, row Publication) error
	UpdatePublication(ctx context.Context, publicationID string, expect PublicationExpect, patch PublicationPatch) (bool, error)
	AppendProgress(ctx context.Context, entry PublicationProgress) error
}
