package model

import "time"

type Publication struct {
	PublicationID      string     `gorm:"column:publication_id;type:text;primaryKey"`
	DamageReportID     *string    `gorm:"column:damage_report_id;type:text;index"`
	RoadName           string     `gorm:"column:road_name;type:text;not null"`
	IssueSummary       string     `gorm:"column:issue_summary;type:text;not null"`
	IssueType          string     `gorm:"column:issue_type;type:text;not null;default:''"`
	SeverityPublic     string     `gorm:"column:severity_public;type:text;not null"`
	StatusPublic       string     `gorm:"column:status_public;type:text;not null"`
	ApprovalStatus     string     `gorm:"column:approval_status;type:text;not null;index"`
	DateReported       *time.Time `gorm:"column:date_reported"`
	RepairStartDate    *time.Time `gorm:"column:repair_start_date"`
	CompletionDate     *time.Time `gorm:"column:completion_date"`
	RepairDurationDays *int       `gorm:"column:repair_duration_days"`
	IsPublished        bool       `gorm:"column:is_published;not null;default:false;index"`
	Archived           bool       `gorm:"column:archived;not null;default:false"`
	ArchiveReason      string     `gorm:"column:archive_reason;type:text;not null;default:''"`
	CreatedBy          string     `gorm:"column:created_by;type:text;not null"`
	PublishedBy        *string    `gorm:"column:published_by;type:text"`
	PublicationDate    *time.Time `gorm:"column:publication_date"`
	ReviewNotes        string     `gorm:"column:review_notes;type:text;not null;default:''"`
	LastUpdated        time.Time  `gorm:"column:last_updated;not null"`
}

func (Publication) TableName() string {
	return "public_publications"
}

type PublicationProgress struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PublicationID string    `gorm:"column:publication_id;type:text;not null;index"`
	Status        string    `gorm:"column:status;type:text;not null"`
	Notes         string    `gorm:"column:notes;type:text;not null;default:''"`
	UpdatedBy     string    `gorm:"column:updated_by;type:text;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
}

func (PublicationProgress) TableName() string {
	return "publication_progress"
}
