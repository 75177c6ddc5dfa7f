package model

import (
	"time"

	"gorm.io/datatypes"
)

type DamageReport struct {
	ReportID          string                      `gorm:"column:report_id;type:text;primaryKey"`
	ReporterID        *string                     `gorm:"column:reporter_id;type:text;index"`
	Location          string                      `gorm:"column:location;type:text;not null"`
	Barangay          string                      `gorm:"column:barangay;type:text;not null"`
	DamageType        string                      `gorm:"column:damage_type;type:text;not null"`
	Severity          string                      `gorm:"column:severity;type:text;not null;index"`
	Description       string                      `gorm:"column:description;type:text;not null"`
	EstimatedSize     string                      `gorm:"column:estimated_size;type:text;not null;default:''"`
	TrafficImpact     string                      `gorm:"column:traffic_impact;type:text;not null;default:''"`
	ContactNumber     string                      `gorm:"column:contact_number;type:text;not null;default:''"`
	Anonymous         bool                        `gorm:"column:anonymous;not null;default:false"`
	Images            datatypes.JSONSlice[string] `gorm:"column:images;not null"`
	Status            string                      `gorm:"column:status;type:text;not null;index"`
	PublicationStatus string                      `gorm:"column:publication_status;type:text;not null"`
	LGUNotes          string                      `gorm:"column:lgu_notes;type:text;not null;default:''"`
	AssignedTo        *string                     `gorm:"column:assigned_to;type:text"`
	Latitude          *float64                    `gorm:"column:latitude"`
	Longitude         *float64                    `gorm:"column:longitude"`
	ReportedAt        time.Time                   `gorm:"column:reported_at;not null;index"`
	UpdatedAt         time.Time                   `gorm:"column:updated_at;not null"`
}

func (DamageReport) TableName() string {
	return "damage_reports"
}
