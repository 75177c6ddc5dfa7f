package model

import "time"

type Inspection struct {
	InspectionID      string     `gorm:"column:inspection_id;type:text;primaryKey"`
	DamageReportID    *string    `gorm:"column:damage_report_id;type:text;index"`
	Location          string     `gorm:"column:location;type:text;not null"`
	Barangay          string     `gorm:"column:barangay;type:text;not null;default:''"`
	InspectorID       string     `gorm:"column:inspector_id;type:text;not null"`
	Findings          string     `gorm:"column:findings;type:text;not null"`
	Severity          string     `gorm:"column:severity;type:text;not null"`
	RecommendedAction string     `gorm:"column:recommended_action;type:text;not null;default:''"`
	Status            string     `gorm:"column:status;type:text;not null;index"`
	ReviewNotes       string     `gorm:"column:review_notes;type:text;not null;default:''"`
	ReviewedBy        *string    `gorm:"column:reviewed_by;type:text"`
	ScheduledDate     *time.Time `gorm:"column:scheduled_date"`
	CreatedAt         time.Time  `gorm:"column:created_at;not null;index"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;not null"`
}

func (Inspection) TableName() string {
	return "inspections"
}

type RepairTask struct {
	TaskID         string    `gorm:"column:task_id;type:text;primaryKey"`
	InspectionID   string    `gorm:"column:inspection_id;type:text;not null;index"`
	DamageReportID *string   `gorm:"column:damage_report_id;type:text"`
	Location       string    `gorm:"column:location;type:text;not null"`
	Priority       string    `gorm:"column:priority;type:text;not null"`
	Status         string    `gorm:"column:status;type:text;not null"`
	CreatedBy      string    `gorm:"column:created_by;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (RepairTask) TableName() string {
	return "repair_tasks"
}
