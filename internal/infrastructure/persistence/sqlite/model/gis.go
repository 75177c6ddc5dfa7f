package model

import "time"

type GISMarker struct {
	MarkerID       string    `gorm:"column:marker_id;type:text;primaryKey"`
	MarkerType     string    `gorm:"column:marker_type;type:text;not null"`
	Title          string    `gorm:"column:title;type:text;not null"`
	Description    string    `gorm:"column:description;type:text;not null;default:''"`
	Latitude       *float64  `gorm:"column:latitude"`
	Longitude      *float64  `gorm:"column:longitude"`
	Severity       string    `gorm:"column:severity;type:text;not null;default:''"`
	Status         string    `gorm:"column:status;type:text;not null;index"`
	DamageReportID *string   `gorm:"column:damage_report_id;type:text;index"`
	Image          string    `gorm:"column:image;type:text;not null;default:''"`
	CreatedBy      string    `gorm:"column:created_by;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (GISMarker) TableName() string {
	return "gis_map_markers"
}

type ConstructionZone struct {
	ZoneID      string     `gorm:"column:zone_id;type:text;primaryKey"`
	Name        string     `gorm:"column:name;type:text;not null"`
	Description string     `gorm:"column:description;type:text;not null;default:''"`
	Geometry    string     `gorm:"column:geometry;type:text;not null"`
	Status      string     `gorm:"column:status;type:text;not null;index"`
	StartDate   *time.Time `gorm:"column:start_date"`
	EndDate     *time.Time `gorm:"column:end_date"`
	CreatedBy   string     `gorm:"column:created_by;type:text;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
}

func (ConstructionZone) TableName() string {
	return "gis_construction_zones"
}
