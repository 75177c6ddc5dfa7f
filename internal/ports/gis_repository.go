package ports

import (
	"context"
	"time"

	"roadportal/internal/domain/gis"
)

type GISMarker struct {
	MarkerID       string
	MarkerType     gis.MarkerType
	Title          string
	Description    string
	Latitude       *float64
	Longitude      *float64
	Severity       string
	Status         gis.MarkerStatus
	DamageReportID *string
	Image          string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ConstructionZone struct {
	ZoneID      string
	Name        string
	Description string
	Geometry    string
	Status      gis.ZoneStatus
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedBy   string
	CreatedAt   time.Time
}

// MarkerPatch changes the markers linked to one report.
type MarkerPatch struct {
	MarkerType *gis.MarkerType
	Status     *gis.MarkerStatus
	At         time.Time
}

type GISReadRepository interface {
	ListActiveMarkers(ctx context.Context) ([]GISMarker, error)
	ListActiveZones(ctx context.Context) ([]ConstructionZone, error)
	GetMarkerByReport(ctx context.Context, reportID string) (GISMarker, error)
}

type GISRepository interface {
	GISReadRepository
	CreateMarker(ctx context.Context, row GISMarker) error
	UpdateReportMarkers(ctx context.Context, reportID string, patch MarkerPatch) (int64, error)
	CreateZone(ctx context.Context, row ConstructionZone) error
}
