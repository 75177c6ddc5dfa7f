package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"roadportal/internal/domain/gis"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

const dateLayout = "2006-01-02"

// Statistics summarise every active marker and zone regardless of bounds.
type Statistics struct {
	TotalMarkers      int `json:"total_markers"`
	ActiveIssues      int `json:"active_issues"`
	ActiveProjects    int `json:"active_projects"`
	CriticalIssues    int `json:"critical_issues"`
	ConstructionZones int `json:"construction_zones"`
}

// GetPublicFeed returns a GeoJSON FeatureCollection with a "statistics"
// foreign member. Features are ordered by id: markers first, then zones.
func (s *Service) GetPublicFeed(ctx context.Context, filterRaw string, boundsRaw string) (json.RawMessage, error) {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	if s.gis == nil {
		return nil, errors.New("gis repository is required")
	}

	filter, err := gis.ParseFilter(filterRaw)
	if err != nil {
		return nil, err
	}
	bounds, hasBounds, err := gis.ParseBounds(boundsRaw)
	if err != nil {
		return nil, err
	}

	data, err := s.cached(logCtx, func(gen string) string {
		return feedKey(gen, filter, bounds, hasBounds)
	}, func() ([]byte, error) {
		return s.buildFeed(logCtx, filter, bounds, hasBounds)
	})
	if err != nil {
		return nil, errs.Wrap(err, "get public feed")
	}
	return json.RawMessage(data), nil
}

func (s *Service) buildFeed(ctx context.Context, filter gis.Filter, bounds orb.Bound, hasBounds bool) ([]byte, error) {
	markers, err := s.gis.ListActiveMarkers(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list active markers")
	}
	zones, err := s.gis.ListActiveZones(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list active zones")
	}

	fc := geojson.NewFeatureCollection()
	for _, marker := range markers {
		if !filter.IncludesMarker(marker.MarkerType) {
			continue
		}
		point, ok := markerPoint(marker)
		if hasBounds && (!ok || !bounds.Contains(point)) {
			continue
		}
		fc.Append(s.markerFeature(marker, point, ok))
	}

	if filter.IncludesZones() {
		for _, zone := range zones {
			geometry, err := gis.ParseZoneGeometry(zone.Geometry)
			if err != nil {
				// Stored geometry was validated on write; skip rows that no longer parse.
				continue
			}
			if hasBounds && !geometry.Bound().Intersects(bounds) {
				continue
			}
			fc.Append(zoneFeature(zone, geometry))
		}
	}

	fc.ExtraMembers = geojson.Properties{"statistics": computeStatistics(markers, zones)}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, errs.Wrap(err, "marshal feature collection")
	}
	return data, nil
}

func markerPoint(marker ports.GISMarker) (orb.Point, bool) {
	if marker.Latitude == nil || marker.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*marker.Longitude, *marker.Latitude}, true
}

func (s *Service) markerFeature(marker ports.GISMarker, point orb.Point, hasPoint bool) *geojson.Feature {
	var feature *geojson.Feature
	if hasPoint {
		feature = geojson.NewFeature(point)
	} else {
		feature = &geojson.Feature{Type: "Feature", Properties: geojson.Properties{}}
	}
	feature.ID = marker.MarkerID

	props := geojson.Properties{
		"id":          marker.MarkerID,
		"kind":        "marker",
		"marker_type": string(marker.MarkerType),
		"title":       marker.Title,
		"description": marker.Description,
		"severity":    marker.Severity,
		"status":      string(marker.Status),
		"created_at":  marker.CreatedAt.UTC().Format(time.RFC3339),
	}
	if marker.DamageReportID != nil {
		props["report_id"] = *marker.DamageReportID
	}
	if url := s.imageURL("gis_markers", marker.Image); url != "" {
		props["image"] = url
	}
	feature.Properties = props
	return feature
}

func zoneFeature(zone ports.ConstructionZone, geometry orb.Geometry) *geojson.Feature {
	feature := geojson.NewFeature(geometry)
	feature.ID = zone.ZoneID

	props := geojson.Properties{
		"id":          zone.ZoneID,
		"kind":        "zone",
		"name":        zone.Name,
		"description": zone.Description,
		"status":      string(zone.Status),
	}
	if zone.StartDate != nil {
		props["start_date"] = zone.StartDate.Format(dateLayout)
	}
	if zone.EndDate != nil {
		props["end_date"] = zone.EndDate.Format(dateLayout)
	}
	feature.Properties = props
	return feature
}

func computeStatistics(markers []ports.GISMarker, zones []ports.ConstructionZone) Statistics {
	stats := Statistics{
		TotalMarkers:      len(markers),
		ConstructionZones: len(zones),
	}
	for _, marker := range markers {
		switch marker.MarkerType {
		case gis.MarkerIssue:
			stats.ActiveIssues++
			if marker.Severity == string(report.SeverityCritical) {
				stats.CriticalIssues++
			}
		case gis.MarkerProject:
			stats.ActiveProjects++
		}
	}
	return stats
}
