package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	"roadportal/internal/domain/gis"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
	"roadportal/internal/usecase/idgen"
)

type MarkerInput struct {
	Title       string
	Description string
	Latitude    *float64
	Longitude   *float64
	Severity    string
	// Image is a file name already stored under uploads/gis_markers.
	Image string
}

// CreateProjectMarker pins a road project on the public map.
func (s *Service) CreateProjectMarker(ctx context.Context, actor access.Actor, input MarkerInput) (string, error) {
	logCtx, err := s.begin(ctx, actor, "create project marker", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return "", err
	}
	if s.gis == nil || s.sequences == nil {
		return "", errors.New("gis and sequence repositories are required")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return "", errs.Validationf("title is required")
	}
	if input.Latitude == nil || input.Longitude == nil {
		return "", errs.Validationf("latitude and longitude are required")
	}
	if err := report.CheckCoordinates(input.Latitude, input.Longitude); err != nil {
		return "", err
	}
	severity := ""
	if strings.TrimSpace(input.Severity) != "" {
		parsed, err := report.ParseSeverity(input.Severity)
		if err != nil {
			return "", err
		}
		severity = string(parsed)
	}

	var markerID string
	err = idgen.Retry(logCtx, func(ctx context.Context) error {
		at := s.clock()
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			id, err := idgen.Next(txCtx, s.sequences, idgen.SeqGISMarker, at)
			if err != nil {
				return err
			}
			if err := s.gis.CreateMarker(txCtx, ports.GISMarker{
				MarkerID:    id,
				MarkerType:  gis.MarkerProject,
				Title:       title,
				Description: strings.TrimSpace(input.Description),
				Latitude:    input.Latitude,
				Longitude:   input.Longitude,
				Severity:    severity,
				Status:      gis.MarkerActive,
				Image:       strings.TrimSpace(input.Image),
				CreatedBy:   actor.UserID,
				CreatedAt:   at,
				UpdatedAt:   at,
			}); err != nil {
				return errs.Wrap(err, "create project marker")
			}
			markerID = id
			return s.record(txCtx, actor, "marker_created", "gis_marker", id, title, at)
		})
	})
	if err != nil {
		logFailure(logCtx, "create project marker failed", err)
		return "", errs.Wrap(err, "create project marker")
	}

	s.invalidateFeed(logCtx)
	logging.Info(logCtx, "project marker created", slog.String("marker_id", markerID))
	return markerID, nil
}

type ZoneInput struct {
	Name        string
	Description string
	// Geometry is a GeoJSON Polygon, MultiPolygon, or a Feature wrapping one.
	Geometry  string
	StartDate *time.Time
	EndDate   *time.Time
}

// CreateZone stores a construction zone outline.
func (s *Service) CreateZone(ctx context.Context, actor access.Actor, input ZoneInput) (string, error) {
	logCtx, err := s.begin(ctx, actor, "create construction zone", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return "", err
	}
	if s.gis == nil || s.sequences == nil {
		return "", errors.New("gis and sequence repositories are required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", errs.Validationf("name is required")
	}
	geometry, err := gis.ParseZoneGeometry(input.Geometry)
	if err != nil {
		return "", err
	}
	geometryText, err := gis.MarshalGeometry(geometry)
	if err != nil {
		return "", err
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return "", errs.Validationf("end_date is before start_date")
	}

	var zoneID string
	err = idgen.Retry(logCtx, func(ctx context.Context) error {
		at := s.clock()
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			id, err := idgen.Next(txCtx, s.sequences, idgen.SeqConstructionZone, at)
			if err != nil {
				return err
			}
			if err := s.gis.CreateZone(txCtx, ports.ConstructionZone{
				ZoneID:      id,
				Name:        name,
				Description: strings.TrimSpace(input.Description),
				Geometry:    geometryText,
				Status:      gis.ZoneActive,
				StartDate:   input.StartDate,
				EndDate:     input.EndDate,
				CreatedBy:   actor.UserID,
				CreatedAt:   at,
			}); err != nil {
				return errs.Wrap(err, "create construction zone")
			}
			zoneID = id
			return s.record(txCtx, actor, "zone_created", "construction_zone", id, name, at)
		})
	})
	if err != nil {
		logFailure(logCtx, "create construction zone failed", err)
		return "", errs.Wrap(err, "create construction zone")
	}

	s.invalidateFeed(logCtx)
	logging.Info(logCtx, "construction zone created", slog.String("zone_id", zoneID))
	return zoneID, nil
}
