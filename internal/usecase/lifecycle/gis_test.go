package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"roadportal/internal/domain/gis"
	"roadportal/internal/errs"
)

const squareZone = `{"type":"Polygon","coordinates":[[[121.0,14.5],[121.1,14.5],[121.1,14.6],[121.0,14.6],[121.0,14.5]]]}`

func TestCreateZone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.cache.Data["public_feed:generation"] = "old"

	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	id, err := f.svc.CreateZone(ctx, officer, ZoneInput{Name: "Bridge works", Geometry: squareZone, StartDate: &start})
	if err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}
	if id != "CZ-2026-001" {
		t.Fatalf("zone id = %q", id)
	}

	zones, err := f.gis.ListActiveZones(ctx)
	if err != nil {
		t.Fatalf("ListActiveZones() error = %v", err)
	}
	if len(zones) != 1 || zones[0].Status != gis.ZoneActive || zones[0].Name != "Bridge works" {
		t.Fatalf("zones = %+v", zones)
	}
	if f.cache.Data["public_feed:generation"] == "old" {
		t.Fatal("feed generation not rotated")
	}
}

func TestCreateZoneRejectsBadInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	cases := []struct {
		name  string
		input ZoneInput
	}{
		{"no name", ZoneInput{Geometry: squareZone}},
		{"point", ZoneInput{Name: "x", Geometry: `{"type":"Point","coordinates":[121,14]}`}},
		{"not json", ZoneInput{Name: "x", Geometry: "polygon"}},
		{"dates", ZoneInput{Name: "x", Geometry: squareZone, StartDate: &start, EndDate: &end}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.CreateZone(ctx, officer, tc.input); !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("CreateZone() error = %v, want validation", err)
			}
		})
	}
	if _, err := f.svc.CreateZone(ctx, engineer, ZoneInput{Name: "x", Geometry: squareZone}); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("CreateZone(engineer) error = %v, want forbidden", err)
	}
}

func TestCreateProjectMarker(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	lat, lng := 14.55, 121.02

	if _, err := f.svc.CreateProjectMarker(ctx, officer, MarkerInput{Title: "Flyover", Latitude: &lat}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("CreateProjectMarker(no lng) error = %v, want validation", err)
	}
	bad := 200.0
	if _, err := f.svc.CreateProjectMarker(ctx, officer, MarkerInput{Title: "Flyover", Latitude: &lat, Longitude: &bad}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("CreateProjectMarker(bad lng) error = %v, want validation", err)
	}

	id, err := f.svc.CreateProjectMarker(ctx, officer, MarkerInput{Title: "Flyover", Latitude: &lat, Longitude: &lng, Severity: "medium"})
	if err != nil {
		t.Fatalf("CreateProjectMarker() error = %v", err)
	}
	markers, err := f.gis.ListActiveMarkers(ctx)
	if err != nil {
		t.Fatalf("ListActiveMarkers() error = %v", err)
	}
	if len(markers) != 1 || markers[0].MarkerID != id || markers[0].MarkerType != gis.MarkerProject {
		t.Fatalf("markers = %+v", markers)
	}
}
