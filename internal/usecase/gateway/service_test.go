package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"roadportal/internal/domain/gis"
	"roadportal/internal/domain/publication"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	sqliterepo "roadportal/internal/infrastructure/persistence/sqlite/repository"
	"roadportal/internal/ports"
	"roadportal/internal/testsupport"
)

var seededAt = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *Service
	cache        *testsupport.MemoryCache
	gis          *sqliterepo.GISRepository
	publications *sqliterepo.PublicationRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testsupport.OpenDB(t)
	f := &fixture{
		cache:        testsupport.NewMemoryCache(),
		gis:          sqliterepo.NewGISRepository(db),
		publications: sqliterepo.NewPublicationRepository(db),
	}
	f.svc = NewService(Deps{GIS: f.gis, Publications: f.publications, Cache: f.cache, ImageBaseURL: "/uploads/"})
	return f
}

func (f *fixture) marker(t *testing.T, id string, kind gis.MarkerType, severity string, lat, lng *float64) {
	t.Helper()
	if err := f.gis.CreateMarker(context.Background(), ports.GISMarker{
		MarkerID:   id,
		MarkerType: kind,
		Title:      "Marker " + id,
		Latitude:   lat,
		Longitude:  lng,
		Severity:   severity,
		Status:     gis.MarkerActive,
		Image:      "photo.jpg",
		CreatedBy:  "officer-1",
		CreatedAt:  seededAt,
		UpdatedAt:  seededAt,
	}); err != nil {
		t.Fatalf("CreateMarker() error = %v", err)
	}
}

func (f *fixture) zone(t *testing.T, id string, geometry string) {
	t.Helper()
	if err := f.gis.CreateZone(context.Background(), ports.ConstructionZone{
		ZoneID:    id,
		Name:      "Zone " + id,
		Geometry:  geometry,
		Status:    gis.ZoneActive,
		CreatedBy: "officer-1",
		CreatedAt: seededAt,
	}); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}
}

func ptr(v float64) *float64 { return &v }

type feedDoc struct {
	Type     string `json:"type"`
	Features []struct {
		ID         string                 `json:"id"`
		Geometry   json.RawMessage        `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"features"`
	Statistics Statistics `json:"statistics"`
}

func decodeFeed(t *testing.T, raw json.RawMessage) feedDoc {
	t.Helper()
	var doc feedDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	return doc
}

func (d feedDoc) ids() []string {
	out := make([]string, 0, len(d.Features))
	for _, feature := range d.Features {
		out = append(out, feature.ID)
	}
	return out
}

func seedMap(t *testing.T, f *fixture) {
	f.marker(t, "GM-2026-001", gis.MarkerIssue, "critical", ptr(14.55), ptr(121.05))
	f.marker(t, "GM-2026-002", gis.MarkerProject, "", ptr(10.0), ptr(123.0))
	f.marker(t, "GM-2026-003", gis.MarkerCompleted, "low", ptr(14.56), ptr(121.06))
	f.marker(t, "GM-2026-004", gis.MarkerIssue, "medium", nil, nil)
	f.zone(t, "CZ-2026-001", `{"type":"Polygon","coordinates":[[[121.0,14.5],[121.1,14.5],[121.1,14.6],[121.0,14.6],[121.0,14.5]]]}`)
}

func TestPublicFeedFiltersAndStatistics(t *testing.T) {
	f := setup(t)
	seedMap(t, f)
	ctx := context.Background()

	raw, err := f.svc.GetPublicFeed(ctx, "", "")
	if err != nil {
		t.Fatalf("GetPublicFeed() error = %v", err)
	}
	doc := decodeFeed(t, raw)
	if doc.Type != "FeatureCollection" {
		t.Fatalf("type = %q", doc.Type)
	}
	if got := strings.Join(doc.ids(), ","); got != "GM-2026-001,GM-2026-002,GM-2026-003,GM-2026-004,CZ-2026-001" {
		t.Fatalf("feature ids = %s", got)
	}
	if string(doc.Features[3].Geometry) != "null" {
		t.Fatalf("marker without coordinates geometry = %s", doc.Features[3].Geometry)
	}
	want := Statistics{TotalMarkers: 4, ActiveIssues: 2, ActiveProjects: 1, CriticalIssues: 1, ConstructionZones: 1}
	if doc.Statistics != want {
		t.Fatalf("statistics = %+v, want %+v", doc.Statistics, want)
	}
	if got := doc.Features[0].Properties["image"]; got != "/uploads/gis_markers/photo.jpg" {
		t.Fatalf("image = %v", got)
	}

	cases := map[string]string{
		"issues":    "GM-2026-001,GM-2026-004",
		"projects":  "GM-2026-002,CZ-2026-001",
		"completed": "GM-2026-003",
	}
	for filter, ids := range cases {
		raw, err := f.svc.GetPublicFeed(ctx, filter, "")
		if err != nil {
			t.Fatalf("GetPublicFeed(%s) error = %v", filter, err)
		}
		if got := strings.Join(decodeFeed(t, raw).ids(), ","); got != ids {
			t.Fatalf("GetPublicFeed(%s) ids = %s, want %s", filter, got, ids)
		}
	}

	if _, err := f.svc.GetPublicFeed(ctx, "everything", ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("GetPublicFeed(bad filter) error = %v, want validation", err)
	}
}

func TestPublicFeedBoundsKeepStatisticsStable(t *testing.T) {
	f := setup(t)
	seedMap(t, f)
	ctx := context.Background()

	raw, err := f.svc.GetPublicFeed(ctx, "all", "121.04,14.54,121.2,14.7")
	if err != nil {
		t.Fatalf("GetPublicFeed() error = %v", err)
	}
	doc := decodeFeed(t, raw)
	if got := strings.Join(doc.ids(), ","); got != "GM-2026-001,GM-2026-003,CZ-2026-001" {
		t.Fatalf("feature ids = %s", got)
	}
	if doc.Statistics.TotalMarkers != 4 {
		t.Fatalf("statistics follow bounds: %+v", doc.Statistics)
	}

	leaflet := `{"_southWest":{"lat":9,"lng":122},"_northEast":{"lat":11,"lng":124}}`
	raw, err = f.svc.GetPublicFeed(ctx, "all", leaflet)
	if err != nil {
		t.Fatalf("GetPublicFeed(leaflet) error = %v", err)
	}
	if got := strings.Join(decodeFeed(t, raw).ids(), ","); got != "GM-2026-002" {
		t.Fatalf("leaflet ids = %s", got)
	}
}

func TestPublicFeedIsCachedUntilInvalidated(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.marker(t, "GM-2026-001", gis.MarkerIssue, "high", ptr(14.5), ptr(121.0))

	first, err := f.svc.GetPublicFeed(ctx, "all", "")
	if err != nil {
		t.Fatalf("GetPublicFeed() error = %v", err)
	}
	f.marker(t, "GM-2026-002", gis.MarkerIssue, "high", ptr(14.5), ptr(121.0))

	second, err := f.svc.GetPublicFeed(ctx, "all", "")
	if err != nil {
		t.Fatalf("GetPublicFeed() error = %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("cached feed changed without invalidation")
	}

	if err := InvalidateFeed(ctx, f.cache); err != nil {
		t.Fatalf("InvalidateFeed() error = %v", err)
	}
	third, err := f.svc.GetPublicFeed(ctx, "all", "")
	if err != nil {
		t.Fatalf("GetPublicFeed() error = %v", err)
	}
	if got := len(decodeFeed(t, third).Features); got != 2 {
		t.Fatalf("features after invalidation = %d, want 2", got)
	}
}

func TestListPublishedHidesInternalFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reportID := "DR-2026-001"
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	rows := []ports.Publication{
		{PublicationID: "PUB-2026-001", DamageReportID: &reportID, RoadName: "Main St", IssueSummary: "Pothole", SeverityPublic: report.SeverityHigh, StatusPublic: publication.PublicUnderRepair, ApprovalStatus: publication.ApprovalApproved, IsPublished: true, RepairStartDate: &start, ReviewNotes: "internal note", CreatedBy: "officer-1", LastUpdated: seededAt},
		{PublicationID: "PUB-2026-002", RoadName: "Rizal Ave", IssueSummary: "Draft", SeverityPublic: report.SeverityLow, StatusPublic: publication.PublicReported, ApprovalStatus: publication.ApprovalPending, CreatedBy: "engineer-1", LastUpdated: seededAt},
		{PublicationID: "PUB-2026-003", RoadName: "Bonifacio", IssueSummary: "Old", SeverityPublic: report.SeverityLow, StatusPublic: publication.PublicCompleted, ApprovalStatus: publication.ApprovalApproved, Archived: true, CreatedBy: "officer-1", LastUpdated: seededAt},
	}
	for _, row := range rows {
		if err := f.publications.CreatePublication(ctx, row); err != nil {
			t.Fatalf("CreatePublication() error = %v", err)
		}
	}
	if err := f.publications.AppendProgress(ctx, ports.PublicationProgress{PublicationID: "PUB-2026-001", Status: "published", Notes: "Live", UpdatedBy: "officer-1", CreatedAt: seededAt}); err != nil {
		t.Fatalf("AppendProgress() error = %v", err)
	}

	items, err := f.svc.ListPublished(ctx, "")
	if err != nil {
		t.Fatalf("ListPublished() error = %v", err)
	}
	if len(items) != 1 || items[0].PublicationID != "PUB-2026-001" {
		t.Fatalf("items = %+v", items)
	}
	if len(items[0].Progress) != 1 || items[0].Progress[0].Status != "published" {
		t.Fatalf("progress = %+v", items[0].Progress)
	}
	if items[0].RepairStartDate != "2026-10-01" {
		t.Fatalf("repair start = %q", items[0].RepairStartDate)
	}

	data, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"review_notes", "approval_status", "created_by", "internal note", "damage_report_id"} {
		if strings.Contains(string(data), field) {
			t.Fatalf("public payload leaks %q: %s", field, data)
		}
	}

	filtered, err := f.svc.ListPublished(ctx, "completed")
	if err != nil {
		t.Fatalf("ListPublished(completed) error = %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("completed items = %+v", filtered)
	}
	if _, err := f.svc.ListPublished(ctx, "finished"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("ListPublished(bad status) error = %v, want validation", err)
	}
}
