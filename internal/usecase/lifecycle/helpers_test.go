package lifecycle

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"roadportal/internal/domain/access"
	"roadportal/internal/domain/publication"
	"roadportal/internal/domain/report"
	sqliterepo "roadportal/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "roadportal/internal/infrastructure/persistence/sqlite/uow"
	"roadportal/internal/ports"
	"roadportal/internal/testsupport"
)

var (
	officer  = access.Actor{UserID: "officer-1", Role: access.RoleLGUOfficer}
	officer2 = access.Actor{UserID: "officer-2", Role: access.RoleLGUOfficer}
	engineer = access.Actor{UserID: "engineer-1", Role: access.RoleEngineer}
	citizen  = access.Actor{UserID: "citizen-1", Role: access.RoleCitizen}
	fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	db            *gorm.DB
	svc           *Service
	cache         *testsupport.MemoryCache
	reports       *sqliterepo.ReportRepository
	publications  *sqliterepo.PublicationRepository
	inspections   *sqliterepo.InspectionRepository
	gis           *sqliterepo.GISRepository
	notifications *sqliterepo.NotificationRepository
	users         *sqliterepo.UserRepository
	activity      *sqliterepo.ActivityRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := testsupport.OpenDB(t)
	testsupport.SeedUser(t, db, officer.UserID, officer.Role)
	testsupport.SeedUser(t, db, officer2.UserID, officer2.Role)
	testsupport.SeedUser(t, db, engineer.UserID, engineer.Role)
	testsupport.SeedUser(t, db, citizen.UserID, citizen.Role)

	f := &fixture{
		db:            db,
		cache:         testsupport.NewMemoryCache(),
		reports:       sqliterepo.NewReportRepository(db),
		publications:  sqliterepo.NewPublicationRepository(db),
		inspections:   sqliterepo.NewInspectionRepository(db),
		gis:           sqliterepo.NewGISRepository(db),
		notifications: sqliterepo.NewNotificationRepository(db),
		users:         sqliterepo.NewUserRepository(db),
		activity:      sqliterepo.NewActivityRepository(db),
	}
	f.svc = NewService(Deps{
		Reports:       f.reports,
		Publications:  f.publications,
		Inspections:   f.inspections,
		GIS:           f.gis,
		Notifications: f.notifications,
		Users:         f.users,
		Activity:      f.activity,
		Sequences:     sqliterepo.NewSequenceRepository(db),
		UnitOfWork:    sqliteuow.NewUnitOfWork(db),
		Cache:         f.cache,
		Location:      time.UTC,
	})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

type reportOpt func(*ports.DamageReport)

func withStatus(status report.Status) reportOpt {
	return func(r *ports.DamageReport) { r.Status = status }
}

func withCoords(lat, lng float64) reportOpt {
	return func(r *ports.DamageReport) {
		r.Latitude = &lat
		r.Longitude = &lng
	}
}

func anonymous() reportOpt {
	return func(r *ports.DamageReport) {
		r.ReporterID = nil
		r.Anonymous = true
	}
}

func (f *fixture) seedReport(t *testing.T, id string, opts ...reportOpt) ports.DamageReport {
	t.Helper()

	reporter := citizen.UserID
	row := ports.DamageReport{
		ReportID:          id,
		ReporterID:        &reporter,
		Location:          "Main St",
		Barangay:          "Brgy 1",
		DamageType:        report.DamagePothole,
		Severity:          report.SeverityHigh,
		Description:       "Large pothole",
		Images:            []string{},
		Status:            report.StatusPending,
		PublicationStatus: report.PublicationPending,
		ReportedAt:        fixedNow.Add(-24 * time.Hour),
		UpdatedAt:         fixedNow.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&row)
	}
	if err := f.reports.CreateReport(context.Background(), row); err != nil {
		t.Fatalf("seed report %s: %v", id, err)
	}
	return row
}

func (f *fixture) unread(t *testing.T, userID string) int64 {
	t.Helper()
	n, err := f.notifications.CountUnread(context.Background(), userID)
	if err != nil {
		t.Fatalf("CountUnread() error = %v", err)
	}
	return n
}

func (f *fixture) activityCount(t *testing.T, entityType string, entityID string) int {
	t.Helper()
	rows, err := f.activity.ListActivity(context.Background(), entityType, entityID)
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	return len(rows)
}

func (f *fixture) progress(t *testing.T, publicationID string) []ports.PublicationProgress {
	t.Helper()
	rows, err := f.publications.ListProgress(context.Background(), []string{publicationID})
	if err != nil {
		t.Fatalf("ListProgress() error = %v", err)
	}
	return rows
}

func publicFields() publication.PublicFields {
	return publication.PublicFields{
		RoadName:       "Main St",
		IssueSummary:   "Pothole repair",
		IssueType:      "pothole",
		SeverityPublic: "high",
		StatusPublic:   "scheduled",
	}
}

// publishLive creates a report and publishes it, returning the publication id.
func (f *fixture) publishLive(t *testing.T, reportID string) string {
	t.Helper()
	f.seedReport(t, reportID, withStatus(report.StatusApproved))
	id, err := f.svc.PublishReport(context.Background(), officer, PublishInput{ReportID: reportID, Fields: publicFields()})
	if err != nil {
		t.Fatalf("PublishReport() error = %v", err)
	}
	return id
}
