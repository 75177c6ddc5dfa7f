package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"roadportal/internal/domain/access"
	"roadportal/internal/domain/publication"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	"roadportal/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "repo.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newReport(id string, severity report.Severity, location string, at time.Time) ports.DamageReport {
	return ports.DamageReport{
		ReportID:          id,
		Location:          location,
		Barangay:          "Brgy 1",
		DamageType:        report.DamagePothole,
		Severity:          severity,
		Description:       "Large pothole",
		Anonymous:         true,
		Status:            report.StatusPending,
		PublicationStatus: report.PublicationPending,
		ReportedAt:        at,
		UpdatedAt:         at,
	}
}

func TestSequenceNextValueIncrementsPerYear(t *testing.T) {
	repo := NewSequenceRepository(setupDB(t))
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextValue(ctx, "damage_report", 2026)
		if err != nil {
			t.Fatalf("NextValue() error = %v", err)
		}
		if got != want {
			t.Fatalf("NextValue() = %d, want %d", got, want)
		}
	}

	got, err := repo.NextValue(ctx, "damage_report", 2027)
	if err != nil {
		t.Fatalf("NextValue(2027) error = %v", err)
	}
	if got != 1 {
		t.Fatalf("NextValue(2027) = %d, want 1", got)
	}

	got, err = repo.NextValue(ctx, "publication", 2026)
	if err != nil {
		t.Fatalf("NextValue(publication) error = %v", err)
	}
	if got != 1 {
		t.Fatalf("NextValue(publication) = %d, want 1", got)
	}
}

func TestReportCreateGetAndConditionalStatus(t *testing.T) {
	repo := NewReportRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	row := newReport("DR-2026-001", report.SeverityHigh, "Main St", now)
	row.Images = []string{"DR-2026-001_0_1.jpg", "DR-2026-001_1_1.png"}
	if err := repo.CreateReport(ctx, row); err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}

	if err := repo.CreateReport(ctx, row); !errors.Is(err, ports.ErrDuplicateKey) {
		t.Fatalf("CreateReport(duplicate) error = %v, want ErrDuplicateKey", err)
	}

	got, err := repo.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if len(got.Images) != 2 || got.Images[0] != "DR-2026-001_0_1.jpg" {
		t.Fatalf("GetReport() images = %v", got.Images)
	}
	if got.Status != report.StatusPending || got.PublicationStatus != report.PublicationPending {
		t.Fatalf("GetReport() status = %s/%s", got.Status, got.PublicationStatus)
	}

	if _, err := repo.GetReport(ctx, "DR-2026-999"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("GetReport(missing) error = %v, want ErrNotFound", err)
	}

	updated, err := repo.UpdateReportStatus(ctx, "DR-2026-001", ports.ReportStatusChange{
		From:  report.StatusPending,
		To:    report.StatusApproved,
		Notes: "looks valid",
		At:    now.Add(time.Hour),
	})
	if err != nil || !updated {
		t.Fatalf("UpdateReportStatus() = %v, %v", updated, err)
	}

	updated, err = repo.UpdateReportStatus(ctx, "DR-2026-001", ports.ReportStatusChange{
		From: report.StatusPending,
		To:   report.StatusRejected,
		At:   now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("UpdateReportStatus(stale) error = %v", err)
	}
	if updated {
		t.Fatal("UpdateReportStatus(stale) updated = true, want false")
	}

	got, err = repo.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.Status != report.StatusApproved || got.LGUNotes != "looks valid" {
		t.Fatalf("GetReport() after update = %s %q", got.Status, got.LGUNotes)
	}
}

func TestCreateReportWithoutImagesStoresEmptyList(t *testing.T) {
	repo := NewReportRepository(setupDB(t))
	ctx := context.Background()

	if err := repo.CreateReport(ctx, newReport("DR-2026-001", report.SeverityLow, "Main St", time.Now())); err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	got, err := repo.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.Images == nil || len(got.Images) != 0 {
		t.Fatalf("GetReport() images = %#v, want empty list", got.Images)
	}
}

func TestListReportsFiltersSortsAndCounts(t *testing.T) {
	repo := NewReportRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	rows := []ports.DamageReport{
		newReport("DR-2026-001", report.SeverityLow, "Main St", base),
		newReport("DR-2026-002", report.SeverityCritical, "Rizal Ave", base.Add(time.Hour)),
		newReport("DR-2026-003", report.SeverityHigh, "Main St corner 5th", base.Add(2*time.Hour)),
		newReport("DR-2026-004", report.SeverityMedium, "100%_Road", base.Add(3*time.Hour)),
	}
	for _, row := range rows {
		if err := repo.CreateReport(ctx, row); err != nil {
			t.Fatalf("CreateReport(%s) error = %v", row.ReportID, err)
		}
	}

	items, total, err := repo.ListReports(ctx, ports.ListFilter{Sort: ports.SortNewest, Limit: 2})
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if total != 4 || len(items) != 2 || items[0].ReportID != "DR-2026-004" {
		t.Fatalf("ListReports(newest) total=%d items=%v", total, reportIDs(items))
	}

	items, total, err = repo.ListReports(ctx, ports.ListFilter{Search: "main", Sort: ports.SortOldest})
	if err != nil {
		t.Fatalf("ListReports(search) error = %v", err)
	}
	if total != 2 || reportIDs(items)[0] != "DR-2026-001" {
		t.Fatalf("ListReports(search) total=%d items=%v", total, reportIDs(items))
	}

	items, _, err = repo.ListReports(ctx, ports.ListFilter{Sort: ports.SortSeverityDesc})
	if err != nil {
		t.Fatalf("ListReports(severity) error = %v", err)
	}
	got := reportIDs(items)
	want := []string{"DR-2026-002", "DR-2026-003", "DR-2026-004", "DR-2026-001"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListReports(severity_desc) = %v, want %v", got, want)
		}
	}

	items, total, err = repo.ListReports(ctx, ports.ListFilter{Severity: "critical", Status: "pending"})
	if err != nil {
		t.Fatalf("ListReports(filter) error = %v", err)
	}
	if total != 1 || items[0].ReportID != "DR-2026-002" {
		t.Fatalf("ListReports(filter) total=%d items=%v", total, reportIDs(items))
	}

	_, total, err = repo.ListReports(ctx, ports.ListFilter{Search: "%_"})
	if err != nil {
		t.Fatalf("ListReports(wildcards) error = %v", err)
	}
	if total != 1 {
		t.Fatalf("ListReports(wildcards) total = %d, want 1", total)
	}
}

func TestPublicationConditionalUpdateAndPublishedList(t *testing.T) {
	repo := NewPublicationRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	for _, id := range []string{"PUB-2026-002", "PUB-2026-001"} {
		if err := repo.CreatePublication(ctx, ports.Publication{
			PublicationID:  id,
			RoadName:       "Main St",
			IssueSummary:   "Pothole",
			SeverityPublic: report.SeverityHigh,
			StatusPublic:   publication.PublicReported,
			ApprovalStatus: publication.ApprovalPending,
			CreatedBy:      "engineer-1",
			LastUpdated:    now,
		}); err != nil {
			t.Fatalf("CreatePublication(%s) error = %v", id, err)
		}
	}

	pending := publication.ApprovalPending
	approved := publication.ApprovalApproved
	published := true
	for _, id := range []string{"PUB-2026-001", "PUB-2026-002"} {
		ok, err := repo.UpdatePublication(ctx, id,
			ports.PublicationExpect{ApprovalStatus: &pending},
			ports.PublicationPatch{ApprovalStatus: &approved, IsPublished: &published, LastUpdated: now},
		)
		if err != nil || !ok {
			t.Fatalf("UpdatePublication(%s) = %v, %v", id, ok, err)
		}
	}

	ok, err := repo.UpdatePublication(ctx, "PUB-2026-001",
		ports.PublicationExpect{ApprovalStatus: &pending},
		ports.PublicationPatch{ApprovalStatus: &approved, LastUpdated: now},
	)
	if err != nil {
		t.Fatalf("UpdatePublication(stale) error = %v", err)
	}
	if ok {
		t.Fatal("UpdatePublication(stale) = true, want false")
	}

	archived := true
	unpublished := false
	if ok, err := repo.UpdatePublication(ctx, "PUB-2026-002",
		ports.PublicationExpect{IsPublished: &published},
		ports.PublicationPatch{Archived: &archived, IsPublished: &unpublished, LastUpdated: now},
	); err != nil || !ok {
		t.Fatalf("UpdatePublication(archive) = %v, %v", ok, err)
	}

	items, err := repo.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished() error = %v", err)
	}
	if len(items) != 1 || items[0].PublicationID != "PUB-2026-001" {
		t.Fatalf("ListPublished() = %#v", items)
	}

	if err := repo.AppendProgress(ctx, ports.PublicationProgress{PublicationID: "PUB-2026-001", Status: "published", UpdatedBy: "officer-1", CreatedAt: now}); err != nil {
		t.Fatalf("AppendProgress() error = %v", err)
	}
	progress, err := repo.ListProgress(ctx, []string{"PUB-2026-001", "PUB-2026-002"})
	if err != nil {
		t.Fatalf("ListProgress() error = %v", err)
	}
	if len(progress) != 1 || progress[0].Status != "published" {
		t.Fatalf("ListProgress() = %#v", progress)
	}
}

func TestNotificationsAreUserScopedAndOrdered(t *testing.T) {
	repo := NewNotificationRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	for i, userID := range []string{"u1", "u2", "u1", "u1"} {
		if err := repo.CreateNotification(ctx, ports.Notification{
			UserID:    userID,
			Type:      "report_status",
			Title:     "Report updated",
			Message:   "status changed",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("CreateNotification() error = %v", err)
		}
	}

	items, err := repo.ListNotifications(ctx, "u1", false, 0)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(items) != 3 || !items[0].CreatedAt.After(items[1].CreatedAt) {
		t.Fatalf("ListNotifications() = %#v", items)
	}

	ok, err := repo.MarkRead(ctx, "u2", items[0].ID)
	if err != nil {
		t.Fatalf("MarkRead(other user) error = %v", err)
	}
	if ok {
		t.Fatal("MarkRead(other user) = true, want false")
	}

	if ok, err := repo.MarkRead(ctx, "u1", items[0].ID); err != nil || !ok {
		t.Fatalf("MarkRead() = %v, %v", ok, err)
	}
	count, err := repo.CountUnread(ctx, "u1")
	if err != nil || count != 2 {
		t.Fatalf("CountUnread() = %d, %v", count, err)
	}

	changed, err := repo.MarkAllRead(ctx, "u1")
	if err != nil || changed != 2 {
		t.Fatalf("MarkAllRead() = %d, %v", changed, err)
	}
	count, err = repo.CountUnread(ctx, "u2")
	if err != nil || count != 1 {
		t.Fatalf("CountUnread(u2) = %d, %v", count, err)
	}
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now()

	users := []ports.User{
		{UserID: "a", Username: "officer", Role: access.RoleLGUOfficer, PasswordHash: "x", Active: true, CreatedAt: now},
		{UserID: "b", Username: "admin", Role: access.RoleAdmin, PasswordHash: "x", Active: true, CreatedAt: now},
		{UserID: "c", Username: "retired", Role: access.RoleLGUOfficer, PasswordHash: "x", Active: false, CreatedAt: now},
		{UserID: "d", Username: "citizen", Role: access.RoleCitizen, PasswordHash: "x", Active: true, CreatedAt: now},
	}
	for _, user := range users {
		if err := repo.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", user.Username, err)
		}
	}

	if err := repo.CreateUser(ctx, ports.User{UserID: "e", Username: "officer", Role: access.RoleCitizen, PasswordHash: "x", CreatedAt: now}); !errors.Is(err, ports.ErrDuplicateKey) {
		t.Fatalf("CreateUser(duplicate username) error = %v, want ErrDuplicateKey", err)
	}

	retired, err := repo.GetUserByUsername(ctx, "retired")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if retired.Active {
		t.Fatal("GetUserByUsername(retired).Active = true, want false")
	}

	ids, err := repo.ListActiveUserIDs(ctx, access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		t.Fatalf("ListActiveUserIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("ListActiveUserIDs() = %v", ids)
	}

	if err := repo.SetRole(ctx, "missing", access.RoleAdmin); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("SetRole(missing) error = %v, want ErrNotFound", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.GrantPermission(ctx, "a", "publications.archive"); err != nil {
			t.Fatalf("GrantPermission() error = %v", err)
		}
	}
	permissions, err := repo.ListPermissions(ctx, "a")
	if err != nil || len(permissions) != 1 {
		t.Fatalf("ListPermissions() = %v, %v", permissions, err)
	}
}

func reportIDs(items []ports.DamageReport) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ReportID)
	}
	return ids
}

func TestUpdatePublicationStatusAppendsNotes(t *testing.T) {
	repo := NewReportRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	if err := repo.CreateReport(ctx, newReport("DR-2026-001", report.SeverityHigh, "Main St", now)); err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	if err := repo.CreateReport(ctx, newReport("DR-2026-002", report.SeverityLow, "Side St", now)); err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	if _, err := repo.UpdateReportStatus(ctx, "DR-2026-001", ports.ReportStatusChange{
		From:  report.StatusPending,
		To:    report.StatusApproved,
		Notes: "crew dispatched",
		At:    now,
	}); err != nil {
		t.Fatalf("UpdateReportStatus() error = %v", err)
	}

	updated, err := repo.UpdatePublicationStatus(ctx, "DR-2026-001", report.PublicationPending, report.PublicationDeclined, "duplicate of DR-2026-000", now.Add(time.Hour))
	if err != nil || !updated {
		t.Fatalf("UpdatePublicationStatus() = %v, %v", updated, err)
	}
	got, err := repo.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.LGUNotes != "crew dispatched\nduplicate of DR-2026-000" {
		t.Fatalf("LGUNotes = %q", got.LGUNotes)
	}

	if _, err := repo.UpdatePublicationStatus(ctx, "DR-2026-002", report.PublicationPending, report.PublicationDeclined, "not public", now); err != nil {
		t.Fatalf("UpdatePublicationStatus(no notes) error = %v", err)
	}
	got, err = repo.GetReport(ctx, "DR-2026-002")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.LGUNotes != "not public" {
		t.Fatalf("LGUNotes = %q, want the reason alone", got.LGUNotes)
	}
}
