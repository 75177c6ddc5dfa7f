package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"roadportal/internal/domain/access"
	"roadportal/internal/domain/publication"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

func TestPublishReportWithEmptySeverityWritesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001", withStatus(report.StatusApproved))

	fields := publicFields()
	fields.SeverityPublic = ""
	_, err := f.svc.PublishReport(ctx, officer, PublishInput{ReportID: "DR-2026-001", Fields: fields})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("PublishReport() error = %v, want validation", err)
	}

	_, total, err := f.publications.ListPublications(ctx, ports.ListFilter{})
	if err != nil {
		t.Fatalf("ListPublications() error = %v", err)
	}
	if total != 0 {
		t.Fatalf("publications = %d, want 0", total)
	}
	got, err := f.reports.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.PublicationStatus != report.PublicationPending {
		t.Fatalf("publication status = %s", got.PublicationStatus)
	}
}

func TestPublishReportCreatesLivePublication(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	id := f.publishLive(t, "DR-2026-001")
	if id != "PUB-2026-001" {
		t.Fatalf("publication id = %q", id)
	}

	pub, err := f.publications.GetPublication(ctx, id)
	if err != nil {
		t.Fatalf("GetPublication() error = %v", err)
	}
	if pub.ApprovalStatus != publication.ApprovalApproved || !pub.IsPublished || pub.Archived {
		t.Fatalf("publication state = %s published=%v archived=%v", pub.ApprovalStatus, pub.IsPublished, pub.Archived)
	}
	if pub.DamageReportID == nil || *pub.DamageReportID != "DR-2026-001" {
		t.Fatalf("linked report = %v", pub.DamageReportID)
	}
	if pub.DateReported == nil {
		t.Fatal("date reported not copied from report")
	}

	rpt, err := f.reports.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if rpt.PublicationStatus != report.PublicationPublished {
		t.Fatalf("report publication status = %s", rpt.PublicationStatus)
	}

	entries := f.progress(t, id)
	if len(entries) != 1 || entries[0].Status != "published" {
		t.Fatalf("progress = %+v", entries)
	}

	_, err = f.svc.PublishReport(ctx, officer, PublishInput{ReportID: "DR-2026-001", Fields: publicFields()})
	if !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("second publish error = %v, want conflict", err)
	}
}

func TestPublishReportRequiresReviewedReport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001")

	_, err := f.svc.PublishReport(ctx, officer, PublishInput{ReportID: "DR-2026-001", Fields: publicFields()})
	if !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("PublishReport(pending) error = %v, want conflict", err)
	}
	_, err = f.svc.PublishReport(ctx, engineer, PublishInput{ReportID: "DR-2026-001", Fields: publicFields()})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("PublishReport(engineer) error = %v, want forbidden", err)
	}
}

func TestProposalApprovalFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	id, err := f.svc.ProposePublication(ctx, engineer, ProposeInput{Fields: publicFields()})
	if err != nil {
		t.Fatalf("ProposePublication() error = %v", err)
	}
	if f.unread(t, officer.UserID) != 1 || f.unread(t, officer2.UserID) != 1 {
		t.Fatal("officers not notified of proposal")
	}

	pub, err := f.publications.GetPublication(ctx, id)
	if err != nil {
		t.Fatalf("GetPublication() error = %v", err)
	}
	if pub.ApprovalStatus != publication.ApprovalPending || pub.IsPublished || pub.CreatedBy != engineer.UserID {
		t.Fatalf("proposal = %+v", pub)
	}

	if err := f.svc.ApprovePublication(ctx, officer, id, ""); err != nil {
		t.Fatalf("ApprovePublication() error = %v", err)
	}
	pub, err = f.publications.GetPublication(ctx, id)
	if err != nil {
		t.Fatalf("GetPublication() error = %v", err)
	}
	if pub.ApprovalStatus != publication.ApprovalApproved || !pub.IsPublished {
		t.Fatalf("approved publication = %s published=%v", pub.ApprovalStatus, pub.IsPublished)
	}
	last := f.progress(t, id)
	if last[len(last)-1].Status != "published" {
		t.Fatalf("last progress = %+v", last[len(last)-1])
	}
	if f.unread(t, engineer.UserID) != 1 {
		t.Fatal("author not notified of approval")
	}

	if err := f.svc.ApprovePublication(ctx, officer2, id, ""); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("second approval error = %v, want conflict", err)
	}
	if err := f.svc.ApprovePublication(ctx, officer, "PUB-2026-404", ""); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown approval error = %v, want not found", err)
	}
}

func TestLinkedProposalPublishesReportOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001", withStatus(report.StatusApproved))
	f.seedReport(t, "DR-2026-002")

	if _, err := f.svc.ProposePublication(ctx, engineer, ProposeInput{ReportID: "DR-2026-002", Fields: publicFields()}); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("ProposePublication(unreviewed) error = %v, want conflict", err)
	}

	first, err := f.svc.ProposePublication(ctx, engineer, ProposeInput{ReportID: "DR-2026-001", Fields: publicFields()})
	if err != nil {
		t.Fatalf("ProposePublication() error = %v", err)
	}
	second, err := f.svc.ProposePublication(ctx, engineer, ProposeInput{ReportID: "DR-2026-001", Fields: publicFields()})
	if err != nil {
		t.Fatalf("ProposePublication(second) error = %v", err)
	}

	if err := f.svc.ApprovePublication(ctx, officer, first, ""); err != nil {
		t.Fatalf("ApprovePublication() error = %v", err)
	}
	got, err := f.reports.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.PublicationStatus != report.PublicationPublished {
		t.Fatalf("publication status = %s, want published", got.PublicationStatus)
	}

	if _, err := f.svc.PublishReport(ctx, officer, PublishInput{ReportID: "DR-2026-001", Fields: publicFields()}); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("PublishReport() after approval error = %v, want conflict", err)
	}
	if err := f.svc.ApprovePublication(ctx, officer, second, ""); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("ApprovePublication(second) error = %v, want conflict", err)
	}
	pub, err := f.publications.GetPublication(ctx, second)
	if err != nil {
		t.Fatalf("GetPublication() error = %v", err)
	}
	if pub.ApprovalStatus != publication.ApprovalPending || pub.IsPublished {
		t.Fatalf("second proposal = %s published=%v, want untouched", pub.ApprovalStatus, pub.IsPublished)
	}
	if _, err := f.svc.ProposePublication(ctx, engineer, ProposeInput{ReportID: "DR-2026-001", Fields: publicFields()}); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("ProposePublication(published) error = %v, want conflict", err)
	}
}

func TestRejectAndRevisionRequireReason(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	id, err := f.svc.ProposePublication(ctx, engineer, ProposeInput{Fields: publicFields()})
	if err != nil {
		t.Fatalf("ProposePublication() error = %v", err)
	}

	if err := f.svc.RejectPublication(ctx, officer, id, ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("RejectPublication(no reason) error = %v, want validation", err)
	}
	if err := f.svc.RequestRevision(ctx, officer, id, "  "); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("RequestRevision(no reason) error = %v, want validation", err)
	}

	if err := f.svc.RejectPublication(ctx, officer, id, "duplicate announcement"); err != nil {
		t.Fatalf("RejectPublication() error = %v", err)
	}
	pub, err := f.publications.GetPublication(ctx, id)
	if err != nil {
		t.Fatalf("GetPublication() error = %v", err)
	}
	if pub.ApprovalStatus != publication.ApprovalRejected || pub.IsPublished || pub.ReviewNotes != "duplicate announcement" {
		t.Fatalf("rejected publication = %+v", pub)
	}
	entries := f.progress(t, id)
	if entries[len(entries)-1].Notes != "duplicate announcement" {
		t.Fatalf("progress notes = %q", entries[len(entries)-1].Notes)
	}

	items, err := f.notifications.ListNotifications(ctx, engineer.UserID, true, 10)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(items) != 1 || items[0].Type != "publication_rejected" {
		t.Fatalf("author notifications = %+v", items)
	}

	if err := f.svc.RequestRevision(ctx, officer, id, "more detail"); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("revision after rejection error = %v, want conflict", err)
	}
}

func TestResubmitOnlyByAuthor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	otherEngineer := access.Actor{UserID: "engineer-2", Role: access.RoleEngineer}

	id, err := f.svc.ProposePublication(ctx, engineer, ProposeInput{Fields: publicFields()})
	if err != nil {
		t.Fatalf("ProposePublication() error = %v", err)
	}

	edited := publicFields()
	edited.IssueSummary = "Pothole repair, two lanes"
	err = f.svc.ResubmitPublication(ctx, engineer, ResubmitInput{PublicationID: id, Fields: edited})
	if !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("resubmit while pending error = %v, want conflict", err)
	}

	if err := f.svc.RequestRevision(ctx, officer, id, "add lane count"); err != nil {
		t.Fatalf("RequestRevision() error = %v", err)
	}

	err = f.svc.ResubmitPublication(ctx, otherEngineer, ResubmitInput{PublicationID: id, Fields: edited})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("resubmit by other error = %v, want forbidden", err)
	}
	err = f.svc.ResubmitPublication(ctx, officer, ResubmitInput{PublicationID: id, Fields: edited})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("resubmit by officer error = %v, want forbidden", err)
	}

	if err := f.svc.ResubmitPublication(ctx, engineer, ResubmitInput{PublicationID: id, Fields: edited}); err != nil {
		t.Fatalf("ResubmitPublication() error = %v", err)
	}
	pub, err := f.publications.GetPublication(ctx, id)
	if err != nil {
		t.Fatalf("GetPublication() error = %v", err)
	}
	if pub.ApprovalStatus != publication.ApprovalPending || pub.IssueSummary != edited.IssueSummary || pub.ReviewNotes != "" {
		t.Fatalf("resubmitted publication = %+v", pub)
	}
}

func TestArchivePublication(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pending, err := f.svc.ProposePublication(ctx, engineer, ProposeInput{Fields: publicFields()})
	if err != nil {
		t.Fatalf("ProposePublication() error = %v", err)
	}
	if err := f.svc.ArchivePublication(ctx, officer, pending, "Information outdated"); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("archive pending error = %v, want conflict", err)
	}

	id := f.publishLive(t, "DR-2026-001")
	progressBefore := len(f.progress(t, id))
	unreadBefore := f.unread(t, citizen.UserID) + f.unread(t, engineer.UserID)

	if err := f.svc.ArchivePublication(ctx, officer, id, "Not a reason"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("archive bad reason error = %v, want validation", err)
	}
	if err := f.svc.ArchivePublication(ctx, officer, id, "Information outdated"); err != nil {
		t.Fatalf("ArchivePublication() error = %v", err)
	}

	pub, err := f.publications.GetPublication(ctx, id)
	if err != nil {
		t.Fatalf("GetPublication() error = %v", err)
	}
	if !pub.Archived || pub.IsPublished || pub.ArchiveReason != "Information outdated" {
		t.Fatalf("archived publication = %+v", pub)
	}
	if got := len(f.progress(t, id)); got != progressBefore {
		t.Fatalf("progress entries = %d, want %d", got, progressBefore)
	}
	if got := f.unread(t, citizen.UserID) + f.unread(t, engineer.UserID); got != unreadBefore {
		t.Fatalf("archive sent notifications: %d -> %d", unreadBefore, got)
	}

	if err := f.svc.ArchivePublication(ctx, officer, id, "Other"); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("second archive error = %v, want conflict", err)
	}
	if err := f.svc.UpdatePublication(ctx, officer, UpdateInput{PublicationID: id, StatusPublic: "completed"}); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("update archived error = %v, want conflict", err)
	}
}

func TestArchiveByEngineerNeedsPermission(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.publishLive(t, "DR-2026-001")

	if err := f.svc.ArchivePublication(ctx, engineer, id, "Other"); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("archive without grant error = %v, want forbidden", err)
	}
	if err := f.users.GrantPermission(ctx, engineer.UserID, access.PermArchivePublications); err != nil {
		t.Fatalf("GrantPermission() error = %v", err)
	}
	if err := f.svc.ArchivePublication(ctx, engineer, id, "Other"); err != nil {
		t.Fatalf("archive with grant error = %v", err)
	}
	if err := f.svc.ArchivePublication(ctx, citizen, id, "Other"); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("archive by citizen error = %v, want forbidden", err)
	}
}

func TestUpdatePublicationRecomputesDuration(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.publishLive(t, "DR-2026-001")

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	if err := f.svc.UpdatePublication(ctx, officer, UpdateInput{PublicationID: id, StatusPublic: "under_repair", RepairStartDate: &start}); err != nil {
		t.Fatalf("UpdatePublication(start) error = %v", err)
	}
	pub, err := f.publications.GetPublication(ctx, id)
	if err != nil {
		t.Fatalf("GetPublication() error = %v", err)
	}
	if pub.StatusPublic != publication.PublicUnderRepair || pub.RepairDurationDays != nil {
		t.Fatalf("after start: status=%s duration=%v", pub.StatusPublic, pub.RepairDurationDays)
	}

	done := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	if err := f.svc.UpdatePublication(ctx, officer, UpdateInput{PublicationID: id, StatusPublic: "completed", CompletionDate: &done, Notes: "lane reopened"}); err != nil {
		t.Fatalf("UpdatePublication(done) error = %v", err)
	}
	pub, err = f.publications.GetPublication(ctx, id)
	if err != nil {
		t.Fatalf("GetPublication() error = %v", err)
	}
	if pub.RepairDurationDays == nil || *pub.RepairDurationDays != 10 {
		t.Fatalf("duration = %v, want 10", pub.RepairDurationDays)
	}
	entries := f.progress(t, id)
	if last := entries[len(entries)-1]; last.Status != "completed" || last.Notes != "lane reopened" {
		t.Fatalf("last progress = %+v", last)
	}

	early := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if err := f.svc.UpdatePublication(ctx, officer, UpdateInput{PublicationID: id, CompletionDate: &early}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("completion before start error = %v, want validation", err)
	}
	if err := f.svc.UpdatePublication(ctx, officer, UpdateInput{PublicationID: id}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("empty update error = %v, want validation", err)
	}
}
