package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roadportal/internal/domain/access"
	"roadportal/internal/domain/gis"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

func TestTransitionToApprovedCreatesIssueMarker(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001", withCoords(14.5995, 120.9842))

	err := f.svc.TransitionReport(ctx, officer, TransitionInput{ReportID: "DR-2026-001", Status: "approved", Notes: "verified on site"})
	if err != nil {
		t.Fatalf("TransitionReport() error = %v", err)
	}

	got, err := f.reports.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.Status != report.StatusApproved || got.LGUNotes != "verified on site" {
		t.Fatalf("report = %s notes=%q", got.Status, got.LGUNotes)
	}
	if got.PublicationStatus != report.PublicationPending {
		t.Fatalf("approval changed publication status to %s", got.PublicationStatus)
	}

	marker, err := f.gis.GetMarkerByReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetMarkerByReport() error = %v", err)
	}
	if marker.MarkerType != gis.MarkerIssue || marker.Status != gis.MarkerActive {
		t.Fatalf("marker = %s/%s", marker.MarkerType, marker.Status)
	}
	if marker.Latitude == nil || *marker.Latitude != 14.5995 {
		t.Fatalf("marker latitude = %v", marker.Latitude)
	}
	if marker.MarkerID != "GM-2026-001" {
		t.Fatalf("marker id = %q", marker.MarkerID)
	}

	_, total, err := f.publications.ListPublications(ctx, ports.ListFilter{})
	if err != nil {
		t.Fatalf("ListPublications() error = %v", err)
	}
	if total != 0 {
		t.Fatalf("approval created %d publications", total)
	}

	if f.unread(t, citizen.UserID) != 1 {
		t.Fatal("reporter was not notified")
	}
	if f.activityCount(t, "damage_report", "DR-2026-001") != 1 {
		t.Fatal("activity not recorded")
	}
	if len(f.cache.Data) == 0 {
		t.Fatal("public feed cache not invalidated")
	}
}

func TestTransitionWithoutCoordinatesOmitsGeometry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001")

	if err := f.svc.TransitionReport(ctx, officer, TransitionInput{ReportID: "DR-2026-001", Status: "approved"}); err != nil {
		t.Fatalf("TransitionReport() error = %v", err)
	}
	marker, err := f.gis.GetMarkerByReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetMarkerByReport() error = %v", err)
	}
	if marker.Latitude != nil || marker.Longitude != nil {
		t.Fatalf("marker coordinates = %v,%v, want none", marker.Latitude, marker.Longitude)
	}
}

func TestTransitionCompletedAndRejectedUpdateMarker(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001", withCoords(14.6, 121.0))
	f.seedReport(t, "DR-2026-002", withCoords(14.7, 121.1))

	steps := []struct {
		id     string
		status report.Status
	}{
		{"DR-2026-001", report.StatusApproved},
		{"DR-2026-001", report.StatusInProgress},
		{"DR-2026-001", report.StatusCompleted},
		{"DR-2026-002", report.StatusApproved},
		{"DR-2026-002", report.StatusRejected},
	}
	for _, step := range steps {
		if err := f.svc.TransitionReport(ctx, officer, TransitionInput{ReportID: step.id, Status: string(step.status)}); err != nil {
			t.Fatalf("TransitionReport(%s -> %s) error = %v", step.id, step.status, err)
		}
	}

	completed, err := f.gis.GetMarkerByReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetMarkerByReport() error = %v", err)
	}
	if completed.MarkerType != gis.MarkerCompleted {
		t.Fatalf("completed marker type = %s", completed.MarkerType)
	}

	rejected, err := f.gis.GetMarkerByReport(ctx, "DR-2026-002")
	if err != nil {
		t.Fatalf("GetMarkerByReport() error = %v", err)
	}
	if rejected.Status != gis.MarkerInactive {
		t.Fatalf("rejected marker status = %s", rejected.Status)
	}
}

func TestApproveCompletedReportIsConflictWithoutWrites(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001", withStatus(report.StatusCompleted))

	err := f.svc.TransitionReport(ctx, officer, TransitionInput{ReportID: "DR-2026-001", Status: "approved"})
	if !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("TransitionReport() error = %v, want state conflict", err)
	}

	got, err := f.reports.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.Status != report.StatusCompleted || !got.UpdatedAt.Equal(fixedNow.Add(-24*time.Hour)) {
		t.Fatalf("report changed: %s at %v", got.Status, got.UpdatedAt)
	}
	if _, err := f.gis.GetMarkerByReport(ctx, "DR-2026-001"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("marker created on conflict: %v", err)
	}
	if f.activityCount(t, "damage_report", "DR-2026-001") != 0 || f.unread(t, citizen.UserID) != 0 {
		t.Fatal("side effects written on conflict")
	}
}

func TestTransitionUnknownAndMalformedIDs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	err := f.svc.TransitionReport(ctx, officer, TransitionInput{ReportID: "DR-2026-999", Status: "approved"})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown id error = %v, want not found", err)
	}
	if errors.Is(err, errs.ErrStateConflict) {
		t.Fatal("not found must not look like a conflict")
	}

	err = f.svc.TransitionReport(ctx, officer, TransitionInput{ReportID: "report-1", Status: "approved"})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("malformed id error = %v, want validation", err)
	}

	f.seedReport(t, "DR-2026-001")
	err = f.svc.TransitionReport(ctx, officer, TransitionInput{ReportID: "DR-2026-001", Status: "done"})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("unknown status error = %v, want validation", err)
	}
}

func TestTransitionAuthorizationComesFirst(t *testing.T) {
	// No repositories at all: the role check must fail before anything is used.
	svc := NewService(Deps{})
	ctx := context.Background()

	err := svc.TransitionReport(ctx, citizen, TransitionInput{ReportID: "DR-2026-001", Status: "approved"})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("citizen error = %v, want forbidden", err)
	}
	err = svc.TransitionReport(ctx, engineer, TransitionInput{ReportID: "DR-2026-001", Status: "approved"})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("engineer error = %v, want forbidden", err)
	}
	err = svc.TransitionReport(ctx, access.Actor{}, TransitionInput{ReportID: "DR-2026-001", Status: "approved"})
	if !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("anonymous error = %v, want unauthenticated", err)
	}
}

func TestConcurrentApprovalHasOneWinner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001", withCoords(14.6, 121.0))

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, actor := range []access.Actor{officer, officer2} {
		wg.Add(1)
		go func(i int, actor access.Actor) {
			defer wg.Done()
			results[i] = f.svc.TransitionReport(ctx, actor, TransitionInput{ReportID: "DR-2026-001", Status: "approved"})
		}(i, actor)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, errs.ErrStateConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error = %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins=%d conflicts=%d, want 1/1", wins, conflicts)
	}

	markers, err := f.gis.ListActiveMarkers(ctx)
	if err != nil {
		t.Fatalf("ListActiveMarkers() error = %v", err)
	}
	if len(markers) != 1 {
		t.Fatalf("markers = %d, want 1", len(markers))
	}
}

func TestAnonymousReportIsNotNotified(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001", anonymous())

	if err := f.svc.TransitionReport(ctx, officer, TransitionInput{ReportID: "DR-2026-001", Status: "under_review"}); err != nil {
		t.Fatalf("TransitionReport() error = %v", err)
	}
	if f.unread(t, citizen.UserID) != 0 {
		t.Fatal("anonymous reporter notified")
	}
	if f.activityCount(t, "damage_report", "DR-2026-001") != 1 {
		t.Fatal("activity not recorded")
	}
}

func TestAssignReport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001")

	if err := f.svc.AssignReport(ctx, officer, "DR-2026-001", officer2.UserID); err != nil {
		t.Fatalf("AssignReport() error = %v", err)
	}
	got, err := f.reports.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.AssignedTo == nil || *got.AssignedTo != officer2.UserID || got.Status != report.StatusPending {
		t.Fatalf("assigned = %v status=%s", got.AssignedTo, got.Status)
	}
	if f.unread(t, officer2.UserID) != 1 {
		t.Fatal("assignee not notified")
	}

	if err := f.svc.AssignReport(ctx, officer, "DR-2026-001", citizen.UserID); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("assign to citizen error = %v, want validation", err)
	}
	if err := f.svc.AssignReport(ctx, officer, "DR-2026-404", officer2.UserID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("assign unknown report error = %v, want not found", err)
	}
}

func TestDeclinePendingReport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedReport(t, "DR-2026-001")

	if err := f.svc.DeclinePendingReport(ctx, officer, "DR-2026-001", " "); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("empty reason error = %v, want validation", err)
	}
	if err := f.svc.DeclinePendingReport(ctx, officer, "DR-2026-001", "duplicate of DR-2026-000"); err != nil {
		t.Fatalf("DeclinePendingReport() error = %v", err)
	}
	got, err := f.reports.GetReport(ctx, "DR-2026-001")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.PublicationStatus != report.PublicationDeclined {
		t.Fatalf("publication status = %s", got.PublicationStatus)
	}
	if err := f.svc.DeclinePendingReport(ctx, officer, "DR-2026-001", "again"); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("second decline error = %v, want conflict", err)
	}
	if err := f.svc.DeclinePendingReport(ctx, officer, "DR-2026-404", "x"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown report error = %v, want not found", err)
	}
}
