package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	"roadportal/internal/domain/gis"
	"roadportal/internal/domain/identity"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
	"roadportal/internal/usecase/idgen"
	"roadportal/internal/usecase/notifications"
)

type TransitionInput struct {
	ReportID string
	Status   string
	Notes    string
}

// TransitionReport moves a report along the status machine and applies the
// marker side effects of the target status.
func (s *Service) TransitionReport(ctx context.Context, actor access.Actor, input TransitionInput) error {
	logCtx, err := s.begin(ctx, actor, "transition report", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return err
	}
	if s.reports == nil || s.gis == nil || s.sequences == nil {
		return errors.New("report, gis and sequence repositories are required")
	}

	reportID, err := parseReportID(input.ReportID)
	if err != nil {
		return err
	}
	target, err := report.ParseStatus(input.Status)
	if err != nil {
		return err
	}
	notes := strings.TrimSpace(input.Notes)

	var from report.Status
	markerTouched := false
	err = idgen.Retry(logCtx, func(ctx context.Context) error {
		at := s.clock()
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			current, err := s.reports.GetReport(txCtx, reportID)
			if err != nil {
				return errs.Wrap(err, "load damage report")
			}
			if err := report.CheckTransition(current.Status, target); err != nil {
				return err
			}

			updated, err := s.reports.UpdateReportStatus(txCtx, reportID, ports.ReportStatusChange{
				From:  current.Status,
				To:    target,
				Notes: notes,
				At:    at,
			})
			if err != nil {
				return err
			}
			if !updated {
				return s.reportConflict(txCtx, reportID)
			}
			from = current.Status

			touched, err := s.applyMarkerEffects(txCtx, actor, current, target, at)
			if err != nil {
				return err
			}
			markerTouched = touched

			details := fmt.Sprintf("%s -> %s", current.Status, target)
			if notes != "" {
				details += ": " + notes
			}
			if err := s.record(txCtx, actor, "report_"+string(target), "damage_report", reportID, details, at); err != nil {
				return err
			}

			if current.Anonymous || current.ReporterID == nil {
				return nil
			}
			body := fmt.Sprintf("Your report %s is now %s.", reportID, statusLabel(target))
			if notes != "" {
				body += " Notes: " + notes
			}
			return s.notify(txCtx, []string{*current.ReporterID}, notifications.Message{
				Type:      notifications.TypeReportStatus,
				Title:     "Report " + statusLabel(target),
				Body:      body,
				RelatedID: reportID,
			}, at)
		})
	})
	if err != nil {
		logFailure(logCtx, "transition report failed", err)
		return errs.Wrap(err, "transition report")
	}

	if markerTouched {
		s.invalidateFeed(logCtx)
	}
	logging.Info(
		logCtx,
		"report transitioned",
		slog.String("report_id", reportID),
		slog.String("from", string(from)),
		slog.String("to", string(target)),
	)
	return nil
}

// applyMarkerEffects keeps the public map in step with the report: approval
// adds an issue marker, completion flips it, rejection hides it.
func (s *Service) applyMarkerEffects(ctx context.Context, actor access.Actor, current ports.DamageReport, target report.Status, at time.Time) (bool, error) {
	switch target {
	case report.StatusApproved:
		markerID, err := idgen.Next(ctx, s.sequences, idgen.SeqGISMarker, at)
		if err != nil {
			return false, err
		}
		reportID := current.ReportID
		if err := s.gis.CreateMarker(ctx, ports.GISMarker{
			MarkerID:       markerID,
			MarkerType:     gis.MarkerIssue,
			Title:          fmt.Sprintf("%s: %s", damageLabel(current.DamageType), current.Location),
			Description:    current.Description,
			Latitude:       current.Latitude,
			Longitude:      current.Longitude,
			Severity:       string(current.Severity),
			Status:         gis.MarkerActive,
			DamageReportID: &reportID,
			CreatedBy:      actor.UserID,
			CreatedAt:      at,
			UpdatedAt:      at,
		}); err != nil {
			return false, errs.Wrap(err, "create issue marker")
		}
		return true, nil
	case report.StatusCompleted:
		completed := gis.MarkerCompleted
		n, err := s.gis.UpdateReportMarkers(ctx, current.ReportID, ports.MarkerPatch{MarkerType: &completed, At: at})
		if err != nil {
			return false, errs.Wrap(err, "complete report marker")
		}
		return n > 0, nil
	case report.StatusRejected:
		inactive := gis.MarkerInactive
		n, err := s.gis.UpdateReportMarkers(ctx, current.ReportID, ports.MarkerPatch{Status: &inactive, At: at})
		if err != nil {
			return false, errs.Wrap(err, "deactivate report marker")
		}
		return n > 0, nil
	default:
		return false, nil
	}
}

// AssignReport records the officer responsible for a report. Status is left
// unchanged.
func (s *Service) AssignReport(ctx context.Context, actor access.Actor, reportID string, officerID string) error {
	logCtx, err := s.begin(ctx, actor, "assign report", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return err
	}
	if s.reports == nil || s.users == nil {
		return errors.New("report and user repositories are required")
	}

	reportID, err = parseReportID(reportID)
	if err != nil {
		return err
	}
	officerID = strings.TrimSpace(officerID)
	if officerID == "" {
		return errs.Validationf("officer_id is required")
	}

	at := s.clock()
	err = s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		officer, err := s.users.GetUser(txCtx, officerID)
		if err != nil {
			if errors.Is(err, ports.ErrUserNotFound) {
				return errs.Validationf("officer %s does not exist", officerID)
			}
			return errs.Wrap(err, "load assignee")
		}
		if !officer.Active || (officer.Role != access.RoleLGUOfficer && officer.Role != access.RoleAdmin) {
			return errs.Validationf("user %s cannot be assigned reports", officerID)
		}

		current, err := s.reports.GetReport(txCtx, reportID)
		if err != nil {
			return errs.Wrap(err, "load damage report")
		}
		if err := s.reports.AssignReport(txCtx, reportID, officerID, at); err != nil {
			return err
		}
		if err := s.record(txCtx, actor, "report_assigned", "damage_report", reportID, "assigned to "+officerID, at); err != nil {
			return err
		}
		return s.notify(txCtx, []string{officerID}, notifications.Message{
			Type:      notifications.TypeReportAssigned,
			Title:     "Report assigned to you",
			Body:      fmt.Sprintf("%s at %s, %s (%s severity) is assigned to you.", reportID, current.Location, current.Barangay, current.Severity),
			RelatedID: reportID,
		}, at)
	})
	if err != nil {
		logFailure(logCtx, "assign report failed", err)
		return errs.Wrap(err, "assign report")
	}

	logging.Info(logCtx, "report assigned", slog.String("report_id", reportID), slog.String("officer_id", officerID))
	return nil
}

// DeclinePendingReport marks a report as not to be published.
func (s *Service) DeclinePendingReport(ctx context.Context, actor access.Actor, reportID string, reason string) error {
	logCtx, err := s.begin(ctx, actor, "decline report publication", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return err
	}
	if s.reports == nil {
		return errors.New("report repository is required")
	}

	reportID, err = parseReportID(reportID)
	if err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.Validationf("reason is required")
	}

	at := s.clock()
	err = s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		updated, err := s.reports.UpdatePublicationStatus(txCtx, reportID, report.PublicationPending, report.PublicationDeclined, reason, at)
		if err != nil {
			return err
		}
		if !updated {
			current, err := s.reports.GetReport(txCtx, reportID)
			if err != nil {
				return errs.Wrap(err, "load damage report")
			}
			return errs.Conflictf("report publication is already %s", current.PublicationStatus)
		}
		return s.record(txCtx, actor, "report_publication_declined", "damage_report", reportID, reason, at)
	})
	if err != nil {
		logFailure(logCtx, "decline report publication failed", err)
		return errs.Wrap(err, "decline report publication")
	}

	logging.Info(logCtx, "report publication declined", slog.String("report_id", reportID))
	return nil
}

// reportConflict explains a conditional update that matched no row.
func (s *Service) reportConflict(ctx context.Context, reportID string) error {
	current, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		return errs.Wrap(err, "reload damage report")
	}
	return errs.Conflictf("report %s was already moved to %s", reportID, current.Status)
}

func parseReportID(raw string) (string, error) {
	id, err := identity.ParseWithPrefix(raw, identity.PrefixDamageReport)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func statusLabel(status report.Status) string {
	return strings.ReplaceAll(string(status), "_", " ")
}

func damageLabel(t report.DamageType) string {
	label := strings.ReplaceAll(string(t), "_", " ")
	if label == "" {
		return "Damage"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
