package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	"roadportal/internal/domain/report"
	"roadportal/internal/domain/upload"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
	"roadportal/internal/usecase/idgen"
	"roadportal/internal/usecase/notifications"
)

// Submit validates the form, stores the photos and persists the report. Field
// validation runs before any file is written.
func (s *Service) Submit(ctx context.Context, actor access.Actor, fields report.Fields, parts []FilePart) (SubmitResult, error) {
	if ctx == nil {
		return SubmitResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, errs.Wrap(err, "check context")
	}
	if err := s.requireWriteDeps(); err != nil {
		return SubmitResult{}, err
	}

	normalized, err := report.NormalizeFields(fields)
	if err != nil {
		return SubmitResult{}, err
	}

	uploaded, err := s.Ingest(ctx, UploadOwner(actor), upload.SubdirReports, parts)
	if err != nil {
		return SubmitResult{}, errs.Wrap(err, "ingest report photos")
	}

	reportID, err := s.insertReport(ctx, actor, normalized, uploaded.Accepted)
	if err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{
		ReportID: reportID,
		Images:   uploaded.Accepted,
		Rejected: uploaded.Rejected,
	}, nil
}

// CreateReport persists a report whose images were already ingested.
func (s *Service) CreateReport(ctx context.Context, actor access.Actor, fields report.Fields, images []string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}
	if err := s.requireWriteDeps(); err != nil {
		return "", err
	}

	normalized, err := report.NormalizeFields(fields)
	if err != nil {
		return "", err
	}
	return s.insertReport(ctx, actor, normalized, images)
}

func (s *Service) insertReport(ctx context.Context, actor access.Actor, fields report.Normalized, images []string) (string, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.intake"))

	if images == nil {
		images = []string{}
	}

	var reporterID *string
	anonymous := fields.Anonymous
	if actor.IsAnonymous() {
		anonymous = true
	} else {
		id := actor.UserID
		reporterID = &id
	}

	var reportID string
	err := idgen.Retry(ctx, func(ctx context.Context) error {
		now := s.now().In(s.loc)
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			id, err := idgen.Next(txCtx, s.sequences, idgen.SeqDamageReport, now)
			if err != nil {
				return err
			}

			if err := s.reports.CreateReport(txCtx, ports.DamageReport{
				ReportID:          id,
				ReporterID:        reporterID,
				Location:          fields.Location,
				Barangay:          fields.Barangay,
				DamageType:        fields.DamageType,
				Severity:          fields.Severity,
				Description:       fields.Description,
				EstimatedSize:     fields.EstimatedSize,
				TrafficImpact:     fields.TrafficImpact,
				ContactNumber:     fields.ContactNumber,
				Anonymous:         anonymous,
				Images:            images,
				Status:            report.StatusPending,
				PublicationStatus: report.PublicationPending,
				Latitude:          fields.Latitude,
				Longitude:         fields.Longitude,
				ReportedAt:        now,
				UpdatedAt:         now,
			}); err != nil {
				return err
			}

			if reporterID != nil && s.activity != nil {
				if err := s.activity.AppendActivity(txCtx, ports.ActivityEntry{
					UserID:     *reporterID,
					Action:     "report_submitted",
					EntityType: "damage_report",
					EntityID:   id,
					Details:    fmt.Sprintf("%s severity %s at %s", fields.DamageType, fields.Severity, fields.Location),
					CreatedAt:  now,
				}); err != nil {
					return errs.Wrap(err, "append submission activity")
				}
			}

			if err := s.notifyReviewers(txCtx, id, fields, now); err != nil {
				return err
			}

			reportID = id
			return nil
		})
	})
	if err != nil {
		logging.Error(logCtx, "create damage report failed", slog.Any("err", errs.Loggable(err)))
		return "", errs.Wrap(err, "create damage report")
	}

	logging.Info(
		logCtx,
		"damage report created",
		slog.String("report_id", reportID),
		slog.Int("images", len(images)),
		slog.Bool("anonymous", anonymous),
	)
	return reportID, nil
}

func (s *Service) notifyReviewers(ctx context.Context, reportID string, fields report.Normalized, at time.Time) error {
	if s.users == nil || s.notifications == nil {
		return nil
	}
	reviewers, err := s.users.ListActiveUserIDs(ctx, access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return errs.Wrap(err, "list reviewers")
	}
	return notifications.Deliver(ctx, s.notifications, reviewers, notifications.Message{
		Type:      notifications.TypeNewReport,
		Title:     "New damage report",
		Body:      fmt.Sprintf("%s: %s damage at %s, %s", reportID, fields.DamageType, fields.Location, fields.Barangay),
		RelatedID: reportID,
	}, at)
}

// UploadOwner names the owner part of stored file names. The random suffix
// keeps two uploads by the same actor in the same second apart.
func UploadOwner(actor access.Actor) string {
	owner := "anonymous"
	if !actor.IsAnonymous() {
		owner = strings.TrimSpace(actor.UserID)
	}
	return owner + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
