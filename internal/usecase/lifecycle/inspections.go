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
	"roadportal/internal/domain/identity"
	"roadportal/internal/domain/inspection"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
	"roadportal/internal/usecase/idgen"
	"roadportal/internal/usecase/notifications"
)

const repairTaskPending = "pending"

// CreateInspection files an engineer's site findings for officer review.
func (s *Service) CreateInspection(ctx context.Context, actor access.Actor, fields inspection.Fields) (string, error) {
	logCtx, err := s.begin(ctx, actor, "create inspection", access.RoleEngineer, access.RoleAdmin)
	if err != nil {
		return "", err
	}
	if s.inspections == nil || s.sequences == nil {
		return "", errors.New("inspection and sequence repositories are required")
	}

	normalized, err := inspection.NormalizeFields(fields)
	if err != nil {
		return "", err
	}
	var reportID *string
	if normalized.DamageReportID != "" {
		id, err := parseReportID(normalized.DamageReportID)
		if err != nil {
			return "", err
		}
		reportID = &id
	}

	var inspectionID string
	err = idgen.Retry(logCtx, func(ctx context.Context) error {
		at := s.clock()
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			barangay := normalized.Barangay
			if reportID != nil {
				if s.reports == nil {
					return errors.New("report repository is required")
				}
				linked, err := s.reports.GetReport(txCtx, *reportID)
				if err != nil {
					return errs.Wrap(err, "load damage report")
				}
				if barangay == "" {
					barangay = linked.Barangay
				}
			}

			id, err := idgen.Next(txCtx, s.sequences, idgen.SeqInspection, at)
			if err != nil {
				return err
			}
			if err := s.inspections.CreateInspection(txCtx, ports.Inspection{
				InspectionID:      id,
				DamageReportID:    reportID,
				Location:          normalized.Location,
				Barangay:          barangay,
				InspectorID:       actor.UserID,
				Findings:          normalized.Findings,
				Severity:          normalized.Severity,
				RecommendedAction: normalized.RecommendedAction,
				Status:            inspection.StatusPending,
				ScheduledDate:     normalized.ScheduledDate,
				CreatedAt:         at,
				UpdatedAt:         at,
			}); err != nil {
				return errs.Wrap(err, "create inspection")
			}

			if err := s.record(txCtx, actor, "inspection_created", "inspection", id, normalized.Location, at); err != nil {
				return err
			}
			inspectionID = id
			return s.notifyReviewers(txCtx, actor, notifications.Message{
				Type:      notifications.TypeInspectionPending,
				Title:     "Inspection awaiting review",
				Body:      fmt.Sprintf("%s at %s (%s severity)", id, normalized.Location, normalized.Severity),
				RelatedID: id,
			}, at)
		})
	})
	if err != nil {
		logFailure(logCtx, "create inspection failed", err)
		return "", errs.Wrap(err, "create inspection")
	}

	logging.Info(logCtx, "inspection created", slog.String("inspection_id", inspectionID))
	return inspectionID, nil
}

// ApproveInspection accepts the findings and opens a repair task.
func (s *Service) ApproveInspection(ctx context.Context, actor access.Actor, inspectionID string, notes string) (string, error) {
	logCtx, err := s.begin(ctx, actor, "approve inspection", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return "", err
	}
	if s.inspections == nil || s.sequences == nil {
		return "", errors.New("inspection and sequence repositories are required")
	}
	inspectionID, err = parseInspectionID(inspectionID)
	if err != nil {
		return "", err
	}
	notes = strings.TrimSpace(notes)

	var taskID string
	err = idgen.Retry(logCtx, func(ctx context.Context) error {
		at := s.clock()
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			current, err := s.reviewInspection(txCtx, actor, inspectionID, inspection.StatusApproved, notes, at)
			if err != nil {
				return err
			}

			id, err := idgen.Next(txCtx, s.sequences, idgen.SeqRepairTask, at)
			if err != nil {
				return err
			}
			if err := s.inspections.CreateRepairTask(txCtx, ports.RepairTask{
				TaskID:         id,
				InspectionID:   inspectionID,
				DamageReportID: current.DamageReportID,
				Location:       current.Location,
				Priority:       inspection.RepairPriority(current.Severity),
				Status:         repairTaskPending,
				CreatedBy:      actor.UserID,
				CreatedAt:      at,
			}); err != nil {
				return errs.Wrap(err, "create repair task")
			}

			if err := s.record(txCtx, actor, "inspection_approved", "inspection", inspectionID, "repair task "+id, at); err != nil {
				return err
			}
			taskID = id
			return s.notify(txCtx, []string{current.InspectorID}, notifications.Message{
				Type:      notifications.TypeInspectionReviewed,
				Title:     "Inspection approved",
				Body:      fmt.Sprintf("%s was approved. Repair task %s opened.", inspectionID, id),
				RelatedID: inspectionID,
			}, at)
		})
	})
	if err != nil {
		logFailure(logCtx, "approve inspection failed", err)
		return "", errs.Wrap(err, "approve inspection")
	}

	logging.Info(logCtx, "inspection approved", slog.String("inspection_id", inspectionID), slog.String("task_id", taskID))
	return taskID, nil
}

func (s *Service) RejectInspection(ctx context.Context, actor access.Actor, inspectionID string, reason string) error {
	logCtx, err := s.begin(ctx, actor, "reject inspection", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return err
	}
	if s.inspections == nil {
		return errors.New("inspection repository is required")
	}
	inspectionID, err = parseInspectionID(inspectionID)
	if err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.Validationf("reason is required")
	}

	at := s.clock()
	err = s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		current, err := s.reviewInspection(txCtx, actor, inspectionID, inspection.StatusRejected, reason, at)
		if err != nil {
			return err
		}
		if err := s.record(txCtx, actor, "inspection_rejected", "inspection", inspectionID, reason, at); err != nil {
			return err
		}
		return s.notify(txCtx, []string{current.InspectorID}, notifications.Message{
			Type:      notifications.TypeInspectionReviewed,
			Title:     "Inspection rejected",
			Body:      fmt.Sprintf("%s was rejected: %s", inspectionID, reason),
			RelatedID: inspectionID,
		}, at)
	})
	if err != nil {
		logFailure(logCtx, "reject inspection failed", err)
		return errs.Wrap(err, "reject inspection")
	}

	logging.Info(logCtx, "inspection rejected", slog.String("inspection_id", inspectionID))
	return nil
}

// ApproveCitizenReport is the inspection screen's shortcut for approving a
// pending citizen report; it follows the regular report transition.
func (s *Service) ApproveCitizenReport(ctx context.Context, actor access.Actor, reportID string, notes string) error {
	return s.TransitionReport(ctx, actor, TransitionInput{
		ReportID: reportID,
		Status:   string(report.StatusApproved),
		Notes:    notes,
	})
}

func (s *Service) reviewInspection(ctx context.Context, actor access.Actor, inspectionID string, target inspection.Status, notes string, at time.Time) (ports.Inspection, error) {
	current, err := s.inspections.GetInspection(ctx, inspectionID)
	if err != nil {
		return ports.Inspection{}, errs.Wrap(err, "load inspection")
	}
	if err := inspection.CheckTransition(current.Status, target); err != nil {
		return ports.Inspection{}, err
	}

	updated, err := s.inspections.UpdateInspectionStatus(ctx, inspectionID, ports.InspectionReview{
		From:       current.Status,
		To:         target,
		Notes:      notes,
		ReviewedBy: actor.UserID,
		At:         at,
	})
	if err != nil {
		return ports.Inspection{}, err
	}
	if !updated {
		reloaded, err := s.inspections.GetInspection(ctx, inspectionID)
		if err != nil {
			return ports.Inspection{}, errs.Wrap(err, "reload inspection")
		}
		return ports.Inspection{}, errs.Conflictf("inspection %s was already %s", inspectionID, reloaded.Status)
	}
	return current, nil
}

func parseInspectionID(raw string) (string, error) {
	id, err := identity.ParseWithPrefix(raw, identity.PrefixInspection)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
