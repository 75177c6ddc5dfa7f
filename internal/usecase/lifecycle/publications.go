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
	"roadportal/internal/domain/publication"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
	"roadportal/internal/usecase/idgen"
	"roadportal/internal/usecase/notifications"
)

// Progress entry statuses that are not public statuses.
const (
	progressPublished     = "published"
	progressSubmitted     = "submitted"
	progressRejected      = "rejected"
	progressNeedsRevision = "needs_revision"
	progressResubmitted   = "resubmitted"
)

type PublishInput struct {
	ReportID string
	Fields   publication.PublicFields
}

// PublishReport turns a reviewed report into a live publication in one step.
// Public fields are validated before anything is read or written.
func (s *Service) PublishReport(ctx context.Context, actor access.Actor, input PublishInput) (string, error) {
	logCtx, err := s.begin(ctx, actor, "publish report", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return "", err
	}
	if s.reports == nil || s.publications == nil || s.sequences == nil {
		return "", errors.New("report, publication and sequence repositories are required")
	}

	reportID, err := parseReportID(input.ReportID)
	if err != nil {
		return "", err
	}
	fields, err := publication.NormalizeFields(input.Fields)
	if err != nil {
		return "", err
	}

	var publicationID string
	err = idgen.Retry(logCtx, func(ctx context.Context) error {
		at := s.clock()
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			current, err := s.reports.GetReport(txCtx, reportID)
			if err != nil {
				return errs.Wrap(err, "load damage report")
			}
			if err := checkPublishable(current); err != nil {
				return err
			}
			if err := s.markReportPublished(txCtx, reportID, at); err != nil {
				return err
			}

			id, err := idgen.Next(txCtx, s.sequences, idgen.SeqPublication, at)
			if err != nil {
				return err
			}

			dateReported := fields.DateReported
			if dateReported == nil {
				reported := current.ReportedAt
				dateReported = &reported
			}
			row := newPublicationRow(id, fields, actor, at)
			row.DamageReportID = &reportID
			row.DateReported = dateReported
			row.ApprovalStatus = publication.ApprovalApproved
			row.IsPublished = true
			row.PublishedBy = strPtr(actor.UserID)
			row.PublicationDate = &at
			if err := s.publications.CreatePublication(txCtx, row); err != nil {
				return errs.Wrap(err, "create publication")
			}

			if err := s.appendProgress(txCtx, id, progressPublished, "Published from report "+reportID, actor, at); err != nil {
				return err
			}
			if err := s.record(txCtx, actor, "report_published", "damage_report", reportID, "publication "+id, at); err != nil {
				return err
			}
			publicationID = id
			return nil
		})
	})
	if err != nil {
		logFailure(logCtx, "publish report failed", err)
		return "", errs.Wrap(err, "publish report")
	}

	s.invalidateFeed(logCtx)
	logging.Info(logCtx, "report published", slog.String("report_id", reportID), slog.String("publication_id", publicationID))
	return publicationID, nil
}

type ProposeInput struct {
	ReportID string
	Fields   publication.PublicFields
}

// ProposePublication stores a draft announcement for officer review.
func (s *Service) ProposePublication(ctx context.Context, actor access.Actor, input ProposeInput) (string, error) {
	logCtx, err := s.begin(ctx, actor, "propose publication", access.RoleEngineer, access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return "", err
	}
	if s.publications == nil || s.sequences == nil {
		return "", errors.New("publication and sequence repositories are required")
	}

	var reportID *string
	if raw := strings.TrimSpace(input.ReportID); raw != "" {
		id, err := parseReportID(raw)
		if err != nil {
			return "", err
		}
		reportID = &id
	}
	fields, err := publication.NormalizeFields(input.Fields)
	if err != nil {
		return "", err
	}

	var publicationID string
	err = idgen.Retry(logCtx, func(ctx context.Context) error {
		at := s.clock()
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			if reportID != nil {
				if s.reports == nil {
					return errors.New("report repository is required")
				}
				current, err := s.reports.GetReport(txCtx, *reportID)
				if err != nil {
					return errs.Wrap(err, "load damage report")
				}
				if err := checkPublishable(current); err != nil {
					return err
				}
			}

			id, err := idgen.Next(txCtx, s.sequences, idgen.SeqPublication, at)
			if err != nil {
				return err
			}
			row := newPublicationRow(id, fields, actor, at)
			row.DamageReportID = reportID
			row.ApprovalStatus = publication.ApprovalPending
			if err := s.publications.CreatePublication(txCtx, row); err != nil {
				return errs.Wrap(err, "create publication")
			}

			if err := s.appendProgress(txCtx, id, progressSubmitted, "Submitted for review", actor, at); err != nil {
				return err
			}
			if err := s.record(txCtx, actor, "publication_proposed", "publication", id, fields.RoadName, at); err != nil {
				return err
			}
			if err := s.notifyReviewers(txCtx, actor, notifications.Message{
				Type:      notifications.TypePublicationPending,
				Title:     "Publication awaiting approval",
				Body:      fmt.Sprintf("%s: %s on %s", id, fields.IssueSummary, fields.RoadName),
				RelatedID: id,
			}, at); err != nil {
				return err
			}
			publicationID = id
			return nil
		})
	})
	if err != nil {
		logFailure(logCtx, "propose publication failed", err)
		return "", errs.Wrap(err, "propose publication")
	}

	logging.Info(logCtx, "publication proposed", slog.String("publication_id", publicationID))
	return publicationID, nil
}

// ApprovePublication publishes a pending proposal.
func (s *Service) ApprovePublication(ctx context.Context, actor access.Actor, publicationID string, notes string) error {
	logCtx, err := s.begin(ctx, actor, "approve publication", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return err
	}
	if s.publications == nil {
		return errors.New("publication repository is required")
	}
	publicationID, err = parsePublicationID(publicationID)
	if err != nil {
		return err
	}
	notes = strings.TrimSpace(notes)

	at := s.clock()
	err = s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		current, err := s.moveApproval(txCtx, publicationID, publication.ApprovalApproved, ports.PublicationPatch{
			IsPublished:     boolPtr(true),
			PublishedBy:     strPtr(actor.UserID),
			PublicationDate: &at,
			LastUpdated:     at,
		})
		if err != nil {
			return err
		}
		if current.DamageReportID != nil {
			if s.reports == nil {
				return errors.New("report repository is required")
			}
			if err := s.markReportPublished(txCtx, *current.DamageReportID, at); err != nil {
				return err
			}
		}

		progressNotes := notes
		if progressNotes == "" {
			progressNotes = "Approved for publication"
		}
		if err := s.appendProgress(txCtx, publicationID, progressPublished, progressNotes, actor, at); err != nil {
			return err
		}
		if err := s.record(txCtx, actor, "publication_approved", "publication", publicationID, notes, at); err != nil {
			return err
		}
		return s.notify(txCtx, []string{current.CreatedBy}, notifications.Message{
			Type:      notifications.TypePublicationApproved,
			Title:     "Publication approved",
			Body:      fmt.Sprintf("%s (%s) is now public.", publicationID, current.RoadName),
			RelatedID: publicationID,
		}, at)
	})
	if err != nil {
		logFailure(logCtx, "approve publication failed", err)
		return errs.Wrap(err, "approve publication")
	}

	s.invalidateFeed(logCtx)
	logging.Info(logCtx, "publication approved", slog.String("publication_id", publicationID))
	return nil
}

// RejectPublication closes a proposal. The reason is sent to the author.
func (s *Service) RejectPublication(ctx context.Context, actor access.Actor, publicationID string, reason string) error {
	return s.refusePublication(ctx, actor, publicationID, reason, publication.ApprovalRejected)
}

// RequestRevision sends a proposal back to its author for edits.
func (s *Service) RequestRevision(ctx context.Context, actor access.Actor, publicationID string, reason string) error {
	return s.refusePublication(ctx, actor, publicationID, reason, publication.ApprovalNeedsRevision)
}

func (s *Service) refusePublication(ctx context.Context, actor access.Actor, publicationID string, reason string, target publication.ApprovalStatus) error {
	action := "reject publication"
	progressStatus := progressRejected
	msg := notifications.Message{Type: notifications.TypePublicationRejected, Title: "Publication rejected"}
	if target == publication.ApprovalNeedsRevision {
		action = "request publication revision"
		progressStatus = progressNeedsRevision
		msg = notifications.Message{Type: notifications.TypePublicationRevision, Title: "Publication needs revision"}
	}

	logCtx, err := s.begin(ctx, actor, action, access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return err
	}
	if s.publications == nil {
		return errors.New("publication repository is required")
	}
	publicationID, err = parsePublicationID(publicationID)
	if err != nil {
		return err
	}
	reason, err = publication.RequireReason(reason)
	if err != nil {
		return err
	}

	at := s.clock()
	err = s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		current, err := s.moveApproval(txCtx, publicationID, target, ports.PublicationPatch{
			IsPublished: boolPtr(false),
			ReviewNotes: strPtr(reason),
			LastUpdated: at,
		})
		if err != nil {
			return err
		}

		if err := s.appendProgress(txCtx, publicationID, progressStatus, reason, actor, at); err != nil {
			return err
		}
		if err := s.record(txCtx, actor, "publication_"+string(target), "publication", publicationID, reason, at); err != nil {
			return err
		}
		msg.Body = fmt.Sprintf("%s (%s): %s", publicationID, current.RoadName, reason)
		msg.RelatedID = publicationID
		return s.notify(txCtx, []string{current.CreatedBy}, msg, at)
	})
	if err != nil {
		logFailure(logCtx, action+" failed", err)
		return errs.Wrap(err, action)
	}

	s.invalidateFeed(logCtx)
	logging.Info(logCtx, "publication refused", slog.String("publication_id", publicationID), slog.String("status", string(target)))
	return nil
}

type ResubmitInput struct {
	PublicationID string
	Fields        publication.PublicFields
}

// ResubmitPublication returns a needs_revision proposal to review. Only its
// author may do this.
func (s *Service) ResubmitPublication(ctx context.Context, actor access.Actor, input ResubmitInput) error {
	logCtx, err := s.begin(ctx, actor, "resubmit publication", access.RoleEngineer, access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return err
	}
	if s.publications == nil {
		return errors.New("publication repository is required")
	}
	publicationID, err := parsePublicationID(input.PublicationID)
	if err != nil {
		return err
	}
	fields, err := publication.NormalizeFields(input.Fields)
	if err != nil {
		return err
	}

	at := s.clock()
	err = s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		current, err := s.publications.GetPublication(txCtx, publicationID)
		if err != nil {
			return errs.Wrap(err, "load publication")
		}
		if current.CreatedBy != actor.UserID {
			return errs.Forbiddenf("only the author can resubmit publication %s", publicationID)
		}

		issueType := fields.IssueType
		if _, err := s.moveApproval(txCtx, publicationID, publication.ApprovalPending, ports.PublicationPatch{
			RoadName:       &fields.RoadName,
			IssueSummary:   &fields.IssueSummary,
			IssueType:      &issueType,
			SeverityPublic: &fields.SeverityPublic,
			StatusPublic:   &fields.StatusPublic,
			ReviewNotes:    strPtr(""),
			LastUpdated:    at,
		}); err != nil {
			return err
		}

		if err := s.appendProgress(txCtx, publicationID, progressResubmitted, "Resubmitted after revision", actor, at); err != nil {
			return err
		}
		if err := s.record(txCtx, actor, "publication_resubmitted", "publication", publicationID, fields.RoadName, at); err != nil {
			return err
		}
		return s.notifyReviewers(txCtx, actor, notifications.Message{
			Type:      notifications.TypePublicationPending,
			Title:     "Publication resubmitted",
			Body:      fmt.Sprintf("%s: %s on %s", publicationID, fields.IssueSummary, fields.RoadName),
			RelatedID: publicationID,
		}, at)
	})
	if err != nil {
		logFailure(logCtx, "resubmit publication failed", err)
		return errs.Wrap(err, "resubmit publication")
	}

	logging.Info(logCtx, "publication resubmitted", slog.String("publication_id", publicationID))
	return nil
}

type UpdateInput struct {
	PublicationID   string
	StatusPublic    string
	RepairStartDate *time.Time
	CompletionDate  *time.Time
	Notes           string
}

// UpdatePublication records repair progress on a live publication. Nil dates
// keep their stored value.
func (s *Service) UpdatePublication(ctx context.Context, actor access.Actor, input UpdateInput) error {
	logCtx, err := s.begin(ctx, actor, "update publication", access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return err
	}
	if s.publications == nil {
		return errors.New("publication repository is required")
	}
	publicationID, err := parsePublicationID(input.PublicationID)
	if err != nil {
		return err
	}

	var status *publication.PublicStatus
	if strings.TrimSpace(input.StatusPublic) != "" {
		parsed, err := publication.ParsePublicStatus(input.StatusPublic)
		if err != nil {
			return err
		}
		status = &parsed
	}
	if status == nil && input.RepairStartDate == nil && input.CompletionDate == nil {
		return errs.Validationf("nothing to update")
	}
	notes := strings.TrimSpace(input.Notes)

	at := s.clock()
	err = s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		current, err := s.publications.GetPublication(txCtx, publicationID)
		if err != nil {
			return errs.Wrap(err, "load publication")
		}
		if err := publication.CheckUpdatable(publication.State{
			ApprovalStatus: current.ApprovalStatus,
			IsPublished:    current.IsPublished,
			Archived:       current.Archived,
		}); err != nil {
			return err
		}

		start := current.RepairStartDate
		if input.RepairStartDate != nil {
			start = input.RepairStartDate
		}
		completion := current.CompletionDate
		if input.CompletionDate != nil {
			completion = input.CompletionDate
		}
		if err := publication.CheckRepairDates(start, completion); err != nil {
			return err
		}

		nextStatus := current.StatusPublic
		if status != nil {
			nextStatus = *status
		}
		patch := ports.PublicationPatch{
			StatusPublic:    &nextStatus,
			RepairStartDate: start,
			CompletionDate:  completion,
			LastUpdated:     at,
		}
		if days := publication.RepairDurationDays(start, completion); days != nil {
			patch.RepairDurationDays = days
		} else {
			patch.ClearDuration = true
		}

		approved := publication.ApprovalApproved
		updated, err := s.publications.UpdatePublication(txCtx, publicationID, ports.PublicationExpect{
			ApprovalStatus: &approved,
			Archived:       boolPtr(false),
		}, patch)
		if err != nil {
			return err
		}
		if !updated {
			return s.publicationConflict(txCtx, publicationID)
		}

		progressNotes := notes
		if progressNotes == "" {
			progressNotes = "Status updated to " + strings.ReplaceAll(string(nextStatus), "_", " ")
		}
		if err := s.appendProgress(txCtx, publicationID, string(nextStatus), progressNotes, actor, at); err != nil {
			return err
		}
		return s.record(txCtx, actor, "publication_updated", "publication", publicationID, string(nextStatus), at)
	})
	if err != nil {
		logFailure(logCtx, "update publication failed", err)
		return errs.Wrap(err, "update publication")
	}

	s.invalidateFeed(logCtx)
	logging.Info(logCtx, "publication updated", slog.String("publication_id", publicationID))
	return nil
}

// ArchivePublication withdraws a live publication. The progress timeline is
// kept as is and nobody is notified.
func (s *Service) ArchivePublication(ctx context.Context, actor access.Actor, publicationID string, reason string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := s.requireArchiveRight(ctx, actor); err != nil {
		return err
	}
	logCtx, err := s.begin(ctx, actor, "archive publication", access.RoleLGUOfficer, access.RoleAdmin, access.RoleEngineer)
	if err != nil {
		return err
	}
	if s.publications == nil {
		return errors.New("publication repository is required")
	}
	publicationID, err = parsePublicationID(publicationID)
	if err != nil {
		return err
	}
	reason, err = publication.ParseArchiveReason(reason)
	if err != nil {
		return err
	}

	at := s.clock()
	err = s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		current, err := s.publications.GetPublication(txCtx, publicationID)
		if err != nil {
			return errs.Wrap(err, "load publication")
		}
		if err := publication.CheckArchivable(publication.State{
			ApprovalStatus: current.ApprovalStatus,
			IsPublished:    current.IsPublished,
			Archived:       current.Archived,
		}); err != nil {
			return err
		}

		approved := publication.ApprovalApproved
		updated, err := s.publications.UpdatePublication(txCtx, publicationID, ports.PublicationExpect{
			ApprovalStatus: &approved,
			IsPublished:    boolPtr(true),
			Archived:       boolPtr(false),
		}, ports.PublicationPatch{
			Archived:      boolPtr(true),
			IsPublished:   boolPtr(false),
			ArchiveReason: &reason,
			LastUpdated:   at,
		})
		if err != nil {
			return err
		}
		if !updated {
			return s.publicationConflict(txCtx, publicationID)
		}
		return s.record(txCtx, actor, "publication_archived", "publication", publicationID, reason, at)
	})
	if err != nil {
		logFailure(logCtx, "archive publication failed", err)
		return errs.Wrap(err, "archive publication")
	}

	s.invalidateFeed(logCtx)
	logging.Info(logCtx, "publication archived", slog.String("publication_id", publicationID), slog.String("reason", reason))
	return nil
}

// requireArchiveRight lets engineers archive only with an explicit grant.
func (s *Service) requireArchiveRight(ctx context.Context, actor access.Actor) error {
	if actor.IsReviewer() || !actor.HasRole(access.RoleEngineer) {
		return nil
	}
	if s.users == nil {
		return errs.Forbiddenf("role %s cannot archive publication", actor.Role)
	}
	perms, err := s.users.ListPermissions(ctx, actor.UserID)
	if err != nil {
		return errs.Wrap(err, "list permissions")
	}
	for _, perm := range perms {
		if perm == access.PermArchivePublications {
			return nil
		}
	}
	return errs.Forbiddenf("role %s cannot archive publication", actor.Role)
}

// moveApproval applies an approval transition as a conditional update on the
// current approval status and returns the row as read before the write.
func (s *Service) moveApproval(ctx context.Context, publicationID string, target publication.ApprovalStatus, patch ports.PublicationPatch) (ports.Publication, error) {
	current, err := s.publications.GetPublication(ctx, publicationID)
	if err != nil {
		return ports.Publication{}, errs.Wrap(err, "load publication")
	}
	if current.Archived {
		return ports.Publication{}, errs.Conflictf("publication %s is archived", publicationID)
	}
	if err := publication.CheckTransition(current.ApprovalStatus, target); err != nil {
		return ports.Publication{}, err
	}

	from := current.ApprovalStatus
	patch.ApprovalStatus = &target
	updated, err := s.publications.UpdatePublication(ctx, publicationID, ports.PublicationExpect{ApprovalStatus: &from}, patch)
	if err != nil {
		return ports.Publication{}, err
	}
	if !updated {
		return ports.Publication{}, s.publicationConflict(ctx, publicationID)
	}
	return current, nil
}

// checkPublishable accepts reviewed reports that have no publication yet.
func checkPublishable(current ports.DamageReport) error {
	switch current.Status {
	case report.StatusApproved, report.StatusInProgress, report.StatusCompleted:
	default:
		return errs.Conflictf("report %s is %s and cannot be published", current.ReportID, current.Status)
	}
	if current.PublicationStatus != report.PublicationPending {
		return errs.Conflictf("report publication is already %s", current.PublicationStatus)
	}
	return nil
}

func (s *Service) markReportPublished(ctx context.Context, reportID string, at time.Time) error {
	updated, err := s.reports.UpdatePublicationStatus(ctx, reportID, report.PublicationPending, report.PublicationPublished, "", at)
	if err != nil {
		return err
	}
	if !updated {
		return errs.Conflictf("report %s was published concurrently", reportID)
	}
	return nil
}

func (s *Service) publicationConflict(ctx context.Context, publicationID string) error {
	current, err := s.publications.GetPublication(ctx, publicationID)
	if err != nil {
		return errs.Wrap(err, "reload publication")
	}
	return errs.Conflictf("publication %s was already changed to %s", publicationID, current.ApprovalStatus)
}

func (s *Service) appendProgress(ctx context.Context, publicationID string, status string, notes string, actor access.Actor, at time.Time) error {
	if err := s.publications.AppendProgress(ctx, ports.PublicationProgress{
		PublicationID: publicationID,
		Status:        status,
		Notes:         notes,
		UpdatedBy:     actor.UserID,
		CreatedAt:     at,
	}); err != nil {
		return errs.Wrap(err, "append publication progress")
	}
	return nil
}

// notifyReviewers tells every officer and admin except the actor.
func (s *Service) notifyReviewers(ctx context.Context, actor access.Actor, msg notifications.Message, at time.Time) error {
	if s.users == nil {
		return nil
	}
	ids, err := s.users.ListActiveUserIDs(ctx, access.RoleLGUOfficer, access.RoleAdmin)
	if err != nil {
		return errs.Wrap(err, "list reviewers")
	}
	recipients := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != actor.UserID {
			recipients = append(recipients, id)
		}
	}
	return s.notify(ctx, recipients, msg, at)
}

func newPublicationRow(id string, fields publication.NormalizedFields, actor access.Actor, at time.Time) ports.Publication {
	return ports.Publication{
		PublicationID:      id,
		RoadName:           fields.RoadName,
		IssueSummary:       fields.IssueSummary,
		IssueType:          fields.IssueType,
		SeverityPublic:     fields.SeverityPublic,
		StatusPublic:       fields.StatusPublic,
		DateReported:       fields.DateReported,
		RepairStartDate:    fields.RepairStartDate,
		CompletionDate:     fields.CompletionDate,
		RepairDurationDays: publication.RepairDurationDays(fields.RepairStartDate, fields.CompletionDate),
		CreatedBy:          actor.UserID,
		LastUpdated:        at,
	}
}

func parsePublicationID(raw string) (string, error) {
	id, err := identity.ParseWithPrefix(raw, identity.PrefixPublication)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
