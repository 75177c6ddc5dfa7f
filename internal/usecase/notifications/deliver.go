package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

// Notification types written by the portal.
const (
	TypeNewReport           = "new_report"
	TypeReportStatus        = "report_status"
	TypeReportAssigned      = "report_assigned"
	TypePublicationPending  = "publication_pending"
	TypePublicationApproved = "publication_approved"
	TypePublicationRejected = "publication_rejected"
	TypePublicationRevision = "publication_revision"
	TypeInspectionPending   = "inspection_pending"
	TypeInspectionReviewed  = "inspection_reviewed"
)

type Message struct {
	Type      string
	Title     string
	Body      string
	RelatedID string
}

// Deliver inserts one unread row per recipient. Blank and repeated ids are
// skipped. Call it with the transaction context of the write that caused it.
func Deliver(ctx context.Context, repo ports.NotificationRepository, userIDs []string, msg Message, at time.Time) error {
	if repo == nil {
		return errors.New("notification repository is required")
	}

	seen := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}

		if err := repo.CreateNotification(ctx, ports.Notification{
			UserID:    userID,
			Type:      msg.Type,
			Title:     msg.Title,
			Message:   msg.Body,
			RelatedID: msg.RelatedID,
			CreatedAt: at,
		}); err != nil {
			return errs.Wrapf(err, "insert %s notification", msg.Type)
		}
	}
	return nil
}
