package publication

import (
	"strings"
	"time"

	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
)

type ApprovalStatus string

const (
	ApprovalPending       ApprovalStatus = "pending"
	ApprovalApproved      ApprovalStatus = "approved"
	ApprovalRejected      ApprovalStatus = "rejected"
	ApprovalNeedsRevision ApprovalStatus = "needs_revision"
)

var approvalStatuses = []ApprovalStatus{
	ApprovalPending,
	ApprovalApproved,
	ApprovalRejected,
	ApprovalNeedsRevision,
}

func ParseApprovalStatus(raw string) (ApprovalStatus, error) {
	value := ApprovalStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range approvalStatuses {
		if status == value {
			return value, nil
		}
	}
	return "", errs.Validationf("invalid approval status %q", raw)
}

// PublicStatus is the repair progress shown to the public.
type PublicStatus string

const (
	PublicReported    PublicStatus = "reported"
	PublicScheduled   PublicStatus = "scheduled"
	PublicUnderRepair PublicStatus = "under_repair"
	PublicCompleted   PublicStatus = "completed"
)

var publicStatuses = map[PublicStatus]struct{}{
	PublicReported:    {},
	PublicScheduled:   {},
	PublicUnderRepair: {},
	PublicCompleted:   {},
}

func ParsePublicStatus(raw string) (PublicStatus, error) {
	value := PublicStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := publicStatuses[value]; !ok {
		return "", errs.Validationf("invalid public status %q", raw)
	}
	return value, nil
}

// ParseSeverityPublic validates severity_public. Empty is a validation error.
func ParseSeverityPublic(raw string) (report.Severity, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errs.Validationf("severity_public is required")
	}
	return report.ParseSeverity(raw)
}

var archiveReasons = []string{
	"Report declined",
	"Information outdated",
	"Data correction needed",
	"Administrative removal",
	"Other",
}

// ArchiveReasons returns the closed set of archive reasons.
func ArchiveReasons() []string {
	out := make([]string, len(archiveReasons))
	copy(out, archiveReasons)
	return out
}

func ParseArchiveReason(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	for _, reason := range archiveReasons {
		if strings.EqualFold(reason, trimmed) {
			return reason, nil
		}
	}
	return "", errs.Validationf("invalid archive reason %q", raw)
}

// RepairDurationDays is whole days from start to completion, nil unless both
// dates are set. A completion before the start yields 0.
func RepairDurationDays(start *time.Time, completion *time.Time) *int {
	if start == nil || completion == nil {
		return nil
	}
	s := truncateDay(*start)
	c := truncateDay(*completion)
	days := int(c.Sub(s).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
