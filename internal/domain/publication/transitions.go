package publication

import (
	"strings"

	"roadportal/internal/errs"
)

var approvalTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalPending:       {ApprovalApproved, ApprovalRejected, ApprovalNeedsRevision},
	ApprovalNeedsRevision: {ApprovalPending},
}

func CanTransition(from ApprovalStatus, to ApprovalStatus) bool {
	for _, next := range approvalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CheckTransition(from ApprovalStatus, to ApprovalStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return errs.Conflictf("cannot move publication from %s to %s", from, to)
}

// State is the subset of a publication the archive and update rules read.
type State struct {
	ApprovalStatus ApprovalStatus
	IsPublished    bool
	Archived       bool
}

func CheckArchivable(state State) error {
	if state.Archived {
		return errs.Conflictf("publication is already archived")
	}
	if state.ApprovalStatus != ApprovalApproved || !state.IsPublished {
		return errs.Conflictf("only approved and published publications can be archived")
	}
	return nil
}

func CheckUpdatable(state State) error {
	if state.Archived {
		return errs.Conflictf("archived publications cannot be updated")
	}
	if state.ApprovalStatus != ApprovalApproved {
		return errs.Conflictf("only approved publications can be updated")
	}
	return nil
}

// RequireReason is used by reject and request-revision.
func RequireReason(reason string) (string, error) {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return "", errs.Validationf("reason is required")
	}
	return trimmed, nil
}
