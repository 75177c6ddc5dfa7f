package report

import "roadportal/internal/errs"

var transitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusInProgress, StatusRejected},
	StatusInProgress:  {StatusCompleted, StatusRejected},
}

func IsTerminal(status Status) bool {
	return status == StatusCompleted || status == StatusRejected
}

func CanTransition(from Status, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition reports an illegal move as a state conflict.
func CheckTransition(from Status, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	if IsTerminal(from) {
		return errs.Conflictf("report is already %s", from)
	}
	return errs.Conflictf("cannot move report from %s to %s", from, to)
}

// NextStatuses lists the states reachable from status.
func NextStatuses(status Status) []Status {
	next := transitions[status]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}
