package report

import (
	"strings"

	"roadportal/internal/errs"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusRejected    Status = "rejected"
)

var allStatuses = []Status{
	StatusPending,
	StatusUnderReview,
	StatusApproved,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
}

// Statuses returns the closed status enum in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

type PublicationStatus string

const (
	PublicationPending   PublicationStatus = "pending"
	PublicationPublished PublicationStatus = "published"
	PublicationDeclined  PublicationStatus = "declined"
)

type DamageType string

const (
	DamagePothole       DamageType = "pothole"
	DamageCrack         DamageType = "crack"
	DamageDrainage      DamageType = "drainage"
	DamageSurfaceDamage DamageType = "surface_damage"
	DamageOther         DamageType = "other"
)

var damageTypes = map[DamageType]struct{}{
	DamagePothole:       {},
	DamageCrack:         {},
	DamageDrainage:      {},
	DamageSurfaceDamage: {},
	DamageOther:         {},
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank orders severities low < medium < high < critical. Unknown values rank 0.
func (s Severity) Rank() int {
	return severityRank[s]
}

func ParseStatus(raw string) (Status, error) {
	value := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range allStatuses {
		if status == value {
			return value, nil
		}
	}
	return "", errs.Validationf("invalid report status %q", raw)
}

func ParseSeverity(raw string) (Severity, error) {
	value := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := severityRank[value]; !ok {
		return "", errs.Validationf("invalid severity %q", raw)
	}
	return value, nil
}

func ParseDamageType(raw string) (DamageType, error) {
	value := DamageType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := damageTypes[value]; !ok {
		return "", errs.Validationf("invalid damage type %q", raw)
	}
	return value, nil
}
