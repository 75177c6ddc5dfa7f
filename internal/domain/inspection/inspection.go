package inspection

import (
	"strings"
	"time"

	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var statuses = []Status{StatusPending, StatusApproved, StatusRejected}

func ParseStatus(raw string) (Status, error) {
	value := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range statuses {
		if status == value {
			return value, nil
		}
	}
	return "", errs.Validationf("invalid inspection status %q", raw)
}

func CheckTransition(from Status, to Status) error {
	if from == StatusPending && (to == StatusApproved || to == StatusRejected) {
		return nil
	}
	return errs.Conflictf("inspection is already %s", from)
}

// Fields is what an engineer records on site.
type Fields struct {
	DamageReportID    string
	Location          string
	Barangay          string
	Findings          string
	Severity          string
	RecommendedAction string
	ScheduledDate     *time.Time
}

type Normalized struct {
	DamageReportID    string
	Location          string
	Barangay          string
	Findings          string
	Severity          report.Severity
	RecommendedAction string
	ScheduledDate     *time.Time
}

func NormalizeFields(in Fields) (Normalized, error) {
	out := Normalized{
		DamageReportID:    strings.TrimSpace(in.DamageReportID),
		Location:          strings.TrimSpace(in.Location),
		Barangay:          strings.TrimSpace(in.Barangay),
		Findings:          strings.TrimSpace(in.Findings),
		RecommendedAction: strings.TrimSpace(in.RecommendedAction),
		ScheduledDate:     in.ScheduledDate,
	}
	if out.Location == "" {
		return Normalized{}, errs.Validationf("location is required")
	}
	if out.Findings == "" {
		return Normalized{}, errs.Validationf("findings is required")
	}
	severity, err := report.ParseSeverity(in.Severity)
	if err != nil {
		return Normalized{}, err
	}
	out.Severity = severity
	return out, nil
}

// RepairPriority maps inspection severity to repair task priority.
func RepairPriority(severity report.Severity) string {
	switch severity {
	case report.SeverityCritical:
		return "urgent"
	case report.SeverityHigh:
		return "high"
	case report.SeverityMedium:
		return "normal"
	default:
		return "low"
	}
}
