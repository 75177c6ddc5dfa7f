package publication

import (
	"strings"
	"time"

	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
)

// PublicFields are the announcement fields authored by an officer or engineer.
type PublicFields struct {
	RoadName        string
	IssueSummary    string
	IssueType       string
	SeverityPublic  string
	StatusPublic    string
	DateReported    *time.Time
	RepairStartDate *time.Time
	CompletionDate  *time.Time
}

type NormalizedFields struct {
	RoadName        string
	IssueSummary    string
	IssueType       string
	SeverityPublic  report.Severity
	StatusPublic    PublicStatus
	DateReported    *time.Time
	RepairStartDate *time.Time
	CompletionDate  *time.Time
}

// NormalizeFields checks every public field before anything is written.
func NormalizeFields(in PublicFields) (NormalizedFields, error) {
	out := NormalizedFields{
		RoadName:        strings.TrimSpace(in.RoadName),
		IssueSummary:    strings.TrimSpace(in.IssueSummary),
		IssueType:       strings.TrimSpace(in.IssueType),
		DateReported:    in.DateReported,
		RepairStartDate: in.RepairStartDate,
		CompletionDate:  in.CompletionDate,
	}

	if out.RoadName == "" {
		return NormalizedFields{}, errs.Validationf("road_name is required")
	}
	if out.IssueSummary == "" {
		return NormalizedFields{}, errs.Validationf("issue_summary is required")
	}

	severity, err := ParseSeverityPublic(in.SeverityPublic)
	if err != nil {
		return NormalizedFields{}, err
	}
	out.SeverityPublic = severity

	statusRaw := in.StatusPublic
	if strings.TrimSpace(statusRaw) == "" {
		statusRaw = string(PublicReported)
	}
	status, err := ParsePublicStatus(statusRaw)
	if err != nil {
		return NormalizedFields{}, err
	}
	out.StatusPublic = status

	if err := CheckRepairDates(out.RepairStartDate, out.CompletionDate); err != nil {
		return NormalizedFields{}, err
	}
	return out, nil
}

func CheckRepairDates(start *time.Time, completion *time.Time) error {
	if start != nil && completion != nil && completion.Before(*start) {
		return errs.Validationf("completion_date is before repair_start_date")
	}
	return nil
}
