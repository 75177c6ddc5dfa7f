package listing

import (
	"strconv"
	"strings"

	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type Sort string

const (
	SortNewest       Sort = "newest"
	SortOldest       Sort = "oldest"
	SortSeverityDesc Sort = "severity_desc"
	SortSeverityAsc  Sort = "severity_asc"
)

// RawQuery is the unparsed listing request as it arrives from a form or URL.
type RawQuery struct {
	Search   string
	Status   string
	Severity string
	Sort     string
	Page     string
	PerPage  string
}

// Query is a validated listing request. Empty Status or Severity means all.
type Query struct {
	Search   string
	Status   string
	Severity report.Severity
	Sort     Sort
	Page     int
	PerPage  int
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// Normalize validates raw against the entity's closed status set.
func Normalize(raw RawQuery, statuses []string) (Query, error) {
	out := Query{
		Search: strings.TrimSpace(raw.Search),
	}

	status := strings.ToLower(strings.TrimSpace(raw.Status))
	if status != "" && status != "all" {
		if !contains(statuses, status) {
			return Query{}, errs.Validationf("invalid status filter %q", raw.Status)
		}
		out.Status = status
	}

	severity := strings.ToLower(strings.TrimSpace(raw.Severity))
	if severity != "" && severity != "all" {
		parsed, err := report.ParseSeverity(severity)
		if err != nil {
			return Query{}, err
		}
		out.Severity = parsed
	}

	switch sort := Sort(strings.ToLower(strings.TrimSpace(raw.Sort))); sort {
	case "":
		out.Sort = SortNewest
	case SortNewest, SortOldest, SortSeverityDesc, SortSeverityAsc:
		out.Sort = sort
	default:
		return Query{}, errs.Validationf("invalid sort %q", raw.Sort)
	}

	page, err := parsePositive(raw.Page, 1, "page")
	if err != nil {
		return Query{}, err
	}
	out.Page = page

	perPage, err := parsePositive(raw.PerPage, DefaultPerPage, "per_page")
	if err != nil {
		return Query{}, err
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	out.PerPage = perPage

	return out, nil
}

func parsePositive(raw string, fallback int, field string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 1 {
		return 0, errs.Validationf("%s must be a positive integer", field)
	}
	return value, nil
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
