package gis

import (
	"strings"

	"roadportal/internal/errs"
)

type MarkerType string

const (
	MarkerIssue     MarkerType = "issue"
	MarkerProject   MarkerType = "project"
	MarkerCompleted MarkerType = "completed"
)

type MarkerStatus string

const (
	MarkerActive   MarkerStatus = "active"
	MarkerInactive MarkerStatus = "inactive"
)

type ZoneStatus string

const (
	ZoneActive    ZoneStatus = "active"
	ZoneCompleted ZoneStatus = "completed"
)

// Filter selects which features the public map shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterIssues    Filter = "issues"
	FilterProjects  Filter = "projects"
	FilterCompleted Filter = "completed"
)

func ParseFilter(raw string) (Filter, error) {
	switch value := Filter(strings.ToLower(strings.TrimSpace(raw))); value {
	case "":
		return FilterAll, nil
	case FilterAll, FilterIssues, FilterProjects, FilterCompleted:
		return value, nil
	default:
		return "", errs.Validationf("invalid filter %q", raw)
	}
}

// IncludesMarker reports whether markers of type t pass the filter.
func (f Filter) IncludesMarker(t MarkerType) bool {
	switch f {
	case FilterIssues:
		return t == MarkerIssue
	case FilterProjects:
		return t == MarkerProject
	case FilterCompleted:
		return t == MarkerCompleted
	default:
		return true
	}
}

// IncludesZones is true for the filters that show construction zones.
func (f Filter) IncludesZones() bool {
	return f == FilterAll || f == FilterProjects
}
