// Package listing serves the staff-side paged listings, report detail and the
// spreadsheet export.
package listing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	domainlisting "roadportal/internal/domain/listing"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

var staffRoles = []access.Role{access.RoleLGUOfficer, access.RoleAdmin, access.RoleEngineer}

type Service struct {
	reports      ports.ReportReadRepository
	inspections  ports.InspectionRepository
	publications ports.PublicationReadRepository
	activity     ports.ActivityRepository
	loc          *time.Location
	imageBaseURL string
	now          func() time.Time
}

type Deps struct {
	Reports      ports.ReportReadRepository
	Inspections  ports.InspectionRepository
	Publications ports.PublicationReadRepository
	Activity     ports.ActivityRepository
	Location     *time.Location
	ImageBaseURL string
}

func NewService(deps Deps) *Service {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		reports:      deps.Reports,
		inspections:  deps.Inspections,
		publications: deps.Publications,
		activity:     deps.Activity,
		loc:          loc,
		imageBaseURL: strings.TrimRight(deps.ImageBaseURL, "/"),
		now:          time.Now,
	}
}

func (s *Service) begin(ctx context.Context, actor access.Actor, action string) (context.Context, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if err := access.Require(actor, action, staffRoles...); err != nil {
		return nil, err
	}
	return logging.WithAttrs(ctx,
		slog.String("component", "usecase.listing"),
		slog.String("actor", actor.UserID),
	), nil
}

// Page is one page of a listing plus the total number of matching rows.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

func toFilter(q domainlisting.Query) ports.ListFilter {
	return ports.ListFilter{
		Search:   q.Search,
		Status:   q.Status,
		Severity: string(q.Severity),
		Sort:     ports.SortOrder(q.Sort),
		Offset:   q.Offset(),
		Limit:    q.PerPage,
	}
}

func (s *Service) local(t time.Time) time.Time {
	return t.In(s.loc)
}

func (s *Service) localPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(s.loc)
	return &v
}
