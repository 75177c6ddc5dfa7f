package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
	"roadportal/internal/usecase/gateway"
	"roadportal/internal/usecase/notifications"
)

// Service owns every status write. Each operation authorises the actor before
// touching storage and runs its writes and side effects in one transaction.
type Service struct {
	reports       ports.ReportRepository
	publications  ports.PublicationRepository
	inspections   ports.InspectionRepository
	gis           ports.GISRepository
	notifications ports.NotificationRepository
	users         ports.UserRepository
	activity      ports.ActivityRepository
	sequences     ports.SequenceRepository
	uow           ports.UnitOfWork
	cache         ports.Cache
	loc           *time.Location
	now           func() time.Time
}

type Deps struct {
	Reports       ports.ReportRepository
	Publications  ports.PublicationRepository
	Inspections   ports.InspectionRepository
	GIS           ports.GISRepository
	Notifications ports.NotificationRepository
	Users         ports.UserRepository
	Activity      ports.ActivityRepository
	Sequences     ports.SequenceRepository
	UnitOfWork    ports.UnitOfWork
	Cache         ports.Cache
	Location      *time.Location
}

func NewService(deps Deps) *Service {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		reports:       deps.Reports,
		publications:  deps.Publications,
		inspections:   deps.Inspections,
		gis:           deps.GIS,
		notifications: deps.Notifications,
		users:         deps.Users,
		activity:      deps.Activity,
		sequences:     deps.Sequences,
		uow:           deps.UnitOfWork,
		cache:         deps.Cache,
		loc:           loc,
		now:           time.Now,
	}
}

// begin runs the checks shared by every operation: context, authorisation,
// then wiring. Authorisation comes first so a forbidden call never reads.
func (s *Service) begin(ctx context.Context, actor access.Actor, action string, roles ...access.Role) (context.Context, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if err := access.Require(actor, action, roles...); err != nil {
		return nil, err
	}
	if s.uow == nil {
		return nil, errors.New("unit of work is required")
	}
	if s.activity == nil || s.notifications == nil {
		return nil, errors.New("activity and notification repositories are required")
	}

	return logging.WithAttrs(
		ctx,
		slog.String("component", "usecase.lifecycle"),
		slog.String("action", action),
		slog.String("actor_id", actor.UserID),
	), nil
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) record(ctx context.Context, actor access.Actor, action string, entityType string, entityID string, details string, at time.Time) error {
	if err := s.activity.AppendActivity(ctx, ports.ActivityEntry{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  at,
	}); err != nil {
		return errs.Wrapf(err, "append %s activity", action)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, userIDs []string, msg notifications.Message, at time.Time) error {
	return notifications.Deliver(ctx, s.notifications, userIDs, msg, at)
}

// invalidateFeed runs after commit. A failed invalidation only delays
// freshness until the cached entry expires.
func (s *Service) invalidateFeed(ctx context.Context) {
	if err := gateway.InvalidateFeed(ctx, s.cache); err != nil {
		logging.Warn(ctx, "invalidate public feed cache failed", slog.Any("err", errs.Loggable(err)))
	}
}

// logFailure logs err unless it is an expected caller error.
func logFailure(ctx context.Context, msg string, err error) {
	switch errs.KindOf(err) {
	case errs.KindInternal, errs.KindStorage:
		logging.Error(ctx, msg, slog.Any("err", errs.Loggable(err)))
	default:
		logging.Warn(ctx, msg, slog.String("reason", errs.PublicMessage(err)))
	}
}

func strPtr(v string) *string {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
