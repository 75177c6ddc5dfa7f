// Package accounts manages staff and citizen accounts and the bearer tokens
// that turn a request into an access.Actor.
package accounts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

const minPasswordLength = 8

// SystemActor is used by CLI bootstrap commands that run before any admin
// account exists.
var SystemActor = access.Actor{UserID: "system", Role: access.RoleAdmin}

type Service struct {
	users    ports.UserRepository
	activity ports.ActivityRepository
	uow      ports.UnitOfWork
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
}

type Deps struct {
	Users      ports.UserRepository
	Activity   ports.ActivityRepository
	UnitOfWork ports.UnitOfWork
	JWTSecret  string
	TokenTTL   time.Duration
}

func NewService(deps Deps) *Service {
	ttl := deps.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		users:    deps.Users,
		activity: deps.Activity,
		uow:      deps.UnitOfWork,
		secret:   []byte(deps.JWTSecret),
		ttl:      ttl,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type UserView struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Service) begin(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.users == nil {
		return nil, errors.New("user repository is required")
	}
	return logging.WithAttrs(ctx, slog.String("component", "usecase.accounts")), nil
}

func (s *Service) view(ctx context.Context, user ports.User) (UserView, error) {
	perms, err := s.users.ListPermissions(ctx, user.UserID)
	if err != nil {
		return UserView{}, errs.Wrap(err, "list permissions")
	}
	if perms == nil {
		perms = []string{}
	}
	return UserView{
		UserID:      user.UserID,
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        string(user.Role),
		Active:      user.Active,
		Permissions: perms,
		CreatedAt:   user.CreatedAt,
	}, nil
}

func (s *Service) record(ctx context.Context, actor access.Actor, action string, userID string, details string) error {
	if s.activity == nil {
		return nil
	}
	if err := s.activity.AppendActivity(ctx, ports.ActivityEntry{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		Details:    details,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		return errs.Wrap(err, "append activity")
	}
	return nil
}

// withTx runs fn in the unit of work when one is configured.
func (s *Service) withTx(ctx context.Context, fn func(context.Context) error) error {
	if s.uow == nil {
		return fn(ctx)
	}
	return s.uow.WithTx(ctx, fn)
}
