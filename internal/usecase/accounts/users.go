package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

type NewUser struct {
	Username string
	FullName string
	Password string
	Role     string
}

// CreateUser stores a new active account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, actor access.Actor, input NewUser) (UserView, error) {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return UserView{}, err
	}
	if err := access.Require(actor, "create user", access.RoleAdmin); err != nil {
		return UserView{}, err
	}

	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return UserView{}, errs.Validationf("username is required")
	}
	if len(input.Password) < minPasswordLength {
		return UserView{}, errs.Validationf("password must be at least %d characters", minPasswordLength)
	}
	role, err := access.ParseRole(input.Role)
	if err != nil {
		return UserView{}, err
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fullName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserView{}, errs.Wrap(err, "hash password")
	}

	user := ports.User{
		UserID:       s.newID(),
		Username:     username,
		FullName:     fullName,
		Role:         role,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	err = s.withTx(logCtx, func(txCtx context.Context) error {
		if err := s.users.CreateUser(txCtx, user); err != nil {
			if errors.Is(err, ports.ErrDuplicateKey) {
				return errs.Conflictf("username %q is taken", username)
			}
			return errs.Wrap(err, "create user")
		}
		return s.record(txCtx, actor, "user_created", user.UserID, string(role))
	})
	if err != nil {
		return UserView{}, errs.Wrap(err, "create user")
	}

	logging.Info(logCtx, "user created", slog.String("user_id", user.UserID), slog.String("role", string(role)))
	return UserView{
		UserID:      user.UserID,
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        string(user.Role),
		Active:      true,
		Permissions: []string{},
		CreatedAt:   user.CreatedAt,
	}, nil
}

// Me returns the account behind an authenticated actor.
func (s *Service) Me(ctx context.Context, actor access.Actor) (UserView, error) {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return UserView{}, err
	}
	if actor.IsAnonymous() {
		return UserView{}, errs.Wrap(errs.ErrUnauthenticated, "load current user")
	}
	user, err := s.users.GetUser(logCtx, actor.UserID)
	if err != nil {
		return UserView{}, errs.Wrap(err, "load current user")
	}
	return s.view(logCtx, user)
}

func (s *Service) SetRole(ctx context.Context, actor access.Actor, userID string, roleRaw string) error {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	if err := access.Require(actor, "change role", access.RoleAdmin); err != nil {
		return err
	}
	role, err := access.ParseRole(roleRaw)
	if err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)

	err = s.withTx(logCtx, func(txCtx context.Context) error {
		if err := s.users.SetRole(txCtx, userID, role); err != nil {
			return errs.Wrap(err, "set role")
		}
		return s.record(txCtx, actor, "user_role_changed", userID, string(role))
	})
	if err != nil {
		return errs.Wrap(err, "change role")
	}
	logging.Info(logCtx, "user role changed", slog.String("user_id", userID), slog.String("role", string(role)))
	return nil
}

// Deactivate blocks login and invalidates outstanding tokens on their next use.
func (s *Service) Deactivate(ctx context.Context, actor access.Actor, userID string) error {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	if err := access.Require(actor, "deactivate user", access.RoleAdmin); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == actor.UserID {
		return errs.Conflictf("admins cannot deactivate themselves")
	}

	err = s.withTx(logCtx, func(txCtx context.Context) error {
		if err := s.users.SetActive(txCtx, userID, false); err != nil {
			return errs.Wrap(err, "set inactive")
		}
		return s.record(txCtx, actor, "user_deactivated", userID, "")
	})
	if err != nil {
		return errs.Wrap(err, "deactivate user")
	}
	logging.Info(logCtx, "user deactivated", slog.String("user_id", userID))
	return nil
}

func (s *Service) GrantPermission(ctx context.Context, actor access.Actor, userID string, permissionRaw string) error {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	if err := access.Require(actor, "grant permission", access.RoleAdmin); err != nil {
		return err
	}
	permission, err := access.ParsePermission(permissionRaw)
	if err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)

	err = s.withTx(logCtx, func(txCtx context.Context) error {
		if _, err := s.users.GetUser(txCtx, userID); err != nil {
			return errs.Wrap(err, "load user")
		}
		if err := s.users.GrantPermission(txCtx, userID, permission); err != nil {
			return errs.Wrap(err, "grant permission")
		}
		return s.record(txCtx, actor, "permission_granted", userID, permission)
	})
	if err != nil {
		return errs.Wrap(err, "grant permission")
	}
	logging.Info(logCtx, "permission granted", slog.String("user_id", userID), slog.String("permission", permission))
	return nil
}
