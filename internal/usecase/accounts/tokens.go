package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserView  `json:"user"`
}

var errInvalidCredentials = errs.Wrap(errs.ErrUnauthenticated, "invalid username or password")

// Login checks the password and issues a signed HS256 token.
func (s *Service) Login(ctx context.Context, username string, password string) (Token, error) {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return Token{}, err
	}

	user, err := s.users.GetUserByUsername(logCtx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Token{}, errInvalidCredentials
		}
		return Token{}, errs.Wrap(err, "load user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		logging.Warn(logCtx, "login rejected", slog.String("user_id", user.UserID))
		return Token{}, errInvalidCredentials
	}
	if !user.Active {
		return Token{}, errs.Wrap(errs.ErrUnauthenticated, "account is deactivated")
	}

	token, err := s.issue(user)
	if err != nil {
		return Token{}, err
	}
	token.User, err = s.view(logCtx, user)
	if err != nil {
		return Token{}, err
	}
	logging.Info(logCtx, "user logged in", slog.String("user_id", user.UserID))
	return token, nil
}

// IssueToken signs a token for an existing active user without a password.
// It backs the operator CLI.
func (s *Service) IssueToken(ctx context.Context, username string) (Token, error) {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return Token{}, err
	}
	user, err := s.users.GetUserByUsername(logCtx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return Token{}, errs.Wrap(err, "load user")
	}
	if !user.Active {
		return Token{}, errs.Conflictf("user %s is deactivated", username)
	}
	token, err := s.issue(user)
	if err != nil {
		return Token{}, err
	}
	token.User, err = s.view(logCtx, user)
	if err != nil {
		return Token{}, err
	}
	return token, nil
}

// Authenticate verifies a bearer token and resolves the current actor. Role
// and active flag are read from storage so changes apply immediately.
func (s *Service) Authenticate(ctx context.Context, raw string) (access.Actor, error) {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return access.Actor{}, err
	}
	if len(s.secret) == 0 {
		return access.Actor{}, errors.New("jwt secret is required")
	}

	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return access.Actor{}, errs.Wrap(errs.ErrUnauthenticated, "invalid or expired token")
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return access.Actor{}, errs.Wrap(errs.ErrUnauthenticated, "invalid token claims")
	}

	user, err := s.users.GetUser(logCtx, c.Subject)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return access.Actor{}, errs.Wrap(errs.ErrUnauthenticated, "token subject no longer exists")
		}
		return access.Actor{}, errs.Wrap(err, "load token subject")
	}
	if !user.Active {
		return access.Actor{}, errs.Wrap(errs.ErrUnauthenticated, "account is deactivated")
	}
	return access.Actor{UserID: user.UserID, Role: user.Role}, nil
}

func (s *Service) issue(user ports.User) (Token, error) {
	if len(s.secret) == 0 {
		return Token{}, errors.New("jwt secret is required")
	}
	now := s.now()
	expires := now.Add(s.ttl)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}).SignedString(s.secret)
	if err != nil {
		return Token{}, errs.Wrap(err, "sign token")
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires.UTC()}, nil
}
