package ports

import (
	"context"
	"time"

	"roadportal/internal/domain/access"
)

type User struct {
	UserID       string
	Username     string
	FullName     string
	Role         access.Role
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

type UserRepository interface {
	CreateUser(ctx context.Context, row User) error
	GetUser(ctx context.Context, userID string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	SetRole(ctx context.Context, userID string, role access.Role) error
	SetActive(ctx context.Context, userID string, active bool) error
	GrantPermission(ctx context.Context, userID string, permission string) error
	ListPermissions(ctx context.Context, userID string) ([]string, error)
	// ListActiveUserIDs returns active users holding any of roles, ordered by id.
	ListActiveUserIDs(ctx context.Context, roles ...access.Role) ([]string, error)
}
