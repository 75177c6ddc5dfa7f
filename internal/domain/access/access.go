package access

import (
	"context"
	"strings"

	"roadportal/internal/errs"
)

type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleLGUOfficer Role = "lgu_officer"
	RoleEngineer   Role = "engineer"
	RoleAdmin      Role = "admin"
)

var knownRoles = map[Role]struct{}{
	RoleCitizen:    {},
	RoleLGUOfficer: {},
	RoleEngineer:   {},
	RoleAdmin:      {},
}

// Actor is the request-scoped identity every service call receives.
// The zero value is an anonymous visitor.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAnonymous() bool {
	return strings.TrimSpace(a.UserID) == ""
}

func (a Actor) HasRole(roles ...Role) bool {
	if a.IsAnonymous() {
		return false
	}
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

// IsReviewer reports whether the actor may drive report and publication
// lifecycles.
func (a Actor) IsReviewer() bool {
	return a.HasRole(RoleLGUOfficer, RoleAdmin)
}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownRoles[role]; !ok {
		return "", errs.Validationf("unknown role %q", raw)
	}
	return role, nil
}

// Require fails with ErrUnauthenticated for anonymous actors and ErrForbidden
// when the role does not match.
func Require(actor Actor, action string, roles ...Role) error {
	if actor.IsAnonymous() {
		return errs.Wrapf(errs.ErrUnauthenticated, "%s", action)
	}
	if !actor.HasRole(roles...) {
		return errs.Forbiddenf("role %s cannot %s", actor.Role, action)
	}
	return nil
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor placed by the transport layer, or the
// anonymous actor.
func FromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}

// Permissions an admin can grant on top of a role.
const (
	PermArchivePublications = "publications.archive"
)

var knownPermissions = map[string]struct{}{
	PermArchivePublications: {},
}

func ParsePermission(raw string) (string, error) {
	perm := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := knownPermissions[perm]; !ok {
		return "", errs.Validationf("unknown permission %q", raw)
	}
	return perm, nil
}
