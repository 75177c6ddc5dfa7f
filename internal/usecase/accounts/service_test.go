package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"roadportal/internal/domain/access"
	"roadportal/internal/errs"
	sqliterepo "roadportal/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "roadportal/internal/infrastructure/persistence/sqlite/uow"
	"roadportal/internal/testsupport"
)

var issuedAt = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testsupport.OpenDB(t)
	svc := NewService(Deps{
		Users:      sqliterepo.NewUserRepository(db),
		Activity:   sqliterepo.NewActivityRepository(db),
		UnitOfWork: sqliteuow.NewUnitOfWork(db),
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
	})
	svc.now = func() time.Time { return issuedAt }
	return svc
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, SystemActor, NewUser{Username: " Officer.Cruz ", Password: "correct-horse", Role: "lgu_officer"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if created.Username != "officer.cruz" || created.FullName != "officer.cruz" {
		t.Fatalf("created = %+v", created)
	}

	if _, err := svc.Login(ctx, "officer.cruz", "wrong-password"); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("Login(wrong password) error = %v, want unauthenticated", err)
	}
	if _, err := svc.Login(ctx, "nobody", "correct-horse"); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("Login(unknown) error = %v, want unauthenticated", err)
	}

	token, err := svc.Login(ctx, "Officer.Cruz", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !token.ExpiresAt.Equal(issuedAt.Add(time.Hour)) {
		t.Fatalf("expires at = %v", token.ExpiresAt)
	}

	actor, err := svc.Authenticate(ctx, token.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if actor.UserID != created.UserID || actor.Role != access.RoleLGUOfficer {
		t.Fatalf("actor = %+v", actor)
	}

	if _, err := svc.Authenticate(ctx, token.AccessToken+"x"); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("Authenticate(tampered) error = %v, want unauthenticated", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	if _, err := svc.Authenticate(ctx, token.AccessToken); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("Authenticate(expired) error = %v, want unauthenticated", err)
	}
}

func TestDeactivatedUserIsLockedOut(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	admin, err := svc.CreateUser(ctx, SystemActor, NewUser{Username: "admin", Password: "admin-password", Role: "admin"})
	if err != nil {
		t.Fatalf("CreateUser(admin) error = %v", err)
	}
	adminActor := access.Actor{UserID: admin.UserID, Role: access.RoleAdmin}
	user, err := svc.CreateUser(ctx, adminActor, NewUser{Username: "eng", Password: "engineer-pass", Role: "engineer"})
	if err != nil {
		t.Fatalf("CreateUser(engineer) error = %v", err)
	}
	token, err := svc.Login(ctx, "eng", "engineer-pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.Deactivate(ctx, adminActor, admin.UserID); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("Deactivate(self) error = %v, want conflict", err)
	}
	if err := svc.Deactivate(ctx, adminActor, user.UserID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if _, err := svc.Authenticate(ctx, token.AccessToken); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("Authenticate(deactivated) error = %v, want unauthenticated", err)
	}
	if _, err := svc.Login(ctx, "eng", "engineer-pass"); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("Login(deactivated) error = %v, want unauthenticated", err)
	}
}

func TestAdminOperations(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	eng, err := svc.CreateUser(ctx, SystemActor, NewUser{Username: "eng", Password: "engineer-pass", Role: "engineer"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	engActor := access.Actor{UserID: eng.UserID, Role: access.RoleEngineer}

	if _, err := svc.CreateUser(ctx, SystemActor, NewUser{Username: "eng", Password: "engineer-pass", Role: "engineer"}); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("CreateUser(duplicate) error = %v, want conflict", err)
	}
	if _, err := svc.CreateUser(ctx, SystemActor, NewUser{Username: "short", Password: "abc", Role: "citizen"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("CreateUser(short password) error = %v, want validation", err)
	}
	if _, err := svc.CreateUser(ctx, engActor, NewUser{Username: "x", Password: "long-enough", Role: "citizen"}); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("CreateUser(engineer) error = %v, want forbidden", err)
	}

	if err := svc.GrantPermission(ctx, SystemActor, eng.UserID, "publications.archive"); err != nil {
		t.Fatalf("GrantPermission() error = %v", err)
	}
	if err := svc.GrantPermission(ctx, SystemActor, eng.UserID, "reports.delete"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("GrantPermission(unknown) error = %v, want validation", err)
	}
	if err := svc.GrantPermission(ctx, SystemActor, "missing", "publications.archive"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("GrantPermission(missing user) error = %v, want not found", err)
	}

	if err := svc.SetRole(ctx, SystemActor, eng.UserID, "lgu_officer"); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	if err := svc.SetRole(ctx, SystemActor, eng.UserID, "mayor"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("SetRole(unknown) error = %v, want validation", err)
	}

	me, err := svc.Me(ctx, engActor)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if me.Role != string(access.RoleLGUOfficer) || len(me.Permissions) != 1 || me.Permissions[0] != access.PermArchivePublications {
		t.Fatalf("me = %+v", me)
	}
	if _, err := svc.Me(ctx, access.Actor{}); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("Me(anonymous) error = %v, want unauthenticated", err)
	}
}
