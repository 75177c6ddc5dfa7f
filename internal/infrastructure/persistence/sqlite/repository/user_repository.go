package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roadportal/internal/domain/access"
	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	"roadportal/internal/ports"
)

type UserRepository struct {
	baseRepository
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{baseRepository{db: db}}
}

func (r *UserRepository) CreateUser(ctx context.Context, row ports.User) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	record := model.User{
		UserID:       row.UserID,
		Username:     row.Username,
		FullName:     row.FullName,
		Role:         string(row.Role),
		PasswordHash: row.PasswordHash,
		Active:       row.Active,
		CreatedAt:    row.CreatedAt.UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return errs.Wrapf(ports.ErrDuplicateKey, "insert user %s", row.Username)
		}
		return errs.Wrap(err, "insert user")
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}
	return takeUser(db.Where("user_id = ?", userID))
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}
	return takeUser(db.Where("username = ?", username))
}

func (r *UserRepository) SetRole(ctx context.Context, userID string, role access.Role) error {
	return r.updateUser(ctx, userID, "role", string(role))
}

func (r *UserRepository) SetActive(ctx context.Context, userID string, active bool) error {
	return r.updateUser(ctx, userID, "active", active)
}

func (r *UserRepository) GrantPermission(ctx context.Context, userID string, permission string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.UserPermission{
		UserID:     userID,
		Permission: permission,
		GrantedAt:  time.Now().UTC(),
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert user permission")
	}
	return nil
}

func (r *UserRepository) ListPermissions(ctx context.Context, userID string) ([]string, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.UserPermission
	if err := db.Where("user_id = ?", userID).Order("permission asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query user permissions")
	}

	permissions := make([]string, 0, len(rows))
	for _, row := range rows {
		permissions = append(permissions, row.Permission)
	}
	return permissions, nil
}

func (r *UserRepository) ListActiveUserIDs(ctx context.Context, roles ...access.Role) ([]string, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []string{}, nil
	}

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}

	var ids []string
	if err := db.Model(&model.User{}).
		Where("active = ? AND role IN ?", true, names).
		Order("user_id asc").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, errs.Wrap(err, "query user ids by role")
	}
	return ids, nil
}

func (r *UserRepository) updateUser(ctx context.Context, userID string, column string, value any) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.User{}).Where("user_id = ?", userID).Update(column, value)
	if result.Error != nil {
		return errs.Wrapf(result.Error, "update user %s", column)
	}
	if result.RowsAffected == 0 {
		return ports.ErrUserNotFound
	}
	return nil
}

func takeUser(query *gorm.DB) (ports.User, error) {
	var row model.User
	if err := query.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, ports.ErrUserNotFound
		}
		return ports.User{}, errs.Wrap(err, "query user")
	}
	return ports.User{
		UserID:       row.UserID,
		Username:     row.Username,
		FullName:     row.FullName,
		Role:         access.Role(row.Role),
		PasswordHash: row.PasswordHash,
		Active:       row.Active,
		CreatedAt:    row.CreatedAt,
	}, nil
}
