package model

import "time"

type User struct {
	UserID       string    `gorm:"column:user_id;type:text;primaryKey"`
	Username     string    `gorm:"column:username;type:text;uniqueIndex;not null"`
	FullName     string    `gorm:"column:full_name;type:text;not null;default:''"`
	Role         string    `gorm:"column:role;type:text;not null;index"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	Active       bool      `gorm:"column:active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (User) TableName() string {
	return "users"
}

type UserPermission struct {
	UserID     string    `gorm:"column:user_id;type:text;primaryKey"`
	Permission string    `gorm:"column:permission;type:text;primaryKey"`
	GrantedAt  time.Time `gorm:"column:granted_at;not null"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}

type ActivityLog struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     string    `gorm:"column:user_id;type:text;not null;index"`
	Action     string    `gorm:"column:action;type:text;not null"`
	EntityType string    `gorm:"column:entity_type;type:text;not null;index:idx_activity_entity,priority:1"`
	EntityID   string    `gorm:"column:entity_id;type:text;not null;index:idx_activity_entity,priority:2"`
	Details    string    `gorm:"column:details;type:text;not null;default:''"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (ActivityLog) TableName() string {
	return "user_activity_log"
}
