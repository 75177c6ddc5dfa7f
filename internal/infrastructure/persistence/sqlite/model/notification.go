package model

import "time"

type Notification struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     string    `gorm:"column:user_id;type:text;not null;index:idx_notifications_user_created,priority:1"`
	Type       string    `gorm:"column:type;type:text;not null"`
	Title      string    `gorm:"column:title;type:text;not null"`
	Message    string    `gorm:"column:message;type:text;not null"`
	RelatedID  string    `gorm:"column:related_id;type:text;not null;default:''"`
	ReadStatus bool      `gorm:"column:read_status;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;index:idx_notifications_user_created,priority:2"`
}

func (Notification) TableName() string {
	return "notifications"
}
