package model

import "time"

type AppKV struct {
	Key       string     `gorm:"column:key;type:text;primaryKey"`
	Value     string     `gorm:"column:value;type:text;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null"`
}

func (AppKV) TableName() string {
	return "app_kv"
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&UserPermission{},
		&DamageReport{},
		&Inspection{},
		&RepairTask{},
		&GISMarker{},
		&ConstructionZone{},
		&Publication{},
		&PublicationProgress{},
		&Notification{},
		&ActivityLog{},
		&IDSequence{},
		&AppKV{},
	}
}
