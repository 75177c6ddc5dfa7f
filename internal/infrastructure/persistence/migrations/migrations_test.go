package migrations

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"roadportal/internal/infrastructure/persistence/sqlite/model"
)

func TestRunCreatesTablesAndIsRepeatable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "migrate.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	ctx := context.Background()
	if err := Run(ctx, db); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := Run(ctx, db); err != nil {
		t.Fatalf("Run(second) error = %v", err)
	}

	for _, table := range []string{
		"users", "damage_reports", "inspections", "repair_tasks", "gis_map_markers",
		"gis_construction_zones", "public_publications", "publication_progress",
		"notifications", "user_activity_log", "user_permissions", "id_sequences", "app_kv",
	} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table %s missing after Run()", table)
		}
	}

	if !db.Migrator().HasIndex(&model.AppKV{}, "idx_app_kv_expires_at") {
		t.Fatal("idx_app_kv_expires_at missing after Run()")
	}
}

func TestRunRequiresDatabase(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("Run(nil db) error = nil, want error")
	}
}
