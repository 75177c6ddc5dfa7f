// Package testsupport opens migrated SQLite databases for package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"roadportal/internal/domain/access"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "roadportal/internal/infrastructure/persistence/sqlite/repository"
	"roadportal/internal/ports"
)

// OpenDB returns a migrated database in t.TempDir limited to one connection,
// the way the server runs SQLite.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "portal.sqlite")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// SeedUser inserts an active user with the given id and role.
func SeedUser(t *testing.T, db *gorm.DB, userID string, role access.Role) ports.User {
	t.Helper()

	user := ports.User{
		UserID:       userID,
		Username:     userID,
		FullName:     userID,
		Role:         role,
		PasswordHash: "x",
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := sqliterepo.NewUserRepository(db).CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", userID, err)
	}
	return user
}

// MemoryCache is a ports.Cache for tests.
type MemoryCache struct {
	mu   sync.Mutex
	Data map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{Data: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.Data[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Data[key] = value
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Data, key)
	return nil
}

// MemoryStore is a ports.FileStore that keeps file contents in memory.
type MemoryStore struct {
	mu    sync.Mutex
	Files map[string][]byte
	Fail  map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Files: make(map[string][]byte), Fail: make(map[string]error)}
}
