package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Timezone != "Asia/Manila" {
		t.Fatalf("timezone = %q", cfg.App.Timezone)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Uploads.Backend != UploadBackendLocal || cfg.Uploads.Root != "uploads" {
		t.Fatalf("uploads = %+v", cfg.Uploads)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Fatalf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.RateLimit.Burst != 5 {
		t.Fatalf("burst = %d", cfg.RateLimit.Burst)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("database:\n  dsn: file.sqlite\nhttp:\n  addr: \":9000\"\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RP_DATABASE_DSN", "env.sqlite")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.DSN != "env.sqlite" {
		t.Fatalf("dsn = %q, want env override", cfg.Database.DSN)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
}

func TestValidateRejectsGCSWithoutBucket(t *testing.T) {
	t.Setenv("RP_UPLOADS_BACKEND", UploadBackendGCS)

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() error = nil, want missing bucket error")
	}
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	t.Setenv("RP_APP_TIMEZONE", "Mars/Olympus")

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() error = nil, want timezone error")
	}
}
