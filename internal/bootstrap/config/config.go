package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/errs"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Console   ConsoleConfig   `mapstructure:"console"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	Timezone string `mapstructure:"timezone"`
	LogLevel string `mapstructure:"log_level"`
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c AppConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errs.Wrapf(err, "load timezone %q", c.Timezone)
	}
	return loc, nil
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

const (
	UploadBackendLocal = "local"
	UploadBackendGCS   = "gcs"
)

type UploadsConfig struct {
	Backend            string `mapstructure:"backend"`
	Root               string `mapstructure:"root"`
	GCSBucket          string `mapstructure:"gcs_bucket"`
	GCSPrefix          string `mapstructure:"gcs_prefix"`
	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`
	PublicBaseURL      string `mapstructure:"public_base_url"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type ConsoleConfig struct {
	Username string `mapstructure:"username"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (configFile != "" && isMissingFile(err)) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("uploads_backend", cfg.Uploads.Backend),
	)

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if _, err := c.App.Location(); err != nil {
		return err
	}
	switch c.Uploads.Backend {
	case UploadBackendLocal:
		if strings.TrimSpace(c.Uploads.Root) == "" {
			return errors.New("uploads.root is required for the local backend")
		}
	case UploadBackendGCS:
		if strings.TrimSpace(c.Uploads.GCSBucket) == "" {
			return errors.New("uploads.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unsupported uploads.backend %q", c.Uploads.Backend)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.HTTP.MaxUploadMB <= 0 {
		return errors.New("http.max_upload_mb must be positive")
	}
	return nil
}

// A missing explicit --config file is treated like no file at all so a fresh
// checkout runs on defaults and RP_ variables.
func isMissingFile(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such file") || strings.Contains(msg, "cannot find the file")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "roadportal")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.timezone", "Asia/Manila")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/roadportal.sqlite")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "30s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.max_upload_mb", 32)
	v.SetDefault("http.cors_origins", []string{"*"})

	v.SetDefault("uploads.backend", UploadBackendLocal)
	v.SetDefault("uploads.root", "uploads")
	v.SetDefault("uploads.gcs_bucket", "")
	v.SetDefault("uploads.gcs_prefix", "uploads")
	v.SetDefault("uploads.gcs_credentials_file", "")
	v.SetDefault("uploads.public_base_url", "/uploads")

	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_ttl", "12h")

	v.SetDefault("ratelimit.per_second", 0.2)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("console.username", "")
}
