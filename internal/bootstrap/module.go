package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"roadportal/internal/bootstrap/config"
	"roadportal/internal/bootstrap/database"
	"roadportal/internal/bootstrap/logging"
	cacheinfra "roadportal/internal/infrastructure/cache"
	sqliterepo "roadportal/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "roadportal/internal/infrastructure/persistence/sqlite/uow"
	"roadportal/internal/infrastructure/storage"
	"roadportal/internal/ports"
	"roadportal/internal/transport/httpapi"
	"roadportal/internal/usecase/accounts"
	"roadportal/internal/usecase/gateway"
	"roadportal/internal/usecase/intake"
	"roadportal/internal/usecase/lifecycle"
	"roadportal/internal/usecase/listing"
	"roadportal/internal/usecase/notifications"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideLocation),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(sqliterepo.NewReportRepository, fx.As(new(ports.ReportRepository)), fx.As(new(ports.ReportReadRepository))),
		fx.Annotate(sqliterepo.NewPublicationRepository, fx.As(new(ports.PublicationRepository)), fx.As(new(ports.PublicationReadRepository))),
		fx.Annotate(sqliterepo.NewGISRepository, fx.As(new(ports.GISRepository)), fx.As(new(ports.GISReadRepository))),
		fx.Annotate(sqliterepo.NewInspectionRepository, fx.As(new(ports.InspectionRepository))),
		fx.Annotate(sqliterepo.NewNotificationRepository, fx.As(new(ports.NotificationRepository))),
		fx.Annotate(sqliterepo.NewUserRepository, fx.As(new(ports.UserRepository))),
		fx.Annotate(sqliterepo.NewActivityRepository, fx.As(new(ports.ActivityRepository))),
		fx.Annotate(sqliterepo.NewSequenceRepository, fx.As(new(ports.SequenceRepository))),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(cacheinfra.NewSQLiteCache),
	fx.Provide(func(c *cacheinfra.SQLiteCache) ports.Cache { return c }),
	fx.Provide(provideFileStore),
	fx.Provide(
		provideAccounts,
		provideIntake,
		provideLifecycle,
		provideGateway,
		provideListing,
		notifications.NewService,
		provideHTTPServer,
	),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func provideLocation(cfg config.Config) (*time.Location, error) {
	return cfg.App.Location()
}

func provideApp(cfg config.Config, db *gorm.DB, loc *time.Location) *App {
	return &App{Config: cfg, DB: db, Location: loc}
}

// provideFileStore picks the upload backend. The GCS client is closed on stop.
func provideFileStore(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.FileStore, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	if cfg.Uploads.Backend != config.UploadBackendGCS {
		logging.Info(logCtx, "using local upload store", slog.String("root", cfg.Uploads.Root))
		return storage.NewLocalStore(cfg.Uploads.Root), nil
	}

	store, err := storage.NewGCSStore(ctx, storage.GCSConfig{
		Bucket:          cfg.Uploads.GCSBucket,
		Prefix:          cfg.Uploads.GCSPrefix,
		CredentialsFile: cfg.Uploads.GCSCredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error { return store.Close() },
	})
	logging.Info(logCtx, "using gcs upload store", slog.String("bucket", cfg.Uploads.GCSBucket))
	return store, nil
}

type repoParams struct {
	fx.In

	Reports       ports.ReportRepository
	ReportReads   ports.ReportReadRepository
	Publications  ports.PublicationRepository
	PubReads      ports.PublicationReadRepository
	GIS           ports.GISRepository
	GISReads      ports.GISReadRepository
	Inspections   ports.InspectionRepository
	Notifications ports.NotificationRepository
	Users         ports.UserRepository
	Activity      ports.ActivityRepository
	Sequences     ports.SequenceRepository
	UnitOfWork    ports.UnitOfWork
	Cache         ports.Cache
	Store         ports.FileStore
	Config        config.Config
	Location      *time.Location
}

func provideAccounts(p repoParams) *accounts.Service {
	return accounts.NewService(accounts.Deps{
		Users:      p.Users,
		Activity:   p.Activity,
		UnitOfWork: p.UnitOfWork,
		JWTSecret:  p.Config.Auth.JWTSecret,
		TokenTTL:   p.Config.Auth.TokenTTL,
	})
}

func provideIntake(p repoParams) *intake.Service {
	return intake.NewService(intake.Deps{
		Reports:       p.Reports,
		Sequences:     p.Sequences,
		Users:         p.Users,
		Notifications: p.Notifications,
		Activity:      p.Activity,
		UnitOfWork:    p.UnitOfWork,
		Store:         p.Store,
		Location:      p.Location,
	})
}

func provideLifecycle(p repoParams) *lifecycle.Service {
	return lifecycle.NewService(lifecycle.Deps{
		Reports:       p.Reports,
		Publications:  p.Publications,
		Inspections:   p.Inspections,
		GIS:           p.GIS,
		Notifications: p.Notifications,
		Users:         p.Users,
		Activity:      p.Activity,
		Sequences:     p.Sequences,
		UnitOfWork:    p.UnitOfWork,
		Cache:         p.Cache,
		Location:      p.Location,
	})
}

func provideGateway(p repoParams) *gateway.Service {
	return gateway.NewService(gateway.Deps{
		GIS:          p.GISReads,
		Publications: p.PubReads,
		Cache:        p.Cache,
		ImageBaseURL: p.Config.Uploads.PublicBaseURL,
	})
}

func provideListing(p repoParams) *listing.Service {
	return listing.NewService(listing.Deps{
		Reports:      p.ReportReads,
		Inspections:  p.Inspections,
		Publications: p.PubReads,
		Activity:     p.Activity,
		Location:     p.Location,
		ImageBaseURL: p.Config.Uploads.PublicBaseURL,
	})
}

type serverParams struct {
	fx.In

	Config        config.Config
	Location      *time.Location
	DB            *gorm.DB
	Accounts      *accounts.Service
	Intake        *intake.Service
	Lifecycle     *lifecycle.Service
	Gateway       *gateway.Service
	Listing       *listing.Service
	Notifications *notifications.Service
}

func provideHTTPServer(p serverParams) *httpapi.Server {
	opts := httpapi.Options{
		MaxUploadBytes: p.Config.HTTP.MaxUploadMB << 20,
		CORSOrigins:    p.Config.HTTP.CORSOrigins,
		RatePerSecond:  p.Config.RateLimit.PerSecond,
		RateBurst:      p.Config.RateLimit.Burst,
		Location:       p.Location,
	}
	if p.Config.Uploads.Backend == config.UploadBackendLocal {
		opts.UploadsRoot = p.Config.Uploads.Root
	}
	return httpapi.NewServer(httpapi.Deps{
		Accounts:      p.Accounts,
		Intake:        p.Intake,
		Lifecycle:     p.Lifecycle,
		Gateway:       p.Gateway,
		Listing:       p.Listing,
		Notifications: p.Notifications,
		Ping: func(ctx context.Context) error {
			sqlDB, err := p.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}, opts)
}
